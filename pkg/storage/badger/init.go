package badger

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/dgraph-io/badger/v4"
)

const sequenceBandwidth = 100

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrNotFound     = pkgerrors.ErrNotFound
)

type ModelRepository interface {
	Create(ctx context.Context, m model.TFLiteModel) (model.TFLiteModel, error)
	Get(ctx context.Context, id int64) (model.TFLiteModel, error)
	Update(ctx context.Context, m model.TFLiteModel) error
	List(ctx context.Context, offset, limit uint64) ([]model.TFLiteModel, uint64, error)
	LatestByDataType(ctx context.Context, dataType string, requireMLModel bool) (model.TFLiteModel, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s session.Session) (session.Session, error)
	Get(ctx context.Context, id int64) (session.Session, error)
	Update(ctx context.Context, s session.Session) error
	List(ctx context.Context, offset, limit uint64) ([]session.Session, uint64, error)
	ActiveByModel(ctx context.Context, modelID int64) (session.Session, error)
	ListActive(ctx context.Context) ([]session.Session, error)
}

type Repositories struct {
	Models   ModelRepository
	Sessions SessionRepository
}

func NewRepositories(db *Database) (*Repositories, error) {
	models, err := NewModelRepository(db)
	if err != nil {
		return nil, err
	}
	sessions, err := NewSessionRepository(db)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Models:   models,
		Sessions: sessions,
	}, nil
}

type Database struct {
	db   *badger.DB
	seqs []*badger.Sequence
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

// Close releases leased sequence ranges before closing the store.
func (d *Database) Close() error {
	var errs []error
	for _, seq := range d.seqs {
		if err := seq.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, d.db.Close())

	return errors.Join(errs...)
}

func (d *Database) sequence(key string) (*badger.Sequence, error) {
	seq, err := d.db.GetSequence([]byte(key), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}
	d.seqs = append(d.seqs, seq)

	return seq, nil
}

func (d *Database) get(key []byte) ([]byte, error) {
	var val []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

// newestFirst walks prefix in descending key order, skipping offset matches
// and stopping after limit. A zero limit means no limit. It returns the
// number of matching values seen.
func (d *Database) newestFirst(ctx context.Context, prefix []byte, offset, limit uint64, match func([]byte) (bool, error), visit func([]byte) error) (uint64, error) {
	var total uint64
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), 0xFF)
		var visited uint64
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if match != nil {
				ok, err := match(val)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}

			total++
			if total <= offset || (limit > 0 && visited >= limit) {
				continue
			}
			if err := visit(val); err != nil {
				return err
			}
			visited++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return total, nil
}

func idKey(prefix string, id int64) []byte {
	return fmt.Appendf(nil, "%s%020d", prefix, id)
}
