package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	badgerdb "github.com/dgraph-io/badger/v4"
)

const (
	modelPrefix     = "model:"
	modelNamePrefix = "model_name:"
	modelSeqKey     = "seq:model"
)

type modelRepo struct {
	db  *Database
	seq *badgerdb.Sequence
}

func NewModelRepository(db *Database) (ModelRepository, error) {
	seq, err := db.sequence(modelSeqKey)
	if err != nil {
		return nil, err
	}

	return &modelRepo{db: db, seq: seq}, nil
}

// dbModel keeps the fields the JSON API hides.
type dbModel struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FilePath    string    `json:"file_path"`
	MLModelPath string    `json:"mlmodel_path"`
	LayersSizes []int64   `json:"layers_sizes"`
	DataType    string    `json:"data_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *modelRepo) Create(ctx context.Context, m model.TFLiteModel) (model.TFLiteModel, error) {
	next, err := r.seq.Next()
	if err != nil {
		return model.TFLiteModel{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	m.ID = int64(next) + 1

	val, err := json.Marshal(fromModel(m))
	if err != nil {
		return model.TFLiteModel{}, fmt.Errorf("marshal error: %w", err)
	}

	nameKey := []byte(modelNamePrefix + m.Name)
	err = r.db.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(nameKey); err == nil {
			return pkgerrors.ErrEntityExists
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey, []byte(strconv.FormatInt(m.ID, 10))); err != nil {
			return err
		}

		return txn.Set(idKey(modelPrefix, m.ID), val)
	})
	switch {
	case errors.Is(err, pkgerrors.ErrEntityExists):
		return model.TFLiteModel{}, err
	case errors.Is(err, badgerdb.ErrConflict):
		return model.TFLiteModel{}, pkgerrors.ErrConflict
	case err != nil:
		return model.TFLiteModel{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return m, nil
}

func (r *modelRepo) Get(ctx context.Context, id int64) (model.TFLiteModel, error) {
	val, err := r.db.get(idKey(modelPrefix, id))
	if err != nil {
		return model.TFLiteModel{}, err
	}

	return decodeModel(val)
}

func (r *modelRepo) Update(ctx context.Context, m model.TFLiteModel) error {
	key := idKey(modelPrefix, m.ID)
	err := r.db.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var stored dbModel
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &stored)
		}); err != nil {
			return err
		}

		// Name and creation time are fixed at registration.
		m.Name = stored.Name
		m.CreatedAt = stored.CreatedAt
		val, err := json.Marshal(fromModel(m))
		if err != nil {
			return err
		}

		return txn.Set(key, val)
	})
	switch {
	case errors.Is(err, badgerdb.ErrKeyNotFound):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return nil
}

func (r *modelRepo) List(ctx context.Context, offset, limit uint64) ([]model.TFLiteModel, uint64, error) {
	models := make([]model.TFLiteModel, 0)
	total, err := r.db.newestFirst(ctx, []byte(modelPrefix), offset, limit, nil, func(val []byte) error {
		m, err := decodeModel(val)
		if err != nil {
			return err
		}
		models = append(models, m)

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return models, total, nil
}

func (r *modelRepo) LatestByDataType(ctx context.Context, dataType string, requireMLModel bool) (model.TFLiteModel, error) {
	var (
		found model.TFLiteModel
		ok    bool
	)
	match := func(val []byte) (bool, error) {
		m, err := decodeModel(val)
		if err != nil {
			return false, err
		}
		if m.DataType != dataType || (requireMLModel && !m.HasMLModel()) {
			return false, nil
		}

		return true, nil
	}
	_, err := r.db.newestFirst(ctx, []byte(modelPrefix), 0, 1, match, func(val []byte) error {
		m, err := decodeModel(val)
		if err != nil {
			return err
		}
		found, ok = m, true

		return nil
	})
	if err != nil {
		return model.TFLiteModel{}, err
	}
	if !ok {
		return model.TFLiteModel{}, ErrNotFound
	}

	return found, nil
}

func fromModel(m model.TFLiteModel) dbModel {
	layers := m.LayersSizes
	if layers == nil {
		layers = []int64{}
	}

	return dbModel{
		ID:          m.ID,
		Name:        m.Name,
		FilePath:    m.FilePath,
		MLModelPath: m.MLModelPath,
		LayersSizes: layers,
		DataType:    m.DataType,
		CreatedAt:   m.CreatedAt,
	}
}

func decodeModel(val []byte) (model.TFLiteModel, error) {
	var dbm dbModel
	if err := json.Unmarshal(val, &dbm); err != nil {
		return model.TFLiteModel{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return model.TFLiteModel{
		ID:          dbm.ID,
		Name:        dbm.Name,
		FilePath:    dbm.FilePath,
		MLModelPath: dbm.MLModelPath,
		LayersSizes: dbm.LayersSizes,
		DataType:    dbm.DataType,
		CreatedAt:   dbm.CreatedAt,
	}, nil
}
