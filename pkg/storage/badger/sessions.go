package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/absmach/fedkit/pkg/session"
	badgerdb "github.com/dgraph-io/badger/v4"
)

const (
	sessionPrefix = "session:"
	sessionSeqKey = "seq:session"
)

type sessionRepo struct {
	db  *Database
	seq *badgerdb.Sequence
}

func NewSessionRepository(db *Database) (SessionRepository, error) {
	seq, err := db.sequence(sessionSeqKey)
	if err != nil {
		return nil, err
	}

	return &sessionRepo{db: db, seq: seq}, nil
}

func (r *sessionRepo) Create(ctx context.Context, s session.Session) (session.Session, error) {
	next, err := r.seq.Next()
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	s.ID = int64(next) + 1

	val, err := json.Marshal(s)
	if err != nil {
		return session.Session{}, fmt.Errorf("marshal error: %w", err)
	}
	if err := r.db.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(idKey(sessionPrefix, s.ID), val)
	}); err != nil {
		return session.Session{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return s, nil
}

func (r *sessionRepo) Get(ctx context.Context, id int64) (session.Session, error) {
	val, err := r.db.get(idKey(sessionPrefix, id))
	if err != nil {
		return session.Session{}, err
	}

	return decodeSession(val)
}

func (r *sessionRepo) Update(ctx context.Context, s session.Session) error {
	key := idKey(sessionPrefix, s.ID)
	val, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	err = r.db.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(key); err != nil {
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

func (r *sessionRepo) List(ctx context.Context, offset, limit uint64) ([]session.Session, uint64, error) {
	sessions := make([]session.Session, 0)
	total, err := r.db.newestFirst(ctx, []byte(sessionPrefix), offset, limit, nil, collect(&sessions))
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *sessionRepo) ActiveByModel(ctx context.Context, modelID int64) (session.Session, error) {
	sessions := make([]session.Session, 0, 1)
	match := func(val []byte) (bool, error) {
		s, err := decodeSession(val)
		if err != nil {
			return false, err
		}

		return s.IsActive() && s.ModelID == modelID, nil
	}
	if _, err := r.db.newestFirst(ctx, []byte(sessionPrefix), 0, 1, match, collect(&sessions)); err != nil {
		return session.Session{}, err
	}
	if len(sessions) == 0 {
		return session.Session{}, ErrNotFound
	}

	return sessions[0], nil
}

func (r *sessionRepo) ListActive(ctx context.Context) ([]session.Session, error) {
	sessions := make([]session.Session, 0)
	match := func(val []byte) (bool, error) {
		s, err := decodeSession(val)
		if err != nil {
			return false, err
		}

		return s.IsActive(), nil
	}
	if _, err := r.db.newestFirst(ctx, []byte(sessionPrefix), 0, 0, match, collect(&sessions)); err != nil {
		return nil, err
	}

	return sessions, nil
}

func collect(sessions *[]session.Session) func([]byte) error {
	return func(val []byte) error {
		s, err := decodeSession(val)
		if err != nil {
			return err
		}
		*sessions = append(*sessions, s)

		return nil
	}
}

func decodeSession(val []byte) (session.Session, error) {
	var s session.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return session.Session{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return s, nil
}
