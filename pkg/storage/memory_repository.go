package storage

import (
	"context"
	"strconv"
	"sync"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
)

type memoryModelRepo struct {
	mu      sync.Mutex
	storage Storage
	lastID  int64
}

func newMemoryModelRepository(s Storage) ModelRepository {
	return &memoryModelRepo{storage: s}
}

func (r *memoryModelRepo) Create(ctx context.Context, m model.TFLiteModel) (model.TFLiteModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	models, err := r.all(ctx)
	if err != nil {
		return model.TFLiteModel{}, err
	}
	for _, existing := range models {
		if existing.Name == m.Name {
			return model.TFLiteModel{}, pkgerrors.ErrEntityExists
		}
	}

	r.lastID++
	m.ID = r.lastID
	if err := r.storage.Create(ctx, key(m.ID), m); err != nil {
		return model.TFLiteModel{}, err
	}

	return m, nil
}

func (r *memoryModelRepo) Get(ctx context.Context, id int64) (model.TFLiteModel, error) {
	data, err := r.storage.Get(ctx, key(id))
	if err != nil {
		return model.TFLiteModel{}, err
	}
	m, ok := data.(model.TFLiteModel)
	if !ok {
		return model.TFLiteModel{}, pkgerrors.ErrInvalidData
	}

	return m, nil
}

func (r *memoryModelRepo) Update(ctx context.Context, m model.TFLiteModel) error {
	return r.storage.Update(ctx, key(m.ID), m)
}

func (r *memoryModelRepo) List(ctx context.Context, offset, limit uint64) ([]model.TFLiteModel, uint64, error) {
	data, total, err := r.storage.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	models := make([]model.TFLiteModel, len(data))
	for i, d := range data {
		m, ok := d.(model.TFLiteModel)
		if !ok {
			return nil, 0, pkgerrors.ErrInvalidData
		}
		models[i] = m
	}

	return models, total, nil
}

func (r *memoryModelRepo) LatestByDataType(ctx context.Context, dataType string, requireMLModel bool) (model.TFLiteModel, error) {
	models, err := r.all(ctx)
	if err != nil {
		return model.TFLiteModel{}, err
	}
	for _, m := range models {
		if m.DataType != dataType {
			continue
		}
		if requireMLModel && !m.HasMLModel() {
			continue
		}

		return m, nil
	}

	return model.TFLiteModel{}, pkgerrors.ErrNotFound
}

func (r *memoryModelRepo) all(ctx context.Context) ([]model.TFLiteModel, error) {
	data, err := r.storage.All(ctx)
	if err != nil {
		return nil, err
	}
	models := make([]model.TFLiteModel, len(data))
	for i, d := range data {
		m, ok := d.(model.TFLiteModel)
		if !ok {
			return nil, pkgerrors.ErrInvalidData
		}
		models[i] = m
	}

	return models, nil
}

type memorySessionRepo struct {
	mu      sync.Mutex
	storage Storage
	lastID  int64
}

func newMemorySessionRepository(s Storage) SessionRepository {
	return &memorySessionRepo{storage: s}
}

func (r *memorySessionRepo) Create(ctx context.Context, s session.Session) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	s.ID = r.lastID
	if err := r.storage.Create(ctx, key(s.ID), s); err != nil {
		return session.Session{}, err
	}

	return s, nil
}

func (r *memorySessionRepo) Get(ctx context.Context, id int64) (session.Session, error) {
	data, err := r.storage.Get(ctx, key(id))
	if err != nil {
		return session.Session{}, err
	}
	s, ok := data.(session.Session)
	if !ok {
		return session.Session{}, pkgerrors.ErrInvalidData
	}

	return s, nil
}

func (r *memorySessionRepo) Update(ctx context.Context, s session.Session) error {
	return r.storage.Update(ctx, key(s.ID), s)
}

func (r *memorySessionRepo) List(ctx context.Context, offset, limit uint64) ([]session.Session, uint64, error) {
	data, total, err := r.storage.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	sessions := make([]session.Session, len(data))
	for i, d := range data {
		s, ok := d.(session.Session)
		if !ok {
			return nil, 0, pkgerrors.ErrInvalidData
		}
		sessions[i] = s
	}

	return sessions, total, nil
}

func (r *memorySessionRepo) ActiveByModel(ctx context.Context, modelID int64) (session.Session, error) {
	active, err := r.ListActive(ctx)
	if err != nil {
		return session.Session{}, err
	}
	for _, s := range active {
		if s.ModelID == modelID {
			return s, nil
		}
	}

	return session.Session{}, pkgerrors.ErrNotFound
}

func (r *memorySessionRepo) ListActive(ctx context.Context) ([]session.Session, error) {
	data, err := r.storage.All(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]session.Session, 0)
	for _, d := range data {
		s, ok := d.(session.Session)
		if !ok {
			return nil, pkgerrors.ErrInvalidData
		}
		if s.IsActive() {
			sessions = append(sessions, s)
		}
	}

	return sessions, nil
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
