package train

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/fedkit/pkg/artifact"
	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/mqtt"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/fedkit/pkg/storage"
)

type Config struct {
	PortMin        int64         `env:"SESSION_PORT_MIN" envDefault:"8080"`
	PortMax        int64         `env:"SESSION_PORT_MAX" envDefault:"8089"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT"  envDefault:"1h"`
	// TopicPrefix roots the session event topics.
	TopicPrefix string
}

type service struct {
	models    storage.ModelRepository
	sessions  storage.SessionRepository
	artifacts artifact.Store
	publisher mqtt.PubSub
	names     namegenerator.NameGenerator
	cfg       Config

	// mu serializes session allocation so two requests never claim the same
	// port or start two sessions for one model.
	mu sync.Mutex
	// modelsMu serializes read-modify-write of model records.
	modelsMu sync.Mutex
}

func NewService(models storage.ModelRepository, sessions storage.SessionRepository, artifacts artifact.Store, publisher mqtt.PubSub, cfg Config) Service {
	return &service{
		models:    models,
		sessions:  sessions,
		artifacts: artifacts,
		publisher: publisher,
		names:     namegenerator.NewGenerator(),
		cfg:       cfg,
	}
}

func (svc *service) ListModels(ctx context.Context, offset, limit uint64) (model.ModelPage, error) {
	models, total, err := svc.models.List(ctx, offset, limit)
	if err != nil {
		return model.ModelPage{}, err
	}

	return model.ModelPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Models: models,
	}, nil
}

func (svc *service) ViewModel(ctx context.Context, id int64) (model.TFLiteModel, error) {
	return svc.models.Get(ctx, id)
}

func (svc *service) AdvertiseData(ctx context.Context, req AdvertisedData) (model.TFLiteModel, error) {
	if err := req.Validate(); err != nil {
		return model.TFLiteModel{}, err
	}

	return svc.models.LatestByDataType(ctx, req.DataType, req.RequireMLModel)
}

func (svc *service) UploadData(ctx context.Context, req UploadData) (model.TFLiteModel, error) {
	if err := req.Validate(); err != nil {
		return model.TFLiteModel{}, err
	}

	layers := make([]int64, len(req.LayersSizes))
	copy(layers, req.LayersSizes)

	svc.modelsMu.Lock()
	defer svc.modelsMu.Unlock()

	m, err := svc.models.Create(ctx, model.TFLiteModel{
		Name:        req.Name,
		LayersSizes: layers,
		DataType:    req.DataType,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return model.TFLiteModel{}, err
	}

	// The file path embeds the id, so it is known only after Create.
	m.FilePath = m.Path(model.TFLite)
	if err := svc.models.Update(ctx, m); err != nil {
		return model.TFLiteModel{}, err
	}

	return m, nil
}

func (svc *service) UploadModelFile(ctx context.Context, id int64, kind model.FileKind, data []byte) (model.TFLiteModel, error) {
	if !kind.Valid() {
		return model.TFLiteModel{}, ErrInvalidFileKind
	}
	if len(data) == 0 {
		return model.TFLiteModel{}, ErrEmptyFile
	}

	m, err := svc.models.Get(ctx, id)
	if err != nil {
		return model.TFLiteModel{}, err
	}

	path := m.Path(kind)
	if err := svc.artifacts.Put(ctx, path, data); err != nil {
		return model.TFLiteModel{}, err
	}

	svc.modelsMu.Lock()
	defer svc.modelsMu.Unlock()

	// Re-read so a concurrent upload of the other kind is not overwritten.
	m, err = svc.models.Get(ctx, id)
	if err != nil {
		return model.TFLiteModel{}, err
	}
	switch kind {
	case model.TFLite:
		m.FilePath = path
	case model.MLModel:
		m.MLModelPath = path
	}
	if err := svc.models.Update(ctx, m); err != nil {
		return model.TFLiteModel{}, err
	}

	return m, nil
}

func (svc *service) DownloadModelFile(ctx context.Context, id int64, kind model.FileKind) ([]byte, error) {
	if !kind.Valid() {
		return nil, ErrInvalidFileKind
	}

	m, err := svc.models.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	path := m.FilePath
	if kind == model.MLModel {
		path = m.MLModelPath
	}
	if path == "" {
		return nil, pkgerrors.ErrNotFound
	}

	return svc.artifacts.Get(ctx, path)
}

func (svc *service) PostServerData(ctx context.Context, req PostServerData) (session.ServerData, error) {
	if err := req.Validate(); err != nil {
		return session.ServerData{}, err
	}

	m, err := svc.models.Get(ctx, req.ID)
	if err != nil {
		return session.ServerData{}, err
	}
	if req.RequireMLModel && !m.HasMLModel() {
		return session.ServerData{}, ErrMLModelUnavailable
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	active, err := svc.sessions.ActiveByModel(ctx, m.ID)
	switch {
	case err == nil && !req.StartFresh:
		return session.Available(active, session.StatusStarted), nil
	case err == nil:
		if err := svc.endSession(ctx, active); err != nil {
			return session.ServerData{}, err
		}
	case !errors.Is(err, pkgerrors.ErrNotFound):
		return session.ServerData{}, err
	}

	port, ok, err := svc.freePort(ctx)
	if err != nil {
		return session.ServerData{}, err
	}
	if !ok {
		return session.Unavailable(session.StatusOccupied), nil
	}

	s, err := svc.sessions.Create(ctx, session.Session{
		Name:       svc.names.Generate(),
		ModelID:    m.ID,
		Port:       port,
		StartFresh: req.StartFresh,
		State:      session.Active,
		StartedAt:  time.Now().UTC(),
	})
	if err != nil {
		return session.ServerData{}, err
	}

	if err := svc.publish(ctx, EventStarted, s); err != nil {
		// Nobody will serve a session whose start was never announced.
		s.State = session.Ended
		endedAt := time.Now().UTC()
		s.EndedAt = &endedAt

		return session.ServerData{}, errors.Join(err, svc.sessions.Update(ctx, s))
	}

	return session.Available(s, session.StatusNew), nil
}

func (svc *service) ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error) {
	sessions, total, err := svc.sessions.List(ctx, offset, limit)
	if err != nil {
		return session.SessionPage{}, err
	}

	return session.SessionPage{
		Offset:   offset,
		Limit:    limit,
		Total:    total,
		Sessions: sessions,
	}, nil
}

func (svc *service) ViewSession(ctx context.Context, id int64) (session.Session, error) {
	return svc.sessions.Get(ctx, id)
}

func (svc *service) EndSession(ctx context.Context, id int64) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	s, err := svc.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.IsActive() {
		return nil
	}

	return svc.endSession(ctx, s)
}

func (svc *service) ReapSessions(ctx context.Context) (int, error) {
	if svc.cfg.SessionTimeout <= 0 {
		return 0, nil
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	active, err := svc.sessions.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-svc.cfg.SessionTimeout)
	reaped := 0
	var errs []error
	for _, s := range active {
		if s.StartedAt.After(cutoff) {
			continue
		}
		if err := svc.endSession(ctx, s); err != nil {
			errs = append(errs, err)

			continue
		}
		reaped++
	}

	return reaped, errors.Join(errs...)
}

// endSession must be called with mu held.
func (svc *service) endSession(ctx context.Context, s session.Session) error {
	endedAt := time.Now().UTC()
	s.State = session.Ended
	s.EndedAt = &endedAt
	if err := svc.sessions.Update(ctx, s); err != nil {
		return err
	}

	return svc.publish(ctx, EventEnded, s)
}

// freePort must be called with mu held.
func (svc *service) freePort(ctx context.Context) (int64, bool, error) {
	active, err := svc.sessions.ListActive(ctx)
	if err != nil {
		return 0, false, err
	}

	used := make(map[int64]struct{}, len(active))
	for _, s := range active {
		used[s.Port] = struct{}{}
	}
	for port := svc.cfg.PortMin; port <= svc.cfg.PortMax; port++ {
		if _, ok := used[port]; !ok {
			return port, true, nil
		}
	}

	return 0, false, nil
}
