package storage

import (
	"context"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
)

// ModelRepository persists TFLite model records. Ids are assigned on Create
// and names are unique.
type ModelRepository interface {
	Create(ctx context.Context, m model.TFLiteModel) (model.TFLiteModel, error)
	Get(ctx context.Context, id int64) (model.TFLiteModel, error)
	Update(ctx context.Context, m model.TFLiteModel) error
	List(ctx context.Context, offset, limit uint64) ([]model.TFLiteModel, uint64, error)
	LatestByDataType(ctx context.Context, dataType string, requireMLModel bool) (model.TFLiteModel, error)
}

// SessionRepository persists training sessions. Ids are assigned on Create.
type SessionRepository interface {
	Create(ctx context.Context, s session.Session) (session.Session, error)
	Get(ctx context.Context, id int64) (session.Session, error)
	Update(ctx context.Context, s session.Session) error
	List(ctx context.Context, offset, limit uint64) ([]session.Session, uint64, error)
	ActiveByModel(ctx context.Context, modelID int64) (session.Session, error)
	ListActive(ctx context.Context) ([]session.Session, error)
}
