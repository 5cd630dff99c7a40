package testutil

import (
	"time"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/google/uuid"
)

func TestModel(dataType string) model.TFLiteModel {
	m := model.TFLiteModel{
		Name:        "test-model-" + uuid.NewString(),
		LayersSizes: []int64{1000, 10, 40, 4},
		DataType:    dataType,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	m.FilePath = m.Path(model.TFLite)

	return m
}

func TestSession(modelID, port int64) session.Session {
	return session.Session{
		Name:      "test-session-" + uuid.NewString(),
		ModelID:   modelID,
		Port:      port,
		State:     session.Active,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}
