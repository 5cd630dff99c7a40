package train

import (
	"context"
	"errors"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
)

var (
	ErrMLModelUnavailable = errors.New("model has no Core ML companion")
	ErrInvalidFileKind    = errors.New("invalid model file kind")
	ErrEmptyFile          = errors.New("model file is empty")
)

type Service interface {
	ListModels(ctx context.Context, offset, limit uint64) (model.ModelPage, error)
	ViewModel(ctx context.Context, id int64) (model.TFLiteModel, error)
	// AdvertiseData returns the newest model trained on the advertised data type.
	AdvertiseData(ctx context.Context, req AdvertisedData) (model.TFLiteModel, error)
	UploadData(ctx context.Context, req UploadData) (model.TFLiteModel, error)
	UploadModelFile(ctx context.Context, id int64, kind model.FileKind, data []byte) (model.TFLiteModel, error)
	DownloadModelFile(ctx context.Context, id int64, kind model.FileKind) ([]byte, error)

	// PostServerData reports, and if needed allocates, the training session
	// serving the requested model.
	PostServerData(ctx context.Context, req PostServerData) (session.ServerData, error)
	ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error)
	ViewSession(ctx context.Context, id int64) (session.Session, error)
	EndSession(ctx context.Context, id int64) error
	// ReapSessions ends active sessions older than the session timeout and
	// returns how many were ended.
	ReapSessions(ctx context.Context) (int, error)
}
