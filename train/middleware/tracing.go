package middleware

import (
	"context"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/fedkit/train"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ train.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    train.Service
}

func Tracing(tracer trace.Tracer, svc train.Service) train.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) ListModels(ctx context.Context, offset, limit uint64) (model.ModelPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-models", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListModels(ctx, offset, limit)
}

func (tm *tracing) ViewModel(ctx context.Context, id int64) (model.TFLiteModel, error) {
	ctx, span := tm.tracer.Start(ctx, "view-model", trace.WithAttributes(
		attribute.Int64("id", id),
	))
	defer span.End()

	return tm.svc.ViewModel(ctx, id)
}

func (tm *tracing) AdvertiseData(ctx context.Context, req train.AdvertisedData) (model.TFLiteModel, error) {
	ctx, span := tm.tracer.Start(ctx, "advertise-data", trace.WithAttributes(
		attribute.String("data_type", req.DataType),
		attribute.Bool("require_mlmodel", req.RequireMLModel),
	))
	defer span.End()

	return tm.svc.AdvertiseData(ctx, req)
}

func (tm *tracing) UploadData(ctx context.Context, req train.UploadData) (model.TFLiteModel, error) {
	ctx, span := tm.tracer.Start(ctx, "upload-data", trace.WithAttributes(
		attribute.String("name", req.Name),
		attribute.String("data_type", req.DataType),
		attribute.Int64Slice("layers_sizes", req.LayersSizes),
	))
	defer span.End()

	return tm.svc.UploadData(ctx, req)
}

func (tm *tracing) UploadModelFile(ctx context.Context, id int64, kind model.FileKind, data []byte) (model.TFLiteModel, error) {
	ctx, span := tm.tracer.Start(ctx, "upload-model-file", trace.WithAttributes(
		attribute.Int64("id", id),
		attribute.String("kind", string(kind)),
		attribute.Int("size", len(data)),
	))
	defer span.End()

	return tm.svc.UploadModelFile(ctx, id, kind, data)
}

func (tm *tracing) DownloadModelFile(ctx context.Context, id int64, kind model.FileKind) ([]byte, error) {
	ctx, span := tm.tracer.Start(ctx, "download-model-file", trace.WithAttributes(
		attribute.Int64("id", id),
		attribute.String("kind", string(kind)),
	))
	defer span.End()

	return tm.svc.DownloadModelFile(ctx, id, kind)
}

func (tm *tracing) PostServerData(ctx context.Context, req train.PostServerData) (session.ServerData, error) {
	ctx, span := tm.tracer.Start(ctx, "post-server-data", trace.WithAttributes(
		attribute.Int64("model_id", req.ID),
		attribute.Bool("start_fresh", req.StartFresh),
		attribute.Bool("require_mlmodel", req.RequireMLModel),
	))
	defer span.End()

	return tm.svc.PostServerData(ctx, req)
}

func (tm *tracing) ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-sessions", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListSessions(ctx, offset, limit)
}

func (tm *tracing) ViewSession(ctx context.Context, id int64) (session.Session, error) {
	ctx, span := tm.tracer.Start(ctx, "view-session", trace.WithAttributes(
		attribute.Int64("id", id),
	))
	defer span.End()

	return tm.svc.ViewSession(ctx, id)
}

func (tm *tracing) EndSession(ctx context.Context, id int64) error {
	ctx, span := tm.tracer.Start(ctx, "end-session", trace.WithAttributes(
		attribute.Int64("id", id),
	))
	defer span.End()

	return tm.svc.EndSession(ctx, id)
}

func (tm *tracing) ReapSessions(ctx context.Context) (int, error) {
	ctx, span := tm.tracer.Start(ctx, "reap-sessions")
	defer span.End()

	return tm.svc.ReapSessions(ctx)
}
