package middleware

import (
	"context"
	"time"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/fedkit/train"
	"github.com/go-kit/kit/metrics"
)

var _ train.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     train.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc train.Service) train.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mm *metricsMiddleware) ListModels(ctx context.Context, offset, limit uint64) (model.ModelPage, error) {
	defer mm.observe("list-models", time.Now())

	return mm.svc.ListModels(ctx, offset, limit)
}

func (mm *metricsMiddleware) ViewModel(ctx context.Context, id int64) (model.TFLiteModel, error) {
	defer mm.observe("view-model", time.Now())

	return mm.svc.ViewModel(ctx, id)
}

func (mm *metricsMiddleware) AdvertiseData(ctx context.Context, req train.AdvertisedData) (model.TFLiteModel, error) {
	defer mm.observe("advertise-data", time.Now())

	return mm.svc.AdvertiseData(ctx, req)
}

func (mm *metricsMiddleware) UploadData(ctx context.Context, req train.UploadData) (model.TFLiteModel, error) {
	defer mm.observe("upload-data", time.Now())

	return mm.svc.UploadData(ctx, req)
}

func (mm *metricsMiddleware) UploadModelFile(ctx context.Context, id int64, kind model.FileKind, data []byte) (model.TFLiteModel, error) {
	defer mm.observe("upload-model-file", time.Now())

	return mm.svc.UploadModelFile(ctx, id, kind, data)
}

func (mm *metricsMiddleware) DownloadModelFile(ctx context.Context, id int64, kind model.FileKind) ([]byte, error) {
	defer mm.observe("download-model-file", time.Now())

	return mm.svc.DownloadModelFile(ctx, id, kind)
}

func (mm *metricsMiddleware) PostServerData(ctx context.Context, req train.PostServerData) (session.ServerData, error) {
	defer mm.observe("post-server-data", time.Now())

	return mm.svc.PostServerData(ctx, req)
}

func (mm *metricsMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (session.SessionPage, error) {
	defer mm.observe("list-sessions", time.Now())

	return mm.svc.ListSessions(ctx, offset, limit)
}

func (mm *metricsMiddleware) ViewSession(ctx context.Context, id int64) (session.Session, error) {
	defer mm.observe("view-session", time.Now())

	return mm.svc.ViewSession(ctx, id)
}

func (mm *metricsMiddleware) EndSession(ctx context.Context, id int64) error {
	defer mm.observe("end-session", time.Now())

	return mm.svc.EndSession(ctx, id)
}

func (mm *metricsMiddleware) ReapSessions(ctx context.Context) (int, error) {
	defer mm.observe("reap-sessions", time.Now())

	return mm.svc.ReapSessions(ctx)
}
