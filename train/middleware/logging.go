package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/fedkit/train"
)

var _ train.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    train.Service
}

func Logging(logger *slog.Logger, svc train.Service) train.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) ListModels(ctx context.Context, offset, limit uint64) (resp model.ModelPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List models failed", args...)

			return
		}
		lm.logger.Info("List models completed successfully", args...)
	}(time.Now())

	return lm.svc.ListModels(ctx, offset, limit)
}

func (lm *loggingMiddleware) ViewModel(ctx context.Context, id int64) (resp model.TFLiteModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.Int64("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("View model failed", args...)

			return
		}
		lm.logger.Info("View model completed successfully", args...)
	}(time.Now())

	return lm.svc.ViewModel(ctx, id)
}

func (lm *loggingMiddleware) AdvertiseData(ctx context.Context, req train.AdvertisedData) (resp model.TFLiteModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("request",
				slog.String("data_type", req.DataType),
				slog.Bool("require_mlmodel", req.RequireMLModel),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Advertise data failed", args...)

			return
		}
		args = append(args, slog.Group("model",
			slog.Int64("id", resp.ID),
			slog.String("name", resp.Name),
		))
		lm.logger.Info("Advertise data completed successfully", args...)
	}(time.Now())

	return lm.svc.AdvertiseData(ctx, req)
}

func (lm *loggingMiddleware) UploadData(ctx context.Context, req train.UploadData) (resp model.TFLiteModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("model",
				slog.String("name", req.Name),
				slog.String("data_type", req.DataType),
				slog.Int("layers", len(req.LayersSizes)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Upload data failed", args...)

			return
		}
		args = append(args, slog.Int64("id", resp.ID))
		lm.logger.Info("Upload data completed successfully", args...)
	}(time.Now())

	return lm.svc.UploadData(ctx, req)
}

func (lm *loggingMiddleware) UploadModelFile(ctx context.Context, id int64, kind model.FileKind, data []byte) (resp model.TFLiteModel, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("file",
				slog.Int64("model_id", id),
				slog.String("kind", string(kind)),
				slog.Int("size", len(data)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Upload model file failed", args...)

			return
		}
		lm.logger.Info("Upload model file completed successfully", args...)
	}(time.Now())

	return lm.svc.UploadModelFile(ctx, id, kind, data)
}

func (lm *loggingMiddleware) DownloadModelFile(ctx context.Context, id int64, kind model.FileKind) (data []byte, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("file",
				slog.Int64("model_id", id),
				slog.String("kind", string(kind)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Download model file failed", args...)

			return
		}
		lm.logger.Info("Download model file completed successfully", args...)
	}(time.Now())

	return lm.svc.DownloadModelFile(ctx, id, kind)
}

func (lm *loggingMiddleware) PostServerData(ctx context.Context, req train.PostServerData) (resp session.ServerData, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("request",
				slog.Int64("model_id", req.ID),
				slog.Bool("start_fresh", req.StartFresh),
				slog.Bool("require_mlmodel", req.RequireMLModel),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Post server data failed", args...)

			return
		}
		res := []any{slog.String("status", resp.Status)}
		if resp.SessionID != nil {
			res = append(res, slog.Int64("session_id", *resp.SessionID))
		}
		if resp.Port != nil {
			res = append(res, slog.Int64("port", *resp.Port))
		}
		args = append(args, slog.Group("server", res...))
		lm.logger.Info("Post server data completed successfully", args...)
	}(time.Now())

	return lm.svc.PostServerData(ctx, req)
}

func (lm *loggingMiddleware) ListSessions(ctx context.Context, offset, limit uint64) (resp session.SessionPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List sessions failed", args...)

			return
		}
		lm.logger.Info("List sessions completed successfully", args...)
	}(time.Now())

	return lm.svc.ListSessions(ctx, offset, limit)
}

func (lm *loggingMiddleware) ViewSession(ctx context.Context, id int64) (resp session.Session, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.Int64("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("View session failed", args...)

			return
		}
		lm.logger.Info("View session completed successfully", args...)
	}(time.Now())

	return lm.svc.ViewSession(ctx, id)
}

func (lm *loggingMiddleware) EndSession(ctx context.Context, id int64) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.Int64("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("End session failed", args...)

			return
		}
		lm.logger.Info("End session completed successfully", args...)
	}(time.Now())

	return lm.svc.EndSession(ctx, id)
}

func (lm *loggingMiddleware) ReapSessions(ctx context.Context) (n int, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("reaped", n),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Reap sessions failed", args...)

			return
		}
		lm.logger.Debug("Reap sessions completed successfully", args...)
	}(time.Now())

	return lm.svc.ReapSessions(ctx)
}
