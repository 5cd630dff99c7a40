package train

import (
	"context"
	"errors"
	"log/slog"

	"github.com/absmach/fedkit/pkg/cron"
)

// RunReaper ends timed-out sessions on every activation of schedule until ctx
// is cancelled.
func RunReaper(ctx context.Context, svc Service, schedule string, logger *slog.Logger) error {
	sched, err := cron.ParseCronExpression(schedule)
	if err != nil {
		return err
	}

	err = cron.Run(ctx, sched, func(ctx context.Context) {
		n, err := svc.ReapSessions(ctx)
		if err != nil {
			logger.Error("failed to reap sessions", slog.Any("error", err))
		}
		if n > 0 {
			logger.Info("reaped timed out sessions", slog.Int("count", n))
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
