package mqtt_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/absmach/fedkit/pkg/mqtt"
	"github.com/stretchr/testify/assert"
)

func TestNoopPubSub(t *testing.T) {
	ps := mqtt.NewNoopPubSub(slog.Default())
	ctx := context.Background()

	assert.NoError(t, ps.Publish(ctx, "fedkit/sessions/started", map[string]any{"session_id": 1}))
	assert.Error(t, ps.Publish(ctx, "", nil))
	assert.NoError(t, ps.Subscribe(ctx, "fedkit/sessions/#", func(string, map[string]any) error { return nil }))
	assert.NoError(t, ps.Unsubscribe(ctx, "fedkit/sessions/#"))
	assert.NoError(t, ps.Disconnect(ctx))
}

func TestStatusTopic(t *testing.T) {
	assert.Equal(t, "fedkit/backend/b1/status", mqtt.StatusTopic("fedkit", "b1"))
}
