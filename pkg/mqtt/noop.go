package mqtt

import (
	"context"
	"log/slog"
)

type noopPubSub struct {
	logger *slog.Logger
}

// NewNoopPubSub returns a PubSub that drops published messages. It is used
// when no broker address is configured.
func NewNoopPubSub(logger *slog.Logger) PubSub {
	return &noopPubSub{logger: logger}
}

func (n *noopPubSub) Publish(_ context.Context, topic string, _ any) error {
	if topic == "" {
		return errEmptyTopic
	}
	n.logger.Debug("MQTT disabled, dropping message", slog.String("topic", topic))

	return nil
}

func (n *noopPubSub) Subscribe(context.Context, string, Handler) error {
	return nil
}

func (n *noopPubSub) Unsubscribe(context.Context, string) error {
	return nil
}

func (n *noopPubSub) Disconnect(context.Context) error {
	return nil
}
