package train

import (
	"context"
	"fmt"
	"time"

	"github.com/absmach/fedkit/pkg/session"
)

const (
	EventStarted = "started"
	EventEnded   = "ended"

	sessionTopicTemplate = "%s/sessions/%s"
)

// SessionEvent is published whenever a training session starts or ends.
// Training servers subscribe to these to bind and release ports.
type SessionEvent struct {
	Event      string    `json:"event"`
	SessionID  int64     `json:"session_id"`
	ModelID    int64     `json:"model_id"`
	Name       string    `json:"name"`
	Port       int64     `json:"port"`
	StartFresh bool      `json:"start_fresh"`
	Timestamp  time.Time `json:"timestamp"`
}

func SessionTopic(prefix, event string) string {
	return fmt.Sprintf(sessionTopicTemplate, prefix, event)
}

func (svc *service) publish(ctx context.Context, event string, s session.Session) error {
	return svc.publisher.Publish(ctx, SessionTopic(svc.cfg.TopicPrefix, event), SessionEvent{
		Event:      event,
		SessionID:  s.ID,
		ModelID:    s.ModelID,
		Name:       s.Name,
		Port:       s.Port,
		StartFresh: s.StartFresh,
		Timestamp:  time.Now().UTC(),
	})
}
