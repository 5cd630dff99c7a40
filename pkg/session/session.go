package session

import "time"

type State string

const (
	Active State = "active"
	Ended  State = "ended"
)

// Training-session availability reported to clients in ServerData.Status.
const (
	StatusNew      = "new"
	StatusStarted  = "started"
	StatusOccupied = "occupied"
)

type Session struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	ModelID    int64      `json:"model_id"`
	Port       int64      `json:"port"`
	StartFresh bool       `json:"start_fresh"`
	State      State      `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func (s Session) IsActive() bool {
	return s.State == Active
}

type SessionPage struct {
	Offset   uint64    `json:"offset"`
	Limit    uint64    `json:"limit"`
	Total    uint64    `json:"total"`
	Sessions []Session `json:"sessions"`
}

// ServerData is a snapshot of training-session availability returned to a
// client. A nil SessionID or Port is serialized as null and means no active
// session or no assigned port.
//
// Always change together with Android HttpClient.ServerData and Dart
// backend_client.ServerData.
type ServerData struct {
	Status    string `json:"status"`
	SessionID *int64 `json:"session_id"`
	Port      *int64 `json:"port"`
}

func Available(s Session, status string) ServerData {
	id, port := s.ID, s.Port

	return ServerData{
		Status:    status,
		SessionID: &id,
		Port:      &port,
	}
}

func Unavailable(status string) ServerData {
	return ServerData{Status: status}
}
