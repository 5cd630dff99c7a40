package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const sessionsEndpoint = trainEndpoint + "/sessions"

type PostServerData struct {
	ID             int64 `json:"id"`
	StartFresh     bool  `json:"start_fresh"`
	RequireMLModel bool  `json:"require_mlmodel"`
}

// ServerData reports training-session availability. SessionID and Port are
// nil unless Status is "new" or "started".
type ServerData struct {
	Status    string `json:"status"`
	SessionID *int64 `json:"session_id"`
	Port      *int64 `json:"port"`
}

type Session struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	ModelID    int64      `json:"model_id"`
	Port       int64      `json:"port"`
	StartFresh bool       `json:"start_fresh"`
	State      string     `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

type SessionPage struct {
	PageMetadata
	Total    uint64    `json:"total"`
	Sessions []Session `json:"sessions"`
}

func (sdk *fedSDK) PostServerData(req PostServerData) (ServerData, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return ServerData{}, err
	}

	url := sdk.backendURL + trainEndpoint + "/server"

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusOK)
	if err != nil {
		return ServerData{}, err
	}

	var sd ServerData
	if err := json.Unmarshal(body, &sd); err != nil {
		return ServerData{}, err
	}

	return sd, nil
}

func (sdk *fedSDK) ListSessions(offset, limit uint64) (SessionPage, error) {
	url := sdk.backendURL + sessionsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, "", nil, http.StatusOK)
	if err != nil {
		return SessionPage{}, err
	}

	var sp SessionPage
	if err := json.Unmarshal(body, &sp); err != nil {
		return SessionPage{}, err
	}

	return sp, nil
}

func (sdk *fedSDK) ViewSession(id int64) (Session, error) {
	url := fmt.Sprintf("%s%s/%d", sdk.backendURL, sessionsEndpoint, id)

	body, err := sdk.processRequest(http.MethodGet, url, "", nil, http.StatusOK)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *fedSDK) EndSession(id int64) error {
	url := fmt.Sprintf("%s%s/%d", sdk.backendURL, sessionsEndpoint, id)

	if _, err := sdk.processRequest(http.MethodDelete, url, "", nil, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}
