package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	CTJSON        string = "application/json"
	trainEndpoint string = "/train"
)

type PageMetadata struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type SDK interface {
	// ListModels lists uploaded models, newest first.
	//
	// example:
	//  page, _ := sdk.ListModels(0, 10)
	//  fmt.Println(page)
	ListModels(offset, limit uint64) (ModelPage, error)

	// ViewModel gets a model by id.
	//
	// example:
	//  model, _ := sdk.ViewModel(1)
	//  fmt.Println(model)
	ViewModel(id int64) (Model, error)

	// AdvertiseData returns the newest model trained on the given data type.
	//
	// example:
	//  model, _ := sdk.AdvertiseData(sdk.AdvertisedData{DataType: "mnist"})
	//  fmt.Println(model.FilePath)
	AdvertiseData(req AdvertisedData) (Model, error)

	// UploadData registers a new model.
	//
	// example:
	//  model, _ := sdk.UploadData(sdk.UploadData{
	//    Name:        "mnist-cnn",
	//    LayersSizes: []int64{1000, 10},
	//    DataType:    "mnist",
	//  })
	UploadData(req UploadData) (Model, error)

	// UploadModelFile attaches a .tflite or .mlmodel file to a model.
	//
	// example:
	//  data, _ := os.ReadFile("mnist.tflite")
	//  model, _ := sdk.UploadModelFile(1, sdk.TFLite, "mnist.tflite", data)
	UploadModelFile(id int64, kind FileKind, filename string, data []byte) (Model, error)

	// DownloadModelFile fetches a model file.
	//
	// example:
	//  data, _ := sdk.DownloadModelFile(1, sdk.TFLite)
	DownloadModelFile(id int64, kind FileKind) ([]byte, error)

	// PostServerData asks the backend for a training session for a model.
	//
	// example:
	//  sd, _ := sdk.PostServerData(sdk.PostServerData{ID: 1})
	//  fmt.Println(sd.Status, sd.Port)
	PostServerData(req PostServerData) (ServerData, error)

	// ListSessions lists training sessions, newest first.
	//
	// example:
	//  page, _ := sdk.ListSessions(0, 10)
	ListSessions(offset, limit uint64) (SessionPage, error)

	// ViewSession gets a training session by id.
	//
	// example:
	//  s, _ := sdk.ViewSession(1)
	ViewSession(id int64) (Session, error)

	// EndSession ends a training session and frees its port.
	//
	// example:
	//  _ = sdk.EndSession(1)
	EndSession(id int64) error
}

// FieldError is a single field-level violation reported by the backend.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is returned for every non-success response.
type Error struct {
	Status  int          `json:"-"`
	Message string       `json:"error"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	fields := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, f.Field+": "+f.Message)
	}

	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(fields, "; "))
}

type fedSDK struct {
	backendURL string
	client     *http.Client
}

type Config struct {
	BackendURL      string
	TLSVerification bool
	Timeout         time.Duration
}

func NewSDK(cfg Config) SDK {
	return &fedSDK{
		backendURL: strings.TrimSuffix(cfg.BackendURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *fedSDK) processRequest(method, reqURL, contentType string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, decodeError(resp.StatusCode, body)
	}

	return body, nil
}

func decodeError(status int, body []byte) error {
	e := &Error{Status: status}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = http.StatusText(status)
	}

	return e
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
