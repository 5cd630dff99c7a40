package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgapi "github.com/absmach/fedkit/pkg/api"
	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/schema"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/fedkit/train"
	"github.com/absmach/fedkit/train/api"
	"github.com/absmach/fedkit/train/mocks"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testModel = model.TFLiteModel{
	ID:          1,
	Name:        "mnist",
	FilePath:    "1/mnist.tflite",
	LayersSizes: []int64{1000, 10},
	DataType:    "images",
}

type testRequest struct {
	method      string
	url         string
	contentType string
	body        io.Reader
}

func (tr testRequest) do(t *testing.T, ts *httptest.Server) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), tr.method, ts.URL+tr.url, tr.body)
	require.NoError(t, err)
	if tr.contentType != "" {
		req.Header.Set("Content-Type", tr.contentType)
	}
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })

	return res
}

func newServer(t *testing.T) (*httptest.Server, *mocks.MockService) {
	t.Helper()

	svc := new(mocks.MockService)
	ts := httptest.NewServer(api.MakeHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), "test"))
	t.Cleanup(ts.Close)

	return ts, svc
}

func decodeError(t *testing.T, res *http.Response) pkgapi.ErrorRes {
	t.Helper()

	var body pkgapi.ErrorRes
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	return body
}

func TestPostServerData(t *testing.T) {
	port, sid := int64(8080), int64(3)

	cases := []struct {
		desc        string
		contentType string
		body        string
		req         train.PostServerData
		res         session.ServerData
		svcErr      error
		status      int
		response    string
		fields      []string
	}{
		{
			desc:        "new session",
			contentType: "application/json",
			body:        `{"id": 1}`,
			req:         train.PostServerData{ID: 1},
			res:         session.ServerData{Status: session.StatusNew, SessionID: &sid, Port: &port},
			status:      http.StatusOK,
			response:    `{"status":"new","session_id":3,"port":8080}`,
		},
		{
			desc:        "occupied emits nulls",
			contentType: "application/json; charset=utf-8",
			body:        `{"id": 1, "start_fresh": true, "require_mlmodel": false}`,
			req:         train.PostServerData{ID: 1, StartFresh: true},
			res:         session.ServerData{Status: session.StatusOccupied},
			status:      http.StatusOK,
			response:    `{"status":"occupied","session_id":null,"port":null}`,
		},
		{
			desc:        "missing id",
			contentType: "application/json",
			body:        `{"start_fresh": true}`,
			status:      http.StatusBadRequest,
			fields:      []string{"id"},
		},
		{
			desc:        "zero id",
			contentType: "application/json",
			body:        `{"id": 0}`,
			status:      http.StatusBadRequest,
			fields:      []string{"id"},
		},
		{
			desc:        "negative string id",
			contentType: "application/json",
			body:        `{"id": "-4"}`,
			status:      http.StatusBadRequest,
			fields:      []string{"id"},
		},
		{
			desc:        "every bad field reported",
			contentType: "application/json",
			body:        `{"id": 1.5, "start_fresh": "maybe", "require_mlmodel": null}`,
			status:      http.StatusBadRequest,
			fields:      []string{"id", "start_fresh", "require_mlmodel"},
		},
		{
			desc:        "malformed body",
			contentType: "application/json",
			body:        `{"id":`,
			status:      http.StatusBadRequest,
			fields:      []string{"body"},
		},
		{
			desc:        "unsupported content type",
			contentType: "text/plain",
			body:        `id=1`,
			status:      http.StatusUnsupportedMediaType,
		},
		{
			desc:        "unknown model",
			contentType: "application/json",
			body:        `{"id": 9}`,
			req:         train.PostServerData{ID: 9},
			svcErr:      pkgerrors.ErrNotFound,
			status:      http.StatusNotFound,
		},
		{
			desc:        "Core ML companion missing",
			contentType: "application/json",
			body:        `{"id": 1, "require_mlmodel": true}`,
			req:         train.PostServerData{ID: 1, RequireMLModel: true},
			svcErr:      train.ErrMLModelUnavailable,
			status:      http.StatusConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ts, svc := newServer(t)
			svc.On("PostServerData", mock.Anything, tc.req).Return(tc.res, tc.svcErr)

			res := testRequest{
				method:      http.MethodPost,
				url:         "/train/server",
				contentType: tc.contentType,
				body:        strings.NewReader(tc.body),
			}.do(t, ts)
			assert.Equal(t, tc.status, res.StatusCode)

			switch {
			case tc.response != "":
				data, err := io.ReadAll(res.Body)
				require.NoError(t, err)
				assert.JSONEq(t, tc.response, string(data))
			case len(tc.fields) > 0:
				body := decodeError(t, res)
				assert.Equal(t, "validation failed", body.Error)
				fields := make([]string, len(body.Fields))
				for i, fe := range body.Fields {
					fields[i] = fe.Field
				}
				assert.Equal(t, tc.fields, fields)
				svc.AssertNotCalled(t, "PostServerData", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUploadData(t *testing.T) {
	cborBody, err := cbor.Marshal(map[string]any{
		"name":         "mnist",
		"layers_sizes": []int{1000, 10},
		"data_type":    "images",
	})
	require.NoError(t, err)

	cases := []struct {
		desc        string
		contentType string
		body        []byte
		status      int
		codes       map[string]string
	}{
		{
			desc:        "json upload",
			contentType: "application/json",
			body:        []byte(`{"name": "mnist", "layers_sizes": [1000, 10], "data_type": "images"}`),
			status:      http.StatusCreated,
		},
		{
			desc:        "cbor upload",
			contentType: "application/cbor",
			body:        cborBody,
			status:      http.StatusCreated,
		},
		{
			desc:        "negative layer size",
			contentType: "application/json",
			body:        []byte(`{"name": "mnist", "layers_sizes": [1000, -1], "data_type": "images"}`),
			status:      http.StatusBadRequest,
			codes:       map[string]string{"layers_sizes[1]": schema.CodeMinValue},
		},
		{
			desc:        "name too long",
			contentType: "application/json",
			body:        []byte(fmt.Sprintf(`{"name": %q, "layers_sizes": [], "data_type": "images"}`, strings.Repeat("n", 257))),
			status:      http.StatusBadRequest,
			codes:       map[string]string{"name": schema.CodeMaxLength},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ts, svc := newServer(t)
			svc.On("UploadData", mock.Anything, train.UploadData{
				Name:        "mnist",
				LayersSizes: []int64{1000, 10},
				DataType:    "images",
			}).Return(testModel, nil)

			res := testRequest{
				method:      http.MethodPost,
				url:         "/train/upload",
				contentType: tc.contentType,
				body:        bytes.NewReader(tc.body),
			}.do(t, ts)
			assert.Equal(t, tc.status, res.StatusCode)

			if tc.status == http.StatusCreated {
				assert.Equal(t, "/train/models/1", res.Header.Get("Location"))
				var got map[string]any
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				assert.ElementsMatch(t, []string{"id", "name", "file_path", "mlmodel_path", "layers_sizes"}, keys(got))

				return
			}
			body := decodeError(t, res)
			for field, code := range tc.codes {
				found := false
				for _, fe := range body.Fields {
					if fe.Field == field && fe.Code == code {
						found = true
					}
				}
				assert.True(t, found, "expected %s on %s, got %v", code, field, body.Fields)
			}
		})
	}
}

func TestAdvertiseData(t *testing.T) {
	ts, svc := newServer(t)
	svc.On("AdvertiseData", mock.Anything, train.AdvertisedData{DataType: "images"}).Return(testModel, nil)
	svc.On("AdvertiseData", mock.Anything, train.AdvertisedData{DataType: "audio", RequireMLModel: true}).Return(model.TFLiteModel{}, pkgerrors.ErrNotFound)

	res := testRequest{method: http.MethodPost, url: "/train/advertised", contentType: "application/json", body: strings.NewReader(`{"data_type": "images"}`)}.do(t, ts)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var got model.TFLiteModel
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, testModel.ID, got.ID)

	res = testRequest{method: http.MethodPost, url: "/train/advertised", contentType: "application/json", body: strings.NewReader(`{"data_type": "audio", "require_mlmodel": true}`)}.do(t, ts)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestListModels(t *testing.T) {
	cases := []struct {
		desc   string
		query  string
		offset uint64
		limit  uint64
		status int
	}{
		{desc: "defaults", query: "", offset: 0, limit: 10, status: http.StatusOK},
		{desc: "explicit page", query: "?offset=5&limit=20", offset: 5, limit: 20, status: http.StatusOK},
		{desc: "limit too large", query: "?limit=1000", status: http.StatusBadRequest},
		{desc: "invalid offset", query: "?offset=abc", status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ts, svc := newServer(t)
			svc.On("ListModels", mock.Anything, tc.offset, tc.limit).Return(model.ModelPage{
				Offset: tc.offset,
				Limit:  tc.limit,
				Total:  1,
				Models: []model.TFLiteModel{testModel},
			}, nil)

			res := testRequest{method: http.MethodGet, url: "/train/models" + tc.query}.do(t, ts)
			assert.Equal(t, tc.status, res.StatusCode)
			if tc.status != http.StatusOK {
				svc.AssertNotCalled(t, "ListModels", mock.Anything, mock.Anything, mock.Anything)

				return
			}
			var page model.ModelPage
			require.NoError(t, json.NewDecoder(res.Body).Decode(&page))
			assert.Equal(t, uint64(1), page.Total)
			require.Len(t, page.Models, 1)
			assert.Equal(t, testModel.Name, page.Models[0].Name)
		})
	}
}

func TestViewModel(t *testing.T) {
	ts, svc := newServer(t)
	svc.On("ViewModel", mock.Anything, int64(1)).Return(testModel, nil)
	svc.On("ViewModel", mock.Anything, int64(2)).Return(model.TFLiteModel{}, pkgerrors.ErrNotFound)

	res := testRequest{method: http.MethodGet, url: "/train/models/1"}.do(t, ts)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = testRequest{method: http.MethodGet, url: "/train/models/2"}.do(t, ts)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = testRequest{method: http.MethodGet, url: "/train/models/abc"}.do(t, ts)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	body := decodeError(t, res)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "id", body.Fields[0].Field)
}

func multipartBody(t *testing.T, filename string, data []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestModelFiles(t *testing.T) {
	ts, svc := newServer(t)
	withCompanion := testModel
	withCompanion.MLModelPath = "1/mnist.mlmodel"
	svc.On("UploadModelFile", mock.Anything, int64(1), model.MLModel, []byte("coreml")).Return(withCompanion, nil)
	svc.On("DownloadModelFile", mock.Anything, int64(1), model.TFLite).Return([]byte("tflite"), nil)
	svc.On("DownloadModelFile", mock.Anything, int64(1), model.MLModel).Return(nil, pkgerrors.ErrNotFound)

	body, contentType := multipartBody(t, "mnist.mlmodel", []byte("coreml"))
	res := testRequest{method: http.MethodPut, url: "/train/models/1/mlmodel", contentType: contentType, body: body}.do(t, ts)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var got model.TFLiteModel
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "1/mnist.mlmodel", got.MLModelPath)

	body, contentType = multipartBody(t, "mnist.onnx", []byte("onnx"))
	res = testRequest{method: http.MethodPut, url: "/train/models/1/file", contentType: contentType, body: body}.do(t, ts)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	errBody := decodeError(t, res)
	require.Len(t, errBody.Fields, 1)
	assert.Equal(t, "file", errBody.Fields[0].Field)

	res = testRequest{method: http.MethodGet, url: "/train/models/1/file"}.do(t, ts)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/octet-stream", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "model-1.tflite")
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("tflite"), data)

	res = testRequest{method: http.MethodGet, url: "/train/models/1/mlmodel"}.do(t, ts)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSessions(t *testing.T) {
	ts, svc := newServer(t)
	s := session.Session{ID: 4, Name: "brave-turing", ModelID: 1, Port: 8080, State: session.Active}
	svc.On("ListSessions", mock.Anything, uint64(0), uint64(10)).Return(session.SessionPage{Limit: 10, Total: 1, Sessions: []session.Session{s}}, nil)
	svc.On("ViewSession", mock.Anything, int64(4)).Return(s, nil)
	svc.On("EndSession", mock.Anything, int64(4)).Return(nil)
	svc.On("EndSession", mock.Anything, int64(5)).Return(pkgerrors.ErrNotFound)

	res := testRequest{method: http.MethodGet, url: "/train/sessions"}.do(t, ts)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var page session.SessionPage
	require.NoError(t, json.NewDecoder(res.Body).Decode(&page))
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, s.Name, page.Sessions[0].Name)

	res = testRequest{method: http.MethodGet, url: "/train/sessions/4"}.do(t, ts)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = testRequest{method: http.MethodDelete, url: "/train/sessions/4"}.do(t, ts)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = testRequest{method: http.MethodDelete, url: "/train/sessions/5"}.do(t, ts)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHealth(t *testing.T) {
	ts, _ := newServer(t)

	res := testRequest{method: http.MethodGet, url: "/health"}.do(t, ts)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
