package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

const modelsEndpoint = trainEndpoint + "/models"

type FileKind string

const (
	TFLite  FileKind = "tflite"
	MLModel FileKind = "mlmodel"
)

// path is the model sub-resource serving files of this kind.
func (k FileKind) path() string {
	if k == MLModel {
		return "/mlmodel"
	}

	return "/file"
}

type Model struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FilePath    string  `json:"file_path"`
	MLModelPath string  `json:"mlmodel_path"`
	LayersSizes []int64 `json:"layers_sizes"`
}

type ModelPage struct {
	PageMetadata
	Total  uint64  `json:"total"`
	Models []Model `json:"models"`
}

type AdvertisedData struct {
	DataType       string `json:"data_type"`
	RequireMLModel bool   `json:"require_mlmodel"`
}

type UploadData struct {
	Name        string  `json:"name"`
	LayersSizes []int64 `json:"layers_sizes"`
	DataType    string  `json:"data_type"`
}

func (sdk *fedSDK) ListModels(offset, limit uint64) (ModelPage, error) {
	url := sdk.backendURL + modelsEndpoint + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, "", nil, http.StatusOK)
	if err != nil {
		return ModelPage{}, err
	}

	var mp ModelPage
	if err := json.Unmarshal(body, &mp); err != nil {
		return ModelPage{}, err
	}

	return mp, nil
}

func (sdk *fedSDK) ViewModel(id int64) (Model, error) {
	url := fmt.Sprintf("%s%s/%d", sdk.backendURL, modelsEndpoint, id)

	body, err := sdk.processRequest(http.MethodGet, url, "", nil, http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	return decodeModel(body)
}

func (sdk *fedSDK) AdvertiseData(req AdvertisedData) (Model, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Model{}, err
	}

	url := sdk.backendURL + trainEndpoint + "/advertised"

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	return decodeModel(body)
}

func (sdk *fedSDK) UploadData(req UploadData) (Model, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Model{}, err
	}

	url := sdk.backendURL + trainEndpoint + "/upload"

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusCreated)
	if err != nil {
		return Model{}, err
	}

	return decodeModel(body)
}

func (sdk *fedSDK) UploadModelFile(id int64, kind FileKind, filename string, data []byte) (Model, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Model{}, err
	}
	if _, err := part.Write(data); err != nil {
		return Model{}, err
	}
	if err := w.Close(); err != nil {
		return Model{}, err
	}

	url := fmt.Sprintf("%s%s/%d%s", sdk.backendURL, modelsEndpoint, id, kind.path())

	body, err := sdk.processRequest(http.MethodPut, url, w.FormDataContentType(), buf.Bytes(), http.StatusOK)
	if err != nil {
		return Model{}, err
	}

	return decodeModel(body)
}

func (sdk *fedSDK) DownloadModelFile(id int64, kind FileKind) ([]byte, error) {
	url := fmt.Sprintf("%s%s/%d%s", sdk.backendURL, modelsEndpoint, id, kind.path())

	return sdk.processRequest(http.MethodGet, url, "", nil, http.StatusOK)
}

func decodeModel(body []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return Model{}, err
	}

	return m, nil
}
