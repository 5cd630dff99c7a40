package model

import (
	"fmt"
	"regexp"
	"time"
)

type FileKind string

const (
	// TFLite is the on-device training model.
	TFLite FileKind = "tflite"
	// MLModel is the Core ML companion used by iOS clients.
	MLModel FileKind = "mlmodel"
)

func (k FileKind) Extension() string {
	return "." + string(k)
}

func (k FileKind) Valid() bool {
	return k == TFLite || k == MLModel
}

// TFLiteModel is a persisted model artifact record. Only the contract fields
// are serialized; the Android and Dart clients decode exactly these.
type TFLiteModel struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FilePath    string    `json:"file_path"`
	MLModelPath string    `json:"mlmodel_path"`
	LayersSizes []int64   `json:"layers_sizes"`
	DataType    string    `json:"-"`
	CreatedAt   time.Time `json:"-"`
}

func (m TFLiteModel) HasMLModel() bool {
	return m.MLModelPath != ""
}

// Path returns the path a model file is stored under, relative to the
// artifact store root. Names that slug alike stay apart under their ids.
func (m TFLiteModel) Path(kind FileKind) string {
	return fmt.Sprintf("%d/%s%s", m.ID, Slug(m.Name), kind.Extension())
}

type ModelPage struct {
	Offset uint64        `json:"offset"`
	Limit  uint64        `json:"limit"`
	Total  uint64        `json:"total"`
	Models []TFLiteModel `json:"models"`
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug maps a model name onto a single safe path segment.
func Slug(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}

	return s
}
