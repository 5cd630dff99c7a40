package train

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/absmach/fedkit/pkg/schema"
	"github.com/absmach/fedkit/pkg/session"
)

// MaxFieldLength bounds upload names and data types, in characters.
const MaxFieldLength = 256

// AdvertisedData asks for a model trained on the advertised data type.
type AdvertisedData struct {
	DataType       string `json:"data_type"`
	RequireMLModel bool   `json:"require_mlmodel"`
}

func BindAdvertisedData(raw map[string]any) (AdvertisedData, error) {
	b := schema.NewBinder(raw)
	req := AdvertisedData{
		DataType:       b.String("data_type", 0),
		RequireMLModel: b.Bool("require_mlmodel", false),
	}
	if err := b.Err(); err != nil {
		return AdvertisedData{}, err
	}

	return req, nil
}

func (req AdvertisedData) Validate() error {
	ve := &schema.ValidationError{}
	checkText(ve, "data_type", req.DataType, 0)

	return ve.Err()
}

// PostServerData registers interest in a training session for model ID.
//
// Always change together with Android HttpClient.PostServerData and Dart
// backend_client.PostServerData.
type PostServerData struct {
	ID             int64 `json:"id"`
	StartFresh     bool  `json:"start_fresh"`
	RequireMLModel bool  `json:"require_mlmodel"`
}

func BindPostServerData(raw map[string]any) (PostServerData, error) {
	b := schema.NewBinder(raw)
	req := PostServerData{
		ID:             b.Int("id"),
		StartFresh:     b.Bool("start_fresh", false),
		RequireMLModel: b.Bool("require_mlmodel", false),
	}
	if err := b.Err(); err != nil {
		return PostServerData{}, err
	}

	return req, nil
}

func (req PostServerData) Validate() error {
	ve := &schema.ValidationError{}
	if req.ID <= 0 {
		ve.Add("id", schema.CodeMinValue, "must be a positive integer")
	}

	return ve.Err()
}

// UploadData registers a new model.
type UploadData struct {
	Name        string  `json:"name"`
	LayersSizes []int64 `json:"layers_sizes"`
	DataType    string  `json:"data_type"`
}

func BindUploadData(raw map[string]any) (UploadData, error) {
	b := schema.NewBinder(raw)
	req := UploadData{
		Name:        b.String("name", MaxFieldLength),
		LayersSizes: b.IntListMin("layers_sizes", 0),
		DataType:    b.String("data_type", MaxFieldLength),
	}
	if err := b.Err(); err != nil {
		return UploadData{}, err
	}

	return req, nil
}

func (req UploadData) Validate() error {
	ve := &schema.ValidationError{}
	checkText(ve, "name", req.Name, MaxFieldLength)
	for i, size := range req.LayersSizes {
		if size < 0 {
			ve.Add(fmt.Sprintf("layers_sizes[%d]", i), schema.CodeMinValue, "must be greater than or equal to 0")
		}
	}
	checkText(ve, "data_type", req.DataType, MaxFieldLength)

	return ve.Err()
}

// BindServerData decodes a ServerData payload. Null session_id and port are
// preserved as nil.
func BindServerData(raw map[string]any) (session.ServerData, error) {
	b := schema.NewBinder(raw)
	sd := session.ServerData{
		Status:    b.String("status", 0),
		SessionID: b.OptionalInt("session_id"),
		Port:      b.OptionalInt("port"),
	}
	if err := b.Err(); err != nil {
		return session.ServerData{}, err
	}

	return sd, nil
}

func checkText(ve *schema.ValidationError, field, value string, maxLen int) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		ve.Add(field, schema.CodeBlank, "may not be blank")
	case maxLen > 0 && utf8.RuneCountInString(value) > maxLen:
		ve.Add(field, schema.CodeMaxLength, fmt.Sprintf("must be at most %d characters", maxLen))
	}
}
