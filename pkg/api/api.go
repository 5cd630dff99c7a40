package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/schema"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 10

	ContentType      = "application/json"
	CBORContentType  = "application/cbor"
	OctetContentType = "application/octet-stream"

	MaxLimitSize = 100
)

// ErrorRes is the body of every error response. Fields is set only for
// field-level validation failures.
type ErrorRes struct {
	Error  string              `json:"error"`
	Fields []schema.FieldError `json:"fields,omitempty"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)

	res := ErrorRes{Error: message(err)}
	if ve, ok := schema.AsValidationError(err); ok {
		res = ErrorRes{Error: schema.ErrValidation.Error(), Fields: ve.Fields}
	}

	switch {
	case errors.Is(err, apiutil.ErrUnsupportedContentType):
		w.WriteHeader(http.StatusUnsupportedMediaType)
	case errors.Is(err, schema.ErrValidation),
		errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, pkgerrors.ErrEntityExists),
		errors.Is(err, pkgerrors.ErrConflict):
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
		res = ErrorRes{Error: http.StatusText(http.StatusInternalServerError)}
	}

	if err := json.NewEncoder(w).Encode(res); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// message flattens joined errors onto a single line.
func message(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}
