package schema

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

const bodyField = "body"

var cborDecMode cbor.DecMode

func init() {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	cborDecMode = dm
}

// DecodeJSON decodes a JSON object into a field map. Numbers are kept as
// json.Number so integer fields are not silently truncated.
func DecodeJSON(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, bodyError("request body is empty")
		}

		return nil, bodyError("malformed JSON: " + err.Error())
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, bodyError("unexpected data after JSON value")
	}

	return asObject(raw)
}

// DecodeCBOR decodes a CBOR map into a field map.
func DecodeCBOR(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, bodyError("request body is empty")
	}

	var raw any
	if err := cborDecMode.Unmarshal(data, &raw); err != nil {
		return nil, bodyError("malformed CBOR: " + err.Error())
	}

	return asObject(raw)
}

func asObject(raw any) (map[string]any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, bodyError("must be an object")
	}

	return obj, nil
}

func bodyError(msg string) error {
	ve := &ValidationError{}
	ve.Add(bodyField, CodeInvalid, msg)

	return ve
}
