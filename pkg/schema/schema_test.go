package schema_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/absmach/fedkit/pkg/schema"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinderInt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		raw   map[string]any
		value int64
		code  string
	}{
		{desc: "json number", raw: map[string]any{"id": json.Number("42")}, value: 42},
		{desc: "float64 integral", raw: map[string]any{"id": float64(7)}, value: 7},
		{desc: "cbor unsigned", raw: map[string]any{"id": uint64(9)}, value: 9},
		{desc: "cbor negative", raw: map[string]any{"id": int64(-3)}, value: -3},
		{desc: "missing", raw: map[string]any{}, code: schema.CodeRequired},
		{desc: "null", raw: map[string]any{"id": nil}, code: schema.CodeNull},
		{desc: "fractional", raw: map[string]any{"id": json.Number("1.5")}, code: schema.CodeInvalidType},
		{desc: "decimal string", raw: map[string]any{"id": "5"}, value: 5},
		{desc: "padded string", raw: map[string]any{"id": " 12 "}, value: 12},
		{desc: "integral decimal string", raw: map[string]any{"id": "5.0"}, value: 5},
		{desc: "fractional string", raw: map[string]any{"id": "1.5"}, code: schema.CodeInvalidType},
		{desc: "empty string", raw: map[string]any{"id": ""}, code: schema.CodeInvalidType},
		{desc: "word", raw: map[string]any{"id": "five"}, code: schema.CodeInvalidType},
		{desc: "bool", raw: map[string]any{"id": true}, code: schema.CodeInvalidType},
		{desc: "overflow", raw: map[string]any{"id": uint64(1 << 63)}, code: schema.CodeInvalidType},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			b := schema.NewBinder(tc.raw)
			got := b.Int("id")
			if tc.code == "" {
				require.NoError(t, b.Err())
				assert.Equal(t, tc.value, got)

				return
			}
			ve, ok := schema.AsValidationError(b.Err())
			require.True(t, ok)
			assert.True(t, ve.Has("id", tc.code), "expected %s on id, got %v", tc.code, ve.Fields)
		})
	}
}

func TestBinderOptionalInt(t *testing.T) {
	t.Parallel()

	b := schema.NewBinder(map[string]any{"port": nil, "session_id": json.Number("12")})
	assert.Nil(t, b.OptionalInt("port"))
	assert.Nil(t, b.OptionalInt("absent"))
	sid := b.OptionalInt("session_id")
	require.NoError(t, b.Err())
	require.NotNil(t, sid)
	assert.Equal(t, int64(12), *sid)

	b = schema.NewBinder(map[string]any{"port": "80x"})
	assert.Nil(t, b.OptionalInt("port"))
	assert.ErrorIs(t, b.Err(), schema.ErrValidation)
}

func TestBinderBoolDefault(t *testing.T) {
	t.Parallel()

	b := schema.NewBinder(map[string]any{"start_fresh": true})
	assert.True(t, b.Bool("start_fresh", false))
	assert.False(t, b.Bool("require_mlmodel", false))
	require.NoError(t, b.Err())

	b = schema.NewBinder(map[string]any{"start_fresh": "maybe", "require_mlmodel": nil})
	b.Bool("start_fresh", false)
	b.Bool("require_mlmodel", false)
	ve, ok := schema.AsValidationError(b.Err())
	require.True(t, ok)
	assert.True(t, ve.Has("start_fresh", schema.CodeInvalidType))
	assert.True(t, ve.Has("require_mlmodel", schema.CodeNull))
}

func TestBinderBoolCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		value any
		want  bool
		code  string
	}{
		{desc: "string true", value: "true", want: true},
		{desc: "string True", value: "True", want: true},
		{desc: "string yes", value: "yes", want: true},
		{desc: "string on", value: "on", want: true},
		{desc: "string one", value: "1", want: true},
		{desc: "string false", value: "false", want: false},
		{desc: "string off", value: "OFF", want: false},
		{desc: "string zero", value: "0", want: false},
		{desc: "number one", value: json.Number("1"), want: true},
		{desc: "number zero", value: json.Number("0"), want: false},
		{desc: "cbor one", value: uint64(1), want: true},
		{desc: "number two", value: json.Number("2"), code: schema.CodeInvalidType},
		{desc: "unknown word", value: "maybe", code: schema.CodeInvalidType},
		{desc: "list", value: []any{true}, code: schema.CodeInvalidType},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			b := schema.NewBinder(map[string]any{"start_fresh": tc.value})
			got := b.Bool("start_fresh", !tc.want)
			if tc.code == "" {
				require.NoError(t, b.Err())
				assert.Equal(t, tc.want, got)

				return
			}
			ve, ok := schema.AsValidationError(b.Err())
			require.True(t, ok)
			assert.True(t, ve.Has("start_fresh", tc.code), "got %v", ve.Fields)
		})
	}
}

func TestBinderString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc  string
		value any
		want  string
		code  string
	}{
		{desc: "plain", value: "mnist", want: "mnist"},
		{desc: "trimmed", value: "  cifar10 ", want: "cifar10"},
		{desc: "exactly at limit", value: strings.Repeat("a", 256), want: strings.Repeat("a", 256)},
		{desc: "multibyte at limit", value: strings.Repeat("é", 256), want: strings.Repeat("é", 256)},
		{desc: "over limit", value: strings.Repeat("a", 257), code: schema.CodeMaxLength},
		{desc: "blank", value: "   ", code: schema.CodeBlank},
		{desc: "json number", value: json.Number("3"), want: "3"},
		{desc: "float", value: float64(1.5), want: "1.5"},
		{desc: "cbor integer", value: uint64(123), want: "123"},
		{desc: "bool", value: true, code: schema.CodeInvalidType},
		{desc: "list", value: []any{"a"}, code: schema.CodeInvalidType},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			b := schema.NewBinder(map[string]any{"name": tc.value})
			got := b.String("name", 256)
			if tc.code == "" {
				require.NoError(t, b.Err())
				assert.Equal(t, tc.want, got)

				return
			}
			ve, ok := schema.AsValidationError(b.Err())
			require.True(t, ok)
			assert.True(t, ve.Has("name", tc.code), "got %v", ve.Fields)
		})
	}
}

func TestBinderIntListMin(t *testing.T) {
	t.Parallel()

	b := schema.NewBinder(map[string]any{
		"layers_sizes": []any{json.Number("10"), json.Number("0"), json.Number("-1"), "x", nil},
	})
	got := b.IntListMin("layers_sizes", 0)
	assert.Equal(t, []int64{10, 0}, got)

	ve, ok := schema.AsValidationError(b.Err())
	require.True(t, ok)
	assert.True(t, ve.Has("layers_sizes[2]", schema.CodeMinValue))
	assert.True(t, ve.Has("layers_sizes[3]", schema.CodeInvalidType))
	assert.True(t, ve.Has("layers_sizes[4]", schema.CodeNull))
	assert.Len(t, ve.Fields, 3)

	b = schema.NewBinder(map[string]any{"layers_sizes": []any{}})
	assert.Empty(t, b.IntListMin("layers_sizes", 0))
	require.NoError(t, b.Err())

	b = schema.NewBinder(map[string]any{"layers_sizes": "1,2"})
	b.IntList("layers_sizes")
	ve, ok = schema.AsValidationError(b.Err())
	require.True(t, ok)
	assert.True(t, ve.Has("layers_sizes", schema.CodeInvalidType))
}

func TestBinderCollectsAllViolations(t *testing.T) {
	t.Parallel()

	b := schema.NewBinder(map[string]any{"data_type": strings.Repeat("x", 300)})
	b.String("name", 256)
	b.IntListMin("layers_sizes", 0)
	b.String("data_type", 256)

	ve, ok := schema.AsValidationError(b.Err())
	require.True(t, ok)
	require.Len(t, ve.Fields, 3)
	assert.Equal(t, "name", ve.Fields[0].Field)
	assert.Equal(t, "layers_sizes", ve.Fields[1].Field)
	assert.Equal(t, schema.CodeMaxLength, ve.Fields[2].Code)
	assert.Contains(t, ve.Error(), "name: field is required")
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	raw, err := schema.DecodeJSON(strings.NewReader(`{"id": 3, "start_fresh": true}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), raw["id"])
	assert.Equal(t, true, raw["start_fresh"])

	cases := []struct {
		desc    string
		body    string
		valid   bool
		message string
	}{
		{desc: "trailing whitespace", body: "{\"id\": 1} \n\t", valid: true},
		{desc: "array", body: `[1, 2]`, message: "must be an object"},
		{desc: "empty", body: ``, message: "request body is empty"},
		{desc: "truncated", body: `{"id":`},
		{desc: "trailing garbage", body: `{"id": 1} garbage`, message: "unexpected data after JSON value"},
		{desc: "second object", body: `{"id": 1}{"id": 2}`, message: "unexpected data after JSON value"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			raw, err := schema.DecodeJSON(strings.NewReader(tc.body))
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, json.Number("1"), raw["id"])

				return
			}
			assert.ErrorIs(t, err, schema.ErrValidation)
			ve, ok := schema.AsValidationError(err)
			require.True(t, ok)
			require.Len(t, ve.Fields, 1)
			assert.Equal(t, "body", ve.Fields[0].Field)
			if tc.message != "" {
				assert.Equal(t, tc.message, ve.Fields[0].Message)
			}
		})
	}
}

func TestDecodeCBOR(t *testing.T) {
	t.Parallel()

	data, err := cbor.Marshal(map[string]any{
		"name":         "mnist",
		"layers_sizes": []int{10, 20},
		"data_type":    "images",
	})
	require.NoError(t, err)

	raw, err := schema.DecodeCBOR(data)
	require.NoError(t, err)

	b := schema.NewBinder(raw)
	assert.Equal(t, "mnist", b.String("name", 256))
	assert.Equal(t, []int64{10, 20}, b.IntListMin("layers_sizes", 0))
	require.NoError(t, b.Err())

	cases := []struct {
		desc    string
		data    []byte
		message string
	}{
		{desc: "empty", data: nil, message: "request body is empty"},
		{desc: "integer ten", data: []byte{0x0a}, message: "must be an object"},
		{desc: "integer thirty two", data: []byte{0x18, 0x20}, message: "must be an object"},
		{desc: "empty text", data: []byte{0x60}, message: "must be an object"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			_, err := schema.DecodeCBOR(tc.data)
			assert.ErrorIs(t, err, schema.ErrValidation)
			ve, ok := schema.AsValidationError(err)
			require.True(t, ok)
			require.Len(t, ve.Fields, 1)
			assert.Equal(t, tc.message, ve.Fields[0].Message)
		})
	}
}
