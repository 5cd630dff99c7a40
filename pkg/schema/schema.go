// Package schema binds loosely typed request payloads, decoded from JSON or
// CBOR into a field map, to typed values while collecting every field-level
// violation instead of stopping at the first one.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// integralDecimal matches the zero fraction of strings such as "5.0".
var integralDecimal = regexp.MustCompile(`\.0*\s*$`)

var (
	trueStrings  = []string{"t", "y", "yes", "true", "on", "1"}
	falseStrings = []string{"f", "n", "no", "false", "off", "0"}
)

// Binder reads typed fields from a raw payload. Violations accumulate and are
// returned together by Err.
type Binder struct {
	raw  map[string]any
	errs ValidationError
}

func NewBinder(raw map[string]any) *Binder {
	if raw == nil {
		raw = map[string]any{}
	}

	return &Binder{raw: raw}
}

// Err returns a *ValidationError listing all violations, or nil.
func (b *Binder) Err() error {
	return b.errs.Err()
}

// Int reads a required integer.
func (b *Binder) Int(field string) int64 {
	v, ok := b.present(field)
	if !ok {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		b.errs.Add(field, CodeInvalidType, "must be an integer")

		return 0
	}

	return n
}

// OptionalInt reads an integer that may be omitted or explicitly null; both
// yield nil.
func (b *Binder) OptionalInt(field string) *int64 {
	v, ok := b.raw[field]
	if !ok || v == nil {
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		b.errs.Add(field, CodeInvalidType, "must be an integer or null")

		return nil
	}

	return &n
}

// Bool reads a boolean, returning def when the field is omitted. The
// strings "true"/"false", "yes"/"no", "on"/"off", "1"/"0" (and their
// initials) and the numbers 1 and 0 are accepted as well.
func (b *Binder) Bool(field string, def bool) bool {
	v, ok := b.raw[field]
	if !ok {
		return def
	}
	if v == nil {
		b.errs.Add(field, CodeNull, "may not be null")

		return def
	}
	bv, ok := toBool(v)
	if !ok {
		b.errs.Add(field, CodeInvalidType, "must be a boolean")

		return def
	}

	return bv
}

// String reads a required, non-blank string. Numbers are accepted in their
// decimal form. Surrounding whitespace is trimmed. A positive maxLen bounds
// the length in characters.
func (b *Binder) String(field string, maxLen int) string {
	v, ok := b.present(field)
	if !ok {
		return ""
	}
	s, ok := toString(v)
	if !ok {
		b.errs.Add(field, CodeInvalidType, "must be a string")

		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		b.errs.Add(field, CodeBlank, "may not be blank")

		return ""
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		b.errs.Add(field, CodeMaxLength, fmt.Sprintf("must be at most %d characters", maxLen))

		return s
	}

	return s
}

// IntList reads a required list of integers.
func (b *Binder) IntList(field string) []int64 {
	return b.intList(field, nil)
}

// IntListMin reads a required list of integers, each at least minValue.
func (b *Binder) IntListMin(field string, minValue int64) []int64 {
	return b.intList(field, &minValue)
}

func (b *Binder) intList(field string, minValue *int64) []int64 {
	v, ok := b.present(field)
	if !ok {
		return nil
	}
	items, ok := toList(v)
	if !ok {
		b.errs.Add(field, CodeInvalidType, "must be a list of integers")

		return nil
	}

	list := make([]int64, 0, len(items))
	for i, item := range items {
		name := fmt.Sprintf("%s[%d]", field, i)
		if item == nil {
			b.errs.Add(name, CodeNull, "may not be null")

			continue
		}
		n, ok := toInt(item)
		if !ok {
			b.errs.Add(name, CodeInvalidType, "must be an integer")

			continue
		}
		if minValue != nil && n < *minValue {
			b.errs.Add(name, CodeMinValue, fmt.Sprintf("must be greater than or equal to %d", *minValue))

			continue
		}
		list = append(list, n)
	}

	return list
}

func (b *Binder) present(field string) (any, bool) {
	v, ok := b.raw[field]
	switch {
	case !ok:
		b.errs.Add(field, CodeRequired, "field is required")

		return nil, false
	case v == nil:
		b.errs.Add(field, CodeNull, "may not be null")

		return nil, false
	default:
		return v, true
	}
}

// toInt accepts the integer representations produced by encoding/json (with
// or without UseNumber) and by CBOR decoding, plus decimal strings. Floats
// and strings must be integral.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(integralDecimal.ReplaceAllString(n, "")), 10, 64)
		if err != nil {
			return 0, false
		}

		return i, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}

		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt(n)
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		for _, ts := range trueStrings {
			if s == ts {
				return true, true
			}
		}
		for _, fs := range falseStrings {
			if s == fs {
				return false, true
			}
		}

		return false, false
	}

	n, ok := toInt(v)
	switch {
	case !ok:
		return false, false
	case n == 1:
		return true, true
	case n == 0:
		return false, true
	default:
		return false, false
	}
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case bool:
		return "", false
	}

	if n, ok := toInt(v); ok {
		return strconv.FormatInt(n, 10), true
	}

	return "", false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}

	return int64(f), true
}

func uintToInt(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}

	return int64(u), true
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []int64:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}

		return out, true
	case []int:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}

		return out, true
	default:
		return nil, false
	}
}
