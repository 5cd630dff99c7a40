package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// Constraint codes reported in FieldError.Code.
const (
	CodeRequired    = "required"
	CodeNull        = "null"
	CodeBlank       = "blank"
	CodeInvalidType = "invalid_type"
	CodeMaxLength   = "max_length"
	CodeMinValue    = "min_value"
	CodeInvalid     = "invalid"
)

// FieldError describes a single violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (fe FieldError) Error() string {
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// ValidationError enumerates every field that failed validation, in the
// order the fields were checked.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (ve *ValidationError) Error() string {
	msgs := make([]string, len(ve.Fields))
	for i, fe := range ve.Fields {
		msgs[i] = fe.Error()
	}

	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (ve *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add records a violation.
func (ve *ValidationError) Add(field, code, message string) {
	ve.Fields = append(ve.Fields, FieldError{
		Field:   field,
		Code:    code,
		Message: message,
	})
}

// Has reports whether field violated the constraint identified by code.
func (ve *ValidationError) Has(field, code string) bool {
	for _, fe := range ve.Fields {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}

	return false
}

// Err returns nil when nothing was recorded.
func (ve *ValidationError) Err() error {
	if ve == nil || len(ve.Fields) == 0 {
		return nil
	}

	return ve
}

// AsValidationError extracts the field list from err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}

	return nil, false
}
