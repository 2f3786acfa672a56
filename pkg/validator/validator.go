// Package validator checks the declarative validate tags on request payloads
// (team requests, invite dispatches, profile updates). Failures are reported
// under the JSON field names clients actually sent, so handlers can echo them
// back without translating Go struct names.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is one failed rule on one field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors is every failure found in one payload.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "request validation failed"
	}

	var b strings.Builder
	for i, failure := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(failure.Field)
		b.WriteString(": ")
		b.WriteString(failure.Tag)
		if failure.Param != "" {
			b.WriteString("=")
			b.WriteString(failure.Param)
		}
	}
	return b.String()
}

// ValidateStruct runs the payload's validate tags and returns either nil,
// a ValidationErrors listing every failed field, or the raw error when the
// value could not be validated at all (for example a non-struct).
func ValidateStruct(payload interface{}) error {
	err := shared().Struct(payload)
	if err == nil {
		return nil
	}

	var raw validator.ValidationErrors
	if !errors.As(err, &raw) {
		return err
	}

	failures := make(ValidationErrors, 0, len(raw))
	for _, fe := range raw {
		failures = append(failures, ValidationError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}

var shared = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return v
})

// jsonFieldName reports fields by their json tag, falling back to the Go
// name for untagged or json:"-" fields.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
