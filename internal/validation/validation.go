// Package validation wraps a single go-playground/validator instance.
//
// validator caches struct metadata per instance, so the whole application
// shares one. Field names in errors use the json tag ("name", not "Name")
// so messages match what the client sent.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s against its validate:"..." tags. A non-nil error is
// always a validator.ValidationErrors unless s is not a struct.
func Struct(s any) error {
	return validate.Struct(s)
}
