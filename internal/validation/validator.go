package validation

import (
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

func NewValidator() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	register(validate)
	return validate, nil
}

func register(instance *validator.Validate) {
	// register function to get tag name from json tags, falling back to mapstructure tags
	instance.RegisterTagNameFunc(
		func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "" {
				tag = fld.Tag.Get("mapstructure")
			}
			name := strings.SplitN(tag, ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		},
	)
}
