package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "oneof":
		return fmt.Sprintf("%s has an invalid value", e.Field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", e.Field)
	case "min", "max":
		return fmt.Sprintf("%s is out of range", e.Field)
	default:
		return fmt.Sprintf("%s failed validation (%s)", e.Field, e.Tag)
	}
}

// ValidationErrors aggregates all invalid fields from one Validate call.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

var validate = validator.New()

// Validate checks struct tags on the resolved config.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field: strings.TrimPrefix(fe.Namespace(), "Config."),
			Tag:   fe.Tag(),
		})
	}
	return out
}
