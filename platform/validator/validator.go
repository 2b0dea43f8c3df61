// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"

	"talent_intake_backend/platform/phone"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the shared custom rules registered:
//
//	ukphone    10-11 digits forming a possible GB number
//	ukpostcode 5-8 characters of A-Z, 0-9 and a single space
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("ukphone", func(fl validator.FieldLevel) bool {
		return phone.IsPossibleUK(fl.Field().String())
	})
	_ = v.RegisterValidation("ukpostcode", func(fl validator.FieldLevel) bool {
		return isPostcodeShape(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// FieldErrors flattens validator errors into field -> rule pairs for API responses.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fe := range verrs {
		out[lowerFirst(fe.Field())] = fe.Tag()
	}
	return out
}

func isPostcodeShape(value string) bool {
	if len(value) < 5 || len(value) > 8 {
		return false
	}
	if strings.Count(value, " ") > 1 {
		return false
	}
	for _, r := range value {
		if r == ' ' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
