// Package validation holds the request validation rules shared by the HTTP
// layer, built on go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

var shared = sync.OnceValue(NewValidator)

// GetValidator returns the process wide validator.
func GetValidator() *Validator {
	return shared()
}

// NewValidator registers the domain rules and reports fields by their wire
// names (json, then query, then form tag).
func NewValidator() *Validator {
	v := validator.New()
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.check); err != nil {
			panic(fmt.Sprintf("validation: register %s: %v", r.tag, err))
		}
	}
	v.RegisterTagNameFunc(wireName)
	return &Validator{validate: v}
}

func wireName(fld reflect.StructField) string {
	for _, key := range []string{"json", "query", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

// Struct validates s and returns validator.ValidationErrors on failure.
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Validate satisfies echo.Validator.
func (v *Validator) Validate(i any) error {
	return v.Struct(i)
}

// FormatErrors turns validation failures into "field: message" lines.
func FormatErrors(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = fe.Field() + ": " + describe(fe)
	}
	return out
}

// HasTag reports whether any field failed the given rule.
func HasTag(err error, tag string) bool {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
