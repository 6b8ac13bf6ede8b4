// Package validate wraps go-playground/validator so that failures come back
// in the field→message shape the upstream API uses for field_errors.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Validator checks struct tags and reports errors keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields after their json tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s. It returns nil when s is valid.
func (v *Validator) Struct(s any) map[string]string {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"non_field_errors": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		if _, seen := out[field]; !seen {
			out[field] = message(fe)
		}
	}
	return out
}

// fieldPath drops the top-level struct name: "LegalAddress.city" style
// namespaces become "legal_address.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Select at least %s.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Select one of: %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "alphanum":
		return "Only letters and digits are allowed."
	case "gtfield":
		return "Must be after " + snakeCase(fe.Param()) + "."
	case "iso3166_1_alpha2":
		return "Enter a valid two-letter country code."
	default:
		return "Invalid value."
	}
}

// snakeCase turns a Go field name such as ActivationDate into activation_date.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
