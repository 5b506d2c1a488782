// Package validation wraps go-playground/validator and turns its failures into
// field-level domain errors.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	dErrors "smartparking/pkg/domain-errors"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9-]{2,50}$`)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate validates a struct using struct tags and returns a CodeValidation
// domain error naming the first failing field.
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		field, reason := describe(err)
		return dErrors.Validation(field, reason)
	}
	return nil
}

// Email reports whether value is a syntactically valid email address.
func Email(value string) bool {
	return defaultValidator.Var(value, "required,email,max=254") == nil
}

// Slug reports whether value is a 2-50 character slug of letters, digits and hyphens.
func Slug(value string) bool {
	return slugPattern.MatchString(value)
}

func describe(err error) (string, string) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "body", "is invalid"
	}

	fe := validationErrs[0]
	fieldName := fe.Field()
	if fieldName == "" {
		fieldName = fe.StructField()
	}
	field := snakeCase(fieldName)

	switch fe.ActualTag() {
	case "required", "required_without":
		return field, "is required"
	case "email":
		return field, "must be a valid email"
	case "uuid", "uuid4":
		return field, "must be a valid uuid"
	case "min":
		return field, "must be at least " + fe.Param() + " characters"
	case "max":
		return field, "must be at most " + fe.Param() + " characters"
	case "oneof":
		return field, "must be one of [" + fe.Param() + "]"
	case "notblank":
		return field, "must not be blank"
	case "slug":
		return field, "must be 2-50 letters, digits or hyphens"
	default:
		return field, "is invalid"
	}
}

// snakeCase maps Go field names such as TenantID onto tenant_id.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
