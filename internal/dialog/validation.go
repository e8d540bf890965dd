package dialog

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

// FieldErrors maps a field path (json names, e.g. "claim_items[0].quantity") to a message.
type FieldErrors map[string]string

// ValidationError is returned when a submitted record fails client-side validation.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid record: " + strings.Join(parts, "; ")
}

// Unwrap lets callers classify the error as a validation AppError.
func (e *ValidationError) Unwrap() error {
	return apperrors.NewValidationError("invalid record")
}

// Validator checks records against their struct tags and cross-field rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator reporting fields by their json names.
func NewValidator() *Validator {
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
	return &Validator{validate: v}
}

// Check returns the field errors of record, or nil when it is valid.
func (v *Validator) Check(record any) FieldErrors {
	problems := FieldErrors{}

	if err := v.validate.Struct(record); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			problems["_"] = err.Error()
			return problems
		}
		for _, fe := range verrs {
			field := fieldPath(fe)
			if _, seen := problems[field]; !seen {
				problems[field] = message(fe)
			}
		}
	}

	if rc, ok := record.(entities.RuleChecker); ok {
		for field, msg := range rc.CheckRules() {
			if _, seen := problems[field]; !seen {
				problems[field] = msg
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// fieldPath drops the struct name from the namespace: "Claim.claim_items[0].quantity" -> "claim_items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when the other language is empty"
	case "required_with":
		return "is required together with the first name"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("needs at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
