package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/go-playground/validator/v10"
)

var global *validator.Validate

func init() {
	global = New()
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("fieldtype", validateFieldType)
	return v
}

func Validator() *validator.Validate {
	return global
}

func validateCategory(fl validator.FieldLevel) bool {
	switch models.Category(fl.Field().String()) {
	case models.CategoryWorkshop, models.CategoryCompetition, models.CategoryFest:
		return true
	}
	return false
}

func validateFieldType(fl validator.FieldLevel) bool {
	switch models.FieldType(fl.Field().String()) {
	case models.FieldText, models.FieldEmail, models.FieldNumber, models.FieldSelect, models.FieldCheckbox:
		return true
	}
	return false
}

// FieldError is one failed rule, addressed by the struct namespace.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors collects every failed rule of one struct.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
}

// Validate runs the struct rules and returns Errors, or nil.
func Validate(ctx context.Context, structure any) error {
	err := global.StructCtx(ctx, structure)
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) {
		return err
	}
	out := make(Errors, 0, len(vErrors))
	for _, ve := range vErrors {
		out = append(out, FieldError{Field: ve.Namespace(), Message: message(ve)})
	}
	return out
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return global.Var(s, "required,email") == nil
}

func message(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "field is required"
	case "category":
		return "must be one of workshop, competition, fest"
	case "fieldtype":
		return "must be one of text, email, number, select, checkbox"
	case "gte":
		return "must be at least " + ve.Param()
	case "min":
		return "is below minimum length " + ve.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + ve.Param()
	default:
		return "invalid value"
	}
}
