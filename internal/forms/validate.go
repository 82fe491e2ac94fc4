package forms

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/validation"
)

const msgRequired = "This field is required"

// FieldErrors maps submitted keys to a message for the registrant.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e[k]
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// Validate checks every field of the form against the submission. Keys that
// do not belong to the form are left to Normalize.
func Validate(form Form, raw map[string]models.Value) error {
	errs := FieldErrors{}
	for _, field := range form.Fields {
		key := form.Key(field)
		v, present := raw[key]
		if msg := checkField(field, v, present); msg != "" {
			errs[key] = msg
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkField(field models.FieldDefinition, v models.Value, present bool) string {
	if field.Type == models.FieldCheckbox {
		if !present {
			if field.Required {
				return msgRequired
			}
			return ""
		}
		checked, ok := v.Boolean()
		if !ok {
			return "Must be true or false"
		}
		if field.Required && !checked {
			return msgRequired
		}
		return ""
	}

	if !present || v.IsEmpty() {
		if field.Required {
			return msgRequired
		}
		return ""
	}

	switch field.Type {
	case models.FieldNumber:
		if _, ok := v.Number(); ok {
			return ""
		}
		if s, ok := v.Text(); ok {
			if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return ""
			}
		}
		return "Must be a number"
	case models.FieldEmail:
		s, ok := v.Text()
		if !ok || !validation.IsEmail(s) {
			return "Must be a valid email address"
		}
	case models.FieldSelect:
		s, ok := v.Text()
		if !ok || !slices.Contains(field.Options, s) {
			return fmt.Sprintf("Must be one of: %s", strings.Join(field.Options, ", "))
		}
	default:
		if _, ok := v.Text(); !ok {
			return "Must be text"
		}
	}
	return ""
}
