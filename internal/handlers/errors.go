package handlers

import (
	"errors"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/forms"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/gdg-garage/event-registration-api/internal/validation"
	"github.com/rs/zerolog/log"
)

// storeError maps a store failure onto a problem response. Unexpected errors
// are logged and hidden from the client.
func storeError(err error, op, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound(what + " not found")
	case errors.Is(err, store.ErrDuplicate):
		return huma.Error409Conflict(what + " already exists")
	}
	log.Error().Err(err).Str("op", op).Msg("Store operation failed")
	return huma.Error500InternalServerError("Failed to " + op)
}

// validationError turns field-level failures into a 422 with one detail per
// field.
func validationError(err error) error {
	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		keys := make([]string, 0, len(fieldErrs))
		for k := range fieldErrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		details := make([]error, 0, len(keys))
		for _, k := range keys {
			details = append(details, &huma.ErrorDetail{
				Message:  fieldErrs[k],
				Location: "body.data." + k,
			})
		}
		return huma.Error422UnprocessableEntity("Please fix the highlighted fields", details...)
	}

	var structErrs validation.Errors
	if errors.As(err, &structErrs) {
		details := make([]error, 0, len(structErrs))
		for _, fe := range structErrs {
			details = append(details, &huma.ErrorDetail{Message: fe.Message, Location: fe.Field})
		}
		return huma.Error422UnprocessableEntity("Validation failed", details...)
	}

	return huma.Error422UnprocessableEntity(err.Error())
}

// formError maps segment selection failures.
func formError(err error) error {
	switch {
	case errors.Is(err, forms.ErrSegmentNotFound):
		return huma.Error404NotFound("Segment not found")
	case errors.Is(err, forms.ErrSegmentRequired), errors.Is(err, forms.ErrSegmentNotAllowed):
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError("Failed to resolve form")
}
