// Package forms holds the registration form model: admin-edited field
// definitions, validation of submitted answers and normalization of those
// answers into label-keyed user data.
package forms

import (
	"errors"
	"fmt"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/google/uuid"
)

var ErrFieldIndex = errors.New("field index out of range")

// FieldList is the ordered form of one event or segment. Operations return
// the new list and never mutate the receiver's backing array.
type FieldList []models.FieldDefinition

// FieldPatch carries the attributes of a partial update; nil means unchanged.
type FieldPatch struct {
	Label    *string           `json:"label,omitempty"`
	Type     *models.FieldType `json:"type,omitempty"`
	Required *bool             `json:"required,omitempty"`
	Options  *[]string         `json:"options,omitempty"`
}

func (l FieldList) clone() FieldList {
	out := make(FieldList, len(l))
	copy(out, l)
	return out
}

// Add appends a blank text field with a fresh id.
func (l FieldList) Add() (FieldList, models.FieldDefinition) {
	field := models.FieldDefinition{
		ID:       uuid.NewString(),
		Type:     models.FieldText,
		Required: false,
	}
	return append(l.clone(), field), field
}

func (l FieldList) Update(index int, patch FieldPatch) (FieldList, error) {
	if index < 0 || index >= len(l) {
		return nil, fmt.Errorf("%w: %d", ErrFieldIndex, index)
	}
	out := l.clone()
	f := out[index]
	if patch.Label != nil {
		f.Label = *patch.Label
	}
	if patch.Type != nil {
		f.Type = *patch.Type
	}
	if patch.Required != nil {
		f.Required = *patch.Required
	}
	if patch.Options != nil {
		f.Options = append([]string(nil), (*patch.Options)...)
	}
	if f.Type != models.FieldSelect {
		f.Options = nil
	}
	out[index] = f
	return out, nil
}

func (l FieldList) Remove(index int) (FieldList, error) {
	if index < 0 || index >= len(l) {
		return nil, fmt.Errorf("%w: %d", ErrFieldIndex, index)
	}
	out := make(FieldList, 0, len(l)-1)
	out = append(out, l[:index]...)
	return append(out, l[index+1:]...), nil
}

// Find returns the definition with the given id.
func (l FieldList) Find(id string) (models.FieldDefinition, bool) {
	for _, f := range l {
		if f.ID == id {
			return f, true
		}
	}
	return models.FieldDefinition{}, false
}
