package forms

import (
	"errors"

	"github.com/gdg-garage/event-registration-api/internal/models"
)

var (
	ErrSegmentRequired   = errors.New("a segment must be selected for fest registrations")
	ErrSegmentNotAllowed = errors.New("only fest events have segments")
	ErrSegmentNotFound   = errors.New("segment not found")
)

// Form is the set of fields a registrant fills in for one event, or for one
// segment of a fest.
type Form struct {
	Event   *models.Event
	Segment *models.FestSegment
	Scope   Scope
	Fields  FieldList
}

// ResolveForm picks the fields to render. Fests only show the selected
// segment's fields; their top-level fields are not part of the form.
func ResolveForm(event *models.Event, segmentID string) (Form, error) {
	if !event.IsFest() {
		if segmentID != "" {
			return Form{}, ErrSegmentNotAllowed
		}
		return Form{Event: event, Scope: ScopeEvent, Fields: event.Fields}, nil
	}
	if segmentID == "" {
		return Form{}, ErrSegmentRequired
	}
	segment := event.Segment(segmentID)
	if segment == nil {
		return Form{}, ErrSegmentNotFound
	}
	return Form{Event: event, Segment: segment, Scope: ScopeSegment, Fields: segment.Fields}, nil
}

// Fee is the amount owed: the segment's own fee when it sets one, otherwise
// the event fee.
func (f Form) Fee() float64 {
	if f.Segment != nil && f.Segment.Fee != nil && *f.Segment.Fee > 0 {
		return *f.Segment.Fee
	}
	return models.FeeAmount(f.Event.Fee)
}

func (f Form) RequiresPayment() bool {
	return f.Fee() > 0
}

func (f Form) SegmentID() *string {
	if f.Segment == nil {
		return nil
	}
	id := f.Segment.ID
	return &id
}

// Key is the submitted key of a field of this form.
func (f Form) Key(field models.FieldDefinition) string {
	return FieldKey{Scope: f.Scope, FieldID: field.ID}.String()
}
