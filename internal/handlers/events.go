package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/forms"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/store"
	"github.com/gdg-garage/event-registration-api/internal/validation"
	"github.com/rs/zerolog/log"
)

type EventHandler struct {
	store *store.Store
	auth  *auth.AuthHandler
}

func NewEventHandler(st *store.Store, authHandler *auth.AuthHandler) *EventHandler {
	return &EventHandler{store: st, auth: authHandler}
}

type FieldBody struct {
	ID       string           `json:"id,omitempty" doc:"Existing field id; empty creates a new field"`
	Label    string           `json:"label"`
	Type     models.FieldType `json:"type" enum:"text,email,number,select,checkbox"`
	Required bool             `json:"required,omitempty"`
	Options  []string         `json:"options,omitempty"`
}

type SegmentBody struct {
	ID          string      `json:"id,omitempty" doc:"Existing segment id; empty creates a new segment"`
	Name        string      `json:"name" minLength:"1"`
	Description string      `json:"description,omitempty"`
	Rules       string      `json:"rules,omitempty"`
	Fee         *float64    `json:"fee,omitempty" minimum:"0"`
	Capacity    *int        `json:"capacity,omitempty" minimum:"0"`
	Fields      []FieldBody `json:"form_fields,omitempty"`
}

type EventBody struct {
	Title       string          `json:"title" minLength:"1"`
	Description string          `json:"description,omitempty"`
	Category    models.Category `json:"category" enum:"workshop,competition,fest"`
	Date        time.Time       `json:"date"`
	Location    string          `json:"location,omitempty"`
	Image       string          `json:"image,omitempty"`
	Rules       string          `json:"rules,omitempty"`
	Fee         *float64        `json:"fee,omitempty" minimum:"0"`
	Capacity    *int            `json:"capacity,omitempty" minimum:"0"`
	Fields      []FieldBody     `json:"form_fields,omitempty"`
	Segments    []SegmentBody   `json:"segments,omitempty" doc:"Only kept for fest events"`
}

// toFields keeps ids already owned by the same form and issues fresh ones
// for everything else.
func toFields(body []FieldBody, existing forms.FieldList) []models.FieldDefinition {
	out := make([]models.FieldDefinition, 0, len(body))
	for _, f := range body {
		def := models.FieldDefinition{
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
			Options:  f.Options,
		}
		if _, ok := existing.Find(f.ID); ok {
			def.ID = f.ID
		}
		if def.Type != models.FieldSelect {
			def.Options = nil
		}
		out = append(out, def)
	}
	return out
}

// toModel builds the event to store. existing is nil on create.
func (b EventBody) toModel(existing *models.Event) *models.Event {
	event := &models.Event{
		Title:       b.Title,
		Description: b.Description,
		Category:    b.Category,
		Date:        b.Date,
		Location:    b.Location,
		Image:       b.Image,
		Rules:       b.Rules,
		Fee:         b.Fee,
		Capacity:    b.Capacity,
	}
	var eventFields forms.FieldList
	if existing != nil {
		event.ID = existing.ID
		event.CreatedAt = existing.CreatedAt
		eventFields = existing.Fields
	}
	event.Fields = toFields(b.Fields, eventFields)

	for _, sb := range b.Segments {
		seg := models.FestSegment{
			Name:        sb.Name,
			Description: sb.Description,
			Rules:       sb.Rules,
			Fee:         sb.Fee,
			Capacity:    sb.Capacity,
		}
		var segFields forms.FieldList
		if existing != nil {
			if prev := existing.Segment(sb.ID); prev != nil {
				seg.ID = prev.ID
				seg.CreatedAt = prev.CreatedAt
				segFields = prev.Fields
			}
		}
		seg.Fields = toFields(sb.Fields, segFields)
		event.Segments = append(event.Segments, seg)
	}
	return event
}

type EventListOutput struct {
	Body []models.Event
}

type EventOutput struct {
	Body models.Event
}

type EventIDInput struct {
	ID string `path:"id" doc:"Event id"`
}

type EventCreateInput struct {
	Body EventBody
}

type EventUpdateInput struct {
	ID   string `path:"id" doc:"Event id"`
	Body EventBody
}

func (h *EventHandler) HandleList(ctx context.Context, input *struct{}) (*EventListOutput, error) {
	events, err := h.store.ListEvents(ctx)
	if err != nil {
		return nil, storeError(err, "list events", "Events")
	}
	return &EventListOutput{Body: events}, nil
}

func (h *EventHandler) HandleGet(ctx context.Context, input *EventIDInput) (*EventOutput, error) {
	event, err := h.store.GetEvent(ctx, input.ID)
	if err != nil {
		return nil, storeError(err, "load event", "Event")
	}
	return &EventOutput{Body: *event}, nil
}

func (h *EventHandler) save(ctx context.Context, event *models.Event) (*EventOutput, error) {
	if err := validation.Validate(ctx, event); err != nil {
		return nil, validationError(err)
	}
	if err := h.store.SaveEvent(ctx, event); err != nil {
		return nil, storeError(err, "save event", "Event")
	}
	saved, err := h.store.GetEvent(ctx, event.ID)
	if err != nil {
		return nil, storeError(err, "load event", "Event")
	}
	return &EventOutput{Body: *saved}, nil
}

func (h *EventHandler) HandleCreate(ctx context.Context, input *EventCreateInput) (*EventOutput, error) {
	s, err := h.auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	out, err := h.save(ctx, input.Body.toModel(nil))
	if err != nil {
		return nil, err
	}
	log.Info().Str("event_id", out.Body.ID).Str("admin", s.Username).Msg("Event created")
	return out, nil
}

func (h *EventHandler) HandleUpdate(ctx context.Context, input *EventUpdateInput) (*EventOutput, error) {
	s, err := h.auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := h.store.GetEvent(ctx, input.ID)
	if err != nil {
		return nil, storeError(err, "load event", "Event")
	}
	out, err := h.save(ctx, input.Body.toModel(existing))
	if err != nil {
		return nil, err
	}
	log.Info().Str("event_id", out.Body.ID).Str("admin", s.Username).Msg("Event updated")
	return out, nil
}

func (h *EventHandler) HandleDelete(ctx context.Context, input *EventIDInput) (*struct{}, error) {
	s, err := h.auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.DeleteEvent(ctx, input.ID); err != nil {
		return nil, storeError(err, "delete event", "Event")
	}
	log.Info().Str("event_id", input.ID).Str("admin", s.Username).Msg("Event deleted")
	return nil, nil
}

type SegmentIDInput struct {
	ID string `path:"id" doc:"Segment id"`
}

func (h *EventHandler) HandleDeleteSegment(ctx context.Context, input *SegmentIDInput) (*struct{}, error) {
	s, err := h.auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.DeleteSegment(ctx, input.ID); err != nil {
		return nil, storeError(err, "delete segment", "Segment")
	}
	log.Info().Str("segment_id", input.ID).Str("admin", s.Username).Msg("Segment deleted")
	return nil, nil
}

// Field editing. The same operations serve an event's form and a segment's
// form; ownerType selects which.

type FieldsOutput struct {
	Body []models.FieldDefinition
}

type FieldOwnerInput struct {
	ID string `path:"id" doc:"Event or segment id"`
}

type FieldIndexInput struct {
	ID    string `path:"id" doc:"Event or segment id"`
	Index int    `path:"index" minimum:"0" doc:"Position of the field in the form"`
}

type FieldUpdateInput struct {
	ID    string `path:"id" doc:"Event or segment id"`
	Index int    `path:"index" minimum:"0" doc:"Position of the field in the form"`
	Body  forms.FieldPatch
}

func (h *EventHandler) loadFields(ctx context.Context, ownerType, id string) (forms.FieldList, error) {
	if ownerType == models.OwnerSegment {
		seg, err := h.store.GetSegment(ctx, id)
		if err != nil {
			return nil, storeError(err, "load segment", "Segment")
		}
		return seg.Fields, nil
	}
	event, err := h.store.GetEvent(ctx, id)
	if err != nil {
		return nil, storeError(err, "load event", "Event")
	}
	return event.Fields, nil
}

// editFields loads a form, applies edit and stores the result.
func (h *EventHandler) editFields(ctx context.Context, ownerType, id string, edit func(forms.FieldList) (forms.FieldList, error)) (*FieldsOutput, error) {
	if _, err := h.auth.Require(ctx); err != nil {
		return nil, err
	}
	fields, err := h.loadFields(ctx, ownerType, id)
	if err != nil {
		return nil, err
	}
	next, err := edit(fields)
	if errors.Is(err, forms.ErrFieldIndex) {
		return nil, huma.Error404NotFound("Field not found")
	}
	if err != nil {
		return nil, err
	}
	for i := range next {
		if err := validation.Validate(ctx, &next[i]); err != nil {
			return nil, validationError(err)
		}
	}
	if err := h.store.ReplaceFields(ctx, ownerType, id, next); err != nil {
		return nil, storeError(err, "save fields", "Form")
	}
	return &FieldsOutput{Body: next}, nil
}

func (h *EventHandler) addField(ownerType string) func(context.Context, *FieldOwnerInput) (*FieldsOutput, error) {
	return func(ctx context.Context, input *FieldOwnerInput) (*FieldsOutput, error) {
		return h.editFields(ctx, ownerType, input.ID, func(l forms.FieldList) (forms.FieldList, error) {
			next, _ := l.Add()
			return next, nil
		})
	}
}

func (h *EventHandler) updateField(ownerType string) func(context.Context, *FieldUpdateInput) (*FieldsOutput, error) {
	return func(ctx context.Context, input *FieldUpdateInput) (*FieldsOutput, error) {
		return h.editFields(ctx, ownerType, input.ID, func(l forms.FieldList) (forms.FieldList, error) {
			return l.Update(input.Index, input.Body)
		})
	}
}

func (h *EventHandler) removeField(ownerType string) func(context.Context, *FieldIndexInput) (*FieldsOutput, error) {
	return func(ctx context.Context, input *FieldIndexInput) (*FieldsOutput, error) {
		return h.editFields(ctx, ownerType, input.ID, func(l forms.FieldList) (forms.FieldList, error) {
			return l.Remove(input.Index)
		})
	}
}

func (h *EventHandler) HandleAddEventField(ctx context.Context, input *FieldOwnerInput) (*FieldsOutput, error) {
	return h.addField(models.OwnerEvent)(ctx, input)
}

func (h *EventHandler) HandleUpdateEventField(ctx context.Context, input *FieldUpdateInput) (*FieldsOutput, error) {
	return h.updateField(models.OwnerEvent)(ctx, input)
}

func (h *EventHandler) HandleRemoveEventField(ctx context.Context, input *FieldIndexInput) (*FieldsOutput, error) {
	return h.removeField(models.OwnerEvent)(ctx, input)
}

func (h *EventHandler) HandleAddSegmentField(ctx context.Context, input *FieldOwnerInput) (*FieldsOutput, error) {
	return h.addField(models.OwnerSegment)(ctx, input)
}

func (h *EventHandler) HandleUpdateSegmentField(ctx context.Context, input *FieldUpdateInput) (*FieldsOutput, error) {
	return h.updateField(models.OwnerSegment)(ctx, input)
}

func (h *EventHandler) HandleRemoveSegmentField(ctx context.Context, input *FieldIndexInput) (*FieldsOutput, error) {
	return h.removeField(models.OwnerSegment)(ctx, input)
}
