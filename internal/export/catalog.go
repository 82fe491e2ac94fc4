// Package export aggregates stored registrations for the admin console:
// filtering, summary counts, the registrations CSV and the analytics report.
package export

import "github.com/gdg-garage/event-registration-api/internal/models"

// Catalog resolves the event and segment a registration points at.
type Catalog struct {
	events   map[string]*models.Event
	segments map[string]*models.FestSegment
}

func NewCatalog(events []models.Event) *Catalog {
	c := &Catalog{
		events:   make(map[string]*models.Event, len(events)),
		segments: map[string]*models.FestSegment{},
	}
	for i := range events {
		e := &events[i]
		c.events[e.ID] = e
		for j := range e.Segments {
			c.segments[e.Segments[j].ID] = &e.Segments[j]
		}
	}
	return c
}

func (c *Catalog) Event(id string) *models.Event {
	return c.events[id]
}

func (c *Catalog) EventTitle(id string) string {
	if e := c.events[id]; e != nil {
		return e.Title
	}
	return "Unknown Event"
}

func (c *Catalog) SegmentName(id string) string {
	if s := c.segments[id]; s != nil {
		return s.Name
	}
	return ""
}

// Fee is what the registration owed: the segment's own fee when set,
// otherwise the event fee.
func (c *Catalog) Fee(r models.Registration) float64 {
	if s := c.segments[r.Segment()]; s != nil && models.FeeAmount(s.Fee) > 0 {
		return *s.Fee
	}
	if e := c.events[r.EventID]; e != nil {
		return models.FeeAmount(e.Fee)
	}
	return 0
}
