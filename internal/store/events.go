package store

import (
	"context"
	"fmt"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func orderedFields(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (s *Store) preloadEvent(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Fields", orderedFields).
		Preload("Segments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Segments.Fields", orderedFields)
}

// ListEvents returns every event by date with its form and segments.
func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.preloadEvent(s.db.WithContext(ctx)).Order("date ASC").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := s.preloadEvent(s.db.WithContext(ctx)).First(&event, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (s *Store) GetSegment(ctx context.Context, id string) (*models.FestSegment, error) {
	var segment models.FestSegment
	err := s.db.WithContext(ctx).Preload("Fields", orderedFields).First(&segment, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &segment, nil
}

// SaveEvent creates or updates an event together with its form and segments.
// Fields are replaced wholesale, segments missing from the event are deleted
// with everything they own, and non-fest events keep no segments.
func (s *Store) SaveEvent(ctx context.Context, event *models.Event) error {
	if !event.IsFest() {
		event.Segments = nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(event).Error; err != nil {
			return fmt.Errorf("save event: %w", err)
		}
		if err := replaceFields(tx, models.OwnerEvent, event.ID, event.Fields); err != nil {
			return err
		}

		keep := make([]string, 0, len(event.Segments))
		for i := range event.Segments {
			seg := &event.Segments[i]
			seg.EventID = event.ID
			if err := tx.Omit(clause.Associations).Save(seg).Error; err != nil {
				return fmt.Errorf("save segment: %w", err)
			}
			if err := replaceFields(tx, models.OwnerSegment, seg.ID, seg.Fields); err != nil {
				return err
			}
			keep = append(keep, seg.ID)
		}

		var stale []string
		q := tx.Model(&models.FestSegment{}).Where("event_id = ?", event.ID)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Pluck("id", &stale).Error; err != nil {
			return fmt.Errorf("find stale segments: %w", err)
		}
		for _, id := range stale {
			if err := deleteSegment(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceFields overwrites the form of one event or segment.
func (s *Store) ReplaceFields(ctx context.Context, ownerType, ownerID string, fields []models.FieldDefinition) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceFields(tx, ownerType, ownerID, fields)
	})
}

func replaceFields(tx *gorm.DB, ownerType, ownerID string, fields []models.FieldDefinition) error {
	if err := tx.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		Delete(&models.FieldDefinition{}).Error; err != nil {
		return fmt.Errorf("delete %s fields: %w", ownerType, err)
	}
	for i := range fields {
		fields[i].OwnerType = ownerType
		fields[i].OwnerID = ownerID
		fields[i].Position = i
	}
	if len(fields) == 0 {
		return nil
	}
	if err := tx.Create(&fields).Error; err != nil {
		return fmt.Errorf("insert %s fields: %w", ownerType, err)
	}
	return nil
}

// DeleteEvent removes the event, its form, its segments with their forms, and
// every registration for the event or one of its segments in one
// transaction.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var segmentIDs []string
		if err := tx.Model(&models.FestSegment{}).Where("event_id = ?", id).Pluck("id", &segmentIDs).Error; err != nil {
			return fmt.Errorf("find segments: %w", err)
		}
		for _, segID := range segmentIDs {
			if err := deleteSegment(tx, segID); err != nil {
				return err
			}
		}
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerEvent, id).
			Delete(&models.FieldDefinition{}).Error; err != nil {
			return fmt.Errorf("delete event fields: %w", err)
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return fmt.Errorf("delete event registrations: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Event{})
		if res.Error != nil {
			return fmt.Errorf("delete event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) DeleteSegment(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteSegment(tx, id)
	})
}

func deleteSegment(tx *gorm.DB, id string) error {
	if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerSegment, id).
		Delete(&models.FieldDefinition{}).Error; err != nil {
		return fmt.Errorf("delete segment fields: %w", err)
	}
	if err := tx.Where("segment_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
		return fmt.Errorf("delete segment registrations: %w", err)
	}
	res := tx.Where("id = ?", id).Delete(&models.FestSegment{})
	if res.Error != nil {
		return fmt.Errorf("delete segment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
