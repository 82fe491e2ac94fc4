package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/event-registration-api/internal/models"
	"gorm.io/gorm"
)

// RegistrationFilter narrows ListRegistrations. Empty fields match
// everything.
type RegistrationFilter struct {
	EventID       string
	SegmentID     string
	PaymentStatus models.PaymentStatus
}

// RegistrationPatch is an admin edit; nil fields are left alone.
type RegistrationPatch struct {
	UserData      *models.UserData
	PaymentStatus *models.PaymentStatus
	PaymentMethod *string
	TransactionID *string
}

func (s *Store) ListRegistrations(ctx context.Context, f RegistrationFilter) ([]models.Registration, error) {
	q := s.db.WithContext(ctx).Order("timestamp DESC")
	if f.EventID != "" {
		q = q.Where("event_id = ?", f.EventID)
	}
	if f.SegmentID != "" {
		q = q.Where("segment_id = ?", f.SegmentID)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	var regs []models.Registration
	if err := q.Find(&regs).Error; err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *Store) GetRegistration(ctx context.Context, id string) (*models.Registration, error) {
	var reg models.Registration
	if err := s.db.WithContext(ctx).First(&reg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (s *Store) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	if err := s.db.WithContext(ctx).Create(reg).Error; err != nil {
		return fmt.Errorf("create registration: %w", translate(err))
	}
	return nil
}

// UpdateRegistration applies the patch and returns the stored row. The
// timestamp and owning event never change. Replacing the user data also drops
// labels that no longer name a stored key from the field label snapshot.
func (s *Store) UpdateRegistration(ctx context.Context, id string, patch RegistrationPatch) (*models.Registration, error) {
	var reg models.Registration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reg, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if patch.UserData != nil {
			reg.UserData = *patch.UserData
			reg.FieldLabels = keptLabels(reg.FieldLabels, reg.UserData)
		}
		if patch.PaymentStatus != nil {
			reg.PaymentStatus = *patch.PaymentStatus
		}
		if patch.PaymentMethod != nil {
			reg.PaymentMethod = *patch.PaymentMethod
		}
		if patch.TransactionID != nil {
			reg.TransactionID = *patch.TransactionID
		}
		return tx.Save(&reg).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return &reg, nil
}

func keptLabels(labels []string, data models.UserData) []string {
	var kept []string
	for _, l := range labels {
		if _, ok := data.Get(l); ok {
			kept = append(kept, l)
		}
	}
	return kept
}

func (s *Store) DeleteRegistration(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Registration{})
	if res.Error != nil {
		return fmt.Errorf("delete registration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRegistrations counts rows for an event, or for one segment when
// segmentID is set.
func (s *Store) CountRegistrations(ctx context.Context, eventID, segmentID string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID)
	if segmentID != "" {
		q = q.Where("segment_id = ?", segmentID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}
