package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentNone      PaymentStatus = ""
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentNone, PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

type Registration struct {
	ID        string   `json:"id" gorm:"primaryKey;size:36"`
	EventID   string   `json:"event_id" gorm:"index;size:36"`
	SegmentID *string  `json:"segment_id,omitempty" gorm:"index;size:36"`
	UserData  UserData `json:"user_data" gorm:"type:text"`
	// FieldLabels lists the UserData keys that came from field definitions
	// when the registration was captured.
	FieldLabels   []string      `json:"field_labels,omitempty" gorm:"serializer:json"`
	Timestamp     time.Time     `json:"timestamp" gorm:"index"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty" gorm:"index;size:16"`
	PaymentMethod string        `json:"payment_method,omitempty" gorm:"size:32"`
	TransactionID string        `json:"transaction_id,omitempty"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}

func (r *Registration) Segment() string {
	if r.SegmentID == nil {
		return ""
	}
	return *r.SegmentID
}
