package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryWorkshop    Category = "workshop"
	CategoryCompetition Category = "competition"
	CategoryFest        Category = "fest"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Owner types of a FieldDefinition, also used as gorm polymorphic values.
const (
	OwnerEvent   = "event"
	OwnerSegment = "segment"
)

type FieldDefinition struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	OwnerID   string    `json:"-" gorm:"index:idx_field_owner;size:36"`
	OwnerType string    `json:"-" gorm:"index:idx_field_owner;size:16"`
	Position  int       `json:"-"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type" validate:"fieldtype"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time `json:"-"`
}

func (f *FieldDefinition) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type Event struct {
	ID          string            `json:"id" gorm:"primaryKey;size:36"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Category    Category          `json:"category" validate:"category"`
	Date        time.Time         `json:"date"`
	Location    string            `json:"location"`
	Image       string            `json:"image,omitempty"`
	Rules       string            `json:"rules,omitempty"`
	Fee         *float64          `json:"fee,omitempty" validate:"omitempty,gte=0"`
	Capacity    *int              `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Fields      []FieldDefinition `json:"form_fields" gorm:"polymorphic:Owner;polymorphicValue:event" validate:"dive"`
	Segments    []FestSegment     `json:"segments,omitempty" gorm:"foreignKey:EventID" validate:"dive"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *Event) IsFest() bool {
	return e.Category == CategoryFest
}

// Segment returns the segment with the given id, or nil.
func (e *Event) Segment(id string) *FestSegment {
	for i := range e.Segments {
		if e.Segments[i].ID == id {
			return &e.Segments[i]
		}
	}
	return nil
}

type FestSegment struct {
	ID          string            `json:"id" gorm:"primaryKey;size:36"`
	EventID     string            `json:"event_id" gorm:"index;size:36"`
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Rules       string            `json:"rules,omitempty"`
	Fee         *float64          `json:"fee,omitempty" validate:"omitempty,gte=0"`
	Capacity    *int              `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Fields      []FieldDefinition `json:"form_fields" gorm:"polymorphic:Owner;polymorphicValue:segment" validate:"dive"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (s *FestSegment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// FeeAmount treats an absent fee as zero.
func FeeAmount(fee *float64) float64 {
	if fee == nil {
		return 0
	}
	return *fee
}
