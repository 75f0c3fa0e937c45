package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

type ActivityStatus string

const (
	StatusPending   ActivityStatus = "Pending"
	StatusCompleted ActivityStatus = "Completed"
	StatusPastDue   ActivityStatus = "Past Due"
	StatusCanceled  ActivityStatus = "Canceled"
)

func (s ActivityStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// Activity is a dated fleet event: maintenance, payment, repair, etc.
type Activity struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organization_id"`
	VehicleID      *uuid.UUID     `gorm:"type:uuid;index" json:"vehicle_id"`
	DriverID       *uuid.UUID     `gorm:"type:uuid;index" json:"driver_id"`
	Date           time.Time      `gorm:"type:date;not null;index" json:"date"`
	ActivityType   string         `gorm:"not null;size:100" json:"activity_type"`
	Description    string         `json:"description"`
	Status         ActivityStatus `gorm:"default:Pending;size:20" json:"status"`
	Amount         float64        `gorm:"type:decimal(12,2);default:0" json:"amount"`
	AttachmentURL  *string        `json:"attachment_url,omitempty"`

	// Set only on rows generated from an AutomaticActivity.
	AutomaticActivityID *uuid.UUID `gorm:"type:uuid;index" json:"automatic_activity_id,omitempty"`
	GenerationKey       *string    `gorm:"size:200;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Request structs
type ActivityQuery struct {
	From      string `form:"from"` // YYYY-MM-DD
	To        string `form:"to"`   // YYYY-MM-DD
	VehicleID string `form:"vehicle_id"`
	DriverID  string `form:"driver_id"`
	Status    string `form:"status"`
}

type UpdateActivityStatusRequest struct {
	Status ActivityStatus `json:"status" binding:"required"`
}
