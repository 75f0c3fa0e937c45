package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Expense and Revenue rows may point at the activity they settle. Deleting a
// referenced activity is rejected by the database.
type Expense struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	ActivityID     *uuid.UUID `gorm:"type:uuid;index" json:"activity_id,omitempty"`
	Activity       *Activity  `gorm:"foreignKey:ActivityID;constraint:OnDelete:RESTRICT" json:"-"`
	VehicleID      *uuid.UUID `gorm:"type:uuid" json:"vehicle_id,omitempty"`
	Description    string     `gorm:"size:255" json:"description"`
	Amount         float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	ExpenseDate    time.Time  `gorm:"type:date;default:CURRENT_DATE" json:"expense_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type Revenue struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	ActivityID     *uuid.UUID `gorm:"type:uuid;index" json:"activity_id,omitempty"`
	Activity       *Activity  `gorm:"foreignKey:ActivityID;constraint:OnDelete:RESTRICT" json:"-"`
	DriverID       *uuid.UUID `gorm:"type:uuid" json:"driver_id,omitempty"`
	Description    string     `gorm:"size:255" json:"description"`
	Amount         float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	RevenueDate    time.Time  `gorm:"type:date;default:CURRENT_DATE" json:"revenue_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *Revenue) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// LedgerEntryRequest creates an Expense or a Revenue.
type LedgerEntryRequest struct {
	ActivityID  *uuid.UUID `json:"activity_id"`
	VehicleID   *uuid.UUID `json:"vehicle_id"`
	DriverID    *uuid.UUID `json:"driver_id"`
	Description string     `json:"description" binding:"required"`
	Amount      float64    `json:"amount" binding:"required,gt=0"`
	Date        string     `json:"date"` // YYYY-MM-DD, defaults to today
}
