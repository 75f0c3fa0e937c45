package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

type ApplyToType string

const (
	ApplyToAllVehicles     ApplyToType = "all_vehicles"
	ApplyToAllDrivers      ApplyToType = "all_drivers"
	ApplyToSpecificVehicle ApplyToType = "specific_vehicle"
	ApplyToSpecificDriver  ApplyToType = "specific_driver"
	ApplyToVehicleStatus   ApplyToType = "vehicle_status"
)

// AutomaticActivity is a recurring rule that generates activities on a schedule.
type AutomaticActivity struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;index;not null" json:"organization_id"`
	Cadence        Cadence        `gorm:"not null;size:10" json:"cadence"`
	DaysOfWeek     pq.StringArray `gorm:"type:text[]" json:"days_of_week"` // weekly only
	DayOfMonth     *int           `json:"day_of_month"`                    // monthly only, 1-31
	StartDate      *time.Time     `gorm:"type:date" json:"start_date"`
	EndDate        *time.Time     `gorm:"type:date" json:"end_date"`
	ApplyToType    ApplyToType    `gorm:"not null;size:20" json:"apply_to_type"`
	VehicleID      *uuid.UUID     `gorm:"type:uuid" json:"vehicle_id"`
	DriverID       *uuid.UUID     `gorm:"type:uuid" json:"driver_id"`
	VehicleStatus  *string        `gorm:"size:50" json:"vehicle_status"`
	ActivityType   string         `gorm:"not null;size:100" json:"activity_type"`
	Description    string         `json:"description"`
	Status         ActivityStatus `gorm:"default:Pending;size:20" json:"status"`
	Amount         float64        `gorm:"type:decimal(12,2);default:0" json:"amount"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (a *AutomaticActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// Scope is the target selection of a rule. Exactly one of the variants below.
type Scope interface {
	isScope()
}

type AllVehicles struct{}

type AllDrivers struct{}

type SpecificVehicle struct {
	VehicleID uuid.UUID
}

type SpecificDriver struct {
	DriverID uuid.UUID
}

type VehiclesWithStatus struct {
	Status string
}

func (AllVehicles) isScope()        {}
func (AllDrivers) isScope()         {}
func (SpecificVehicle) isScope()    {}
func (SpecificDriver) isScope()     {}
func (VehiclesWithStatus) isScope() {}

var (
	ErrUnknownApplyToType = errors.New("unknown apply_to_type")
	ErrScopeIncomplete    = errors.New("apply_to_type is missing its target field")
)

// Scope converts the nullable target columns into a Scope value.
func (a *AutomaticActivity) Scope() (Scope, error) {
	switch a.ApplyToType {
	case ApplyToAllVehicles:
		return AllVehicles{}, nil
	case ApplyToAllDrivers:
		return AllDrivers{}, nil
	case ApplyToSpecificVehicle:
		if a.VehicleID == nil || *a.VehicleID == uuid.Nil {
			return nil, fmt.Errorf("%w: vehicle_id", ErrScopeIncomplete)
		}
		return SpecificVehicle{VehicleID: *a.VehicleID}, nil
	case ApplyToSpecificDriver:
		if a.DriverID == nil || *a.DriverID == uuid.Nil {
			return nil, fmt.Errorf("%w: driver_id", ErrScopeIncomplete)
		}
		return SpecificDriver{DriverID: *a.DriverID}, nil
	case ApplyToVehicleStatus:
		if a.VehicleStatus == nil || strings.TrimSpace(*a.VehicleStatus) == "" {
			return nil, fmt.Errorf("%w: vehicle_status", ErrScopeIncomplete)
		}
		return VehiclesWithStatus{Status: *a.VehicleStatus}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownApplyToType, a.ApplyToType)
}

// SetScope writes s back into the target columns, clearing the unused ones.
func (a *AutomaticActivity) SetScope(s Scope) {
	a.VehicleID, a.DriverID, a.VehicleStatus = nil, nil, nil
	switch v := s.(type) {
	case AllVehicles:
		a.ApplyToType = ApplyToAllVehicles
	case AllDrivers:
		a.ApplyToType = ApplyToAllDrivers
	case SpecificVehicle:
		id := v.VehicleID
		a.ApplyToType = ApplyToSpecificVehicle
		a.VehicleID = &id
	case SpecificDriver:
		id := v.DriverID
		a.ApplyToType = ApplyToSpecificDriver
		a.DriverID = &id
	case VehiclesWithStatus:
		status := v.Status
		a.ApplyToType = ApplyToVehicleStatus
		a.VehicleStatus = &status
	}
}

// Validate checks that the schedule fields agree with the cadence and that
// the payload template is usable.
func (a *AutomaticActivity) Validate() error {
	switch a.Cadence {
	case CadenceDaily:
	case CadenceWeekly:
		if len(a.DaysOfWeek) == 0 {
			return errors.New("weekly rules need at least one day in days_of_week")
		}
		for _, d := range a.DaysOfWeek {
			if _, ok := WeekdayFromName(d); !ok {
				return fmt.Errorf("invalid day of week %q", d)
			}
		}
	case CadenceMonthly:
		if a.DayOfMonth == nil || *a.DayOfMonth < 1 || *a.DayOfMonth > 31 {
			return errors.New("monthly rules need day_of_month between 1 and 31")
		}
	default:
		return fmt.Errorf("invalid cadence %q", a.Cadence)
	}

	if a.StartDate != nil && a.EndDate != nil && a.EndDate.Before(*a.StartDate) {
		return errors.New("end_date must not be before start_date")
	}

	if _, err := a.Scope(); err != nil {
		return err
	}

	if strings.TrimSpace(a.ActivityType) == "" {
		return errors.New("activity_type is required")
	}
	if a.Status != "" && !a.Status.IsValid() {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	if a.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	return nil
}

// Normalize canonicalizes weekday names and drops day selectors that the
// cadence does not use.
func (a *AutomaticActivity) Normalize() {
	switch a.Cadence {
	case CadenceWeekly:
		days := make(pq.StringArray, 0, len(a.DaysOfWeek))
		seen := map[time.Weekday]bool{}
		for _, d := range a.DaysOfWeek {
			wd, ok := WeekdayFromName(d)
			if !ok || seen[wd] {
				continue
			}
			seen[wd] = true
			days = append(days, wd.String())
		}
		a.DaysOfWeek = days
		a.DayOfMonth = nil
	case CadenceMonthly:
		a.DaysOfWeek = nil
	default:
		a.DaysOfWeek = nil
		a.DayOfMonth = nil
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
}

// WeekdayFromName parses an English long weekday name, ignoring case and
// surrounding whitespace.
func WeekdayFromName(name string) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return time.Sunday, false
}

// Request structs
type AutomaticActivityRequest struct {
	Cadence       Cadence        `json:"cadence" binding:"required,oneof=daily weekly monthly"`
	DaysOfWeek    []string       `json:"days_of_week"`
	DayOfMonth    *int           `json:"day_of_month"`
	StartDate     string         `json:"start_date"` // YYYY-MM-DD
	EndDate       string         `json:"end_date"`   // YYYY-MM-DD
	ApplyToType   ApplyToType    `json:"apply_to_type" binding:"required"`
	VehicleID     *uuid.UUID     `json:"vehicle_id"`
	DriverID      *uuid.UUID     `json:"driver_id"`
	VehicleStatus *string        `json:"vehicle_status"`
	ActivityType  string         `json:"activity_type" binding:"required"`
	Description   string         `json:"description"`
	Status        ActivityStatus `json:"status"`
	Amount        float64        `json:"amount"`
}

// Apply copies the request into a, parsing the optional date bounds.
func (r *AutomaticActivityRequest) Apply(a *AutomaticActivity) error {
	start, err := parseOptionalDate(r.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := parseOptionalDate(r.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end_date: %w", err)
	}

	a.Cadence = r.Cadence
	a.DaysOfWeek = pq.StringArray(r.DaysOfWeek)
	a.DayOfMonth = r.DayOfMonth
	a.StartDate = start
	a.EndDate = end
	a.ApplyToType = r.ApplyToType
	a.VehicleID = r.VehicleID
	a.DriverID = r.DriverID
	a.VehicleStatus = r.VehicleStatus
	a.ActivityType = strings.TrimSpace(r.ActivityType)
	a.Description = r.Description
	a.Status = r.Status
	a.Amount = r.Amount

	// Keep only the field the scope uses.
	if s, err := a.Scope(); err == nil {
		a.SetScope(s)
	}
	return nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
