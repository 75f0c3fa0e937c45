package services

import (
	"context"
	"fleet-backend/models"
	"log"

	"github.com/google/uuid"
)

// Target is one vehicle or driver a generated activity is attached to.
// Exactly one of the two ids is set.
type Target struct {
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`
	DriverID  *uuid.UUID `json:"driver_id,omitempty"`
}

func VehicleTarget(id uuid.UUID) Target { return Target{VehicleID: &id} }

func DriverTarget(id uuid.UUID) Target { return Target{DriverID: &id} }

// Key identifies the target inside a generation key.
func (t Target) Key() string {
	switch {
	case t.VehicleID != nil:
		return "v:" + t.VehicleID.String()
	case t.DriverID != nil:
		return "d:" + t.DriverID.String()
	}
	return "none"
}

type FleetStore interface {
	ListVehicles(ctx context.Context, orgID uuid.UUID, status string) ([]models.Vehicle, error)
	ListDrivers(ctx context.Context, orgID uuid.UUID) ([]models.Driver, error)
}

type TargetResolver struct {
	fleet FleetStore
}

func NewTargetResolver(fleet FleetStore) *TargetResolver {
	return &TargetResolver{fleet: fleet}
}

// Resolve expands the rule's scope into concrete targets within the rule's
// organization. A rule with an unknown or incomplete scope has no targets.
func (r *TargetResolver) Resolve(ctx context.Context, rule *models.AutomaticActivity) ([]Target, error) {
	scope, err := rule.Scope()
	if err != nil {
		log.Printf("⚠️  Automatic activity %s has no usable target: %v", rule.ID, err)
		return nil, nil
	}

	switch s := scope.(type) {
	case models.SpecificVehicle:
		return []Target{VehicleTarget(s.VehicleID)}, nil
	case models.SpecificDriver:
		return []Target{DriverTarget(s.DriverID)}, nil
	case models.AllVehicles:
		return r.vehicles(ctx, rule.OrganizationID, "")
	case models.VehiclesWithStatus:
		return r.vehicles(ctx, rule.OrganizationID, s.Status)
	case models.AllDrivers:
		drivers, err := r.fleet.ListDrivers(ctx, rule.OrganizationID)
		if err != nil {
			return nil, err
		}
		targets := make([]Target, 0, len(drivers))
		for _, d := range drivers {
			targets = append(targets, DriverTarget(d.ID))
		}
		return targets, nil
	}
	return nil, nil
}

func (r *TargetResolver) vehicles(ctx context.Context, orgID uuid.UUID, status string) ([]Target, error) {
	vehicles, err := r.fleet.ListVehicles(ctx, orgID, status)
	if err != nil {
		return nil, err
	}
	targets := make([]Target, 0, len(vehicles))
	for _, v := range vehicles {
		targets = append(targets, VehicleTarget(v.ID))
	}
	return targets, nil
}
