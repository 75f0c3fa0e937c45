package services

import (
	"context"
	"fleet-backend/models"
	"fleet-backend/utils"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ActivityStore interface {
	InsertGeneratedActivity(ctx context.Context, activity *models.Activity) (bool, error)
}

type Materializer struct {
	store ActivityStore
}

func NewMaterializer(store ActivityStore) *Materializer {
	return &Materializer{store: store}
}

// GenerationKey is unique per rule, target and calendar date.
func GenerationKey(ruleID uuid.UUID, target Target, today time.Time) string {
	return fmt.Sprintf("%s:%s:%s", ruleID, target.Key(), civilDay(today).Format(models.DateLayout))
}

// Materialize persists one activity for rule and target dated today. created
// is false when the activity already existed for that day.
func (m *Materializer) Materialize(ctx context.Context, rule *models.AutomaticActivity, target Target, today time.Time) (activity *models.Activity, created bool, err error) {
	status := rule.Status
	if status == "" {
		status = models.StatusPending
	}
	ruleID := rule.ID
	key := GenerationKey(rule.ID, target, today)

	activity = &models.Activity{
		OrganizationID:      rule.OrganizationID,
		VehicleID:           target.VehicleID,
		DriverID:            target.DriverID,
		Date:                civilDay(today),
		ActivityType:        rule.ActivityType,
		Description:         rule.Description,
		Status:              status,
		Amount:              utils.RoundToTwo(rule.Amount),
		AutomaticActivityID: &ruleID,
		GenerationKey:       &key,
	}

	created, err = m.store.InsertGeneratedActivity(ctx, activity)
	if err != nil {
		return nil, false, err
	}
	return activity, created, nil
}
