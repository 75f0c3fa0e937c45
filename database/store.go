package database

import (
	"context"
	"errors"
	"fleet-backend/models"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrActivityReferenced = errors.New("activity is referenced by revenue or expense records")
)

// Store is the gorm-backed persistence for rules, fleet and activities.
// Every tenant-facing query is scoped by organization id.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ActivityFilter narrows ListActivities. Zero values are ignored.
type ActivityFilter struct {
	From      *time.Time
	To        *time.Time
	VehicleID *uuid.UUID
	DriverID  *uuid.UUID
	Status    models.ActivityStatus
}

// ==========================================
// AUTOMATIC ACTIVITIES
// ==========================================

// ListAutomaticActivities returns every rule, or only the rules of orgID when
// it is non-nil.
func (s *Store) ListAutomaticActivities(ctx context.Context, orgID *uuid.UUID) ([]models.AutomaticActivity, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if orgID != nil {
		q = q.Where("organization_id = ?", *orgID)
	}

	var rules []models.AutomaticActivity
	if err := q.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list automatic activities: %w", err)
	}
	return rules, nil
}

func (s *Store) GetAutomaticActivity(ctx context.Context, orgID, id uuid.UUID) (*models.AutomaticActivity, error) {
	var rule models.AutomaticActivity
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get automatic activity: %w", err)
	}
	return &rule, nil
}

func (s *Store) CreateAutomaticActivity(ctx context.Context, rule *models.AutomaticActivity) error {
	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("create automatic activity: %w", err)
	}
	return nil
}

func (s *Store) SaveAutomaticActivity(ctx context.Context, rule *models.AutomaticActivity) error {
	if err := s.db.WithContext(ctx).Save(rule).Error; err != nil {
		return fmt.Errorf("save automatic activity: %w", err)
	}
	return nil
}

func (s *Store) DeleteAutomaticActivity(ctx context.Context, orgID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.AutomaticActivity{})
	if res.Error != nil {
		return fmt.Errorf("delete automatic activity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==========================================
// FLEET
// ==========================================

// ListVehicles returns the organization's vehicles, optionally only those
// whose status equals status.
func (s *Store) ListVehicles(ctx context.Context, orgID uuid.UUID, status string) ([]models.Vehicle, error) {
	q := s.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var vehicles []models.Vehicle
	if err := q.Order("created_at ASC").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *Store) GetVehicle(ctx context.Context, orgID, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return &vehicle, nil
}

func (s *Store) GetDriver(ctx context.Context, orgID, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get driver: %w", err)
	}
	return &driver, nil
}

func (s *Store) ListDrivers(ctx context.Context, orgID uuid.UUID) ([]models.Driver, error) {
	var drivers []models.Driver
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&drivers).Error
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return drivers, nil
}

// ==========================================
// ACTIVITIES
// ==========================================

// InsertGeneratedActivity inserts a generated activity unless another row
// already carries the same generation key. It reports whether a row was
// written.
func (s *Store) InsertGeneratedActivity(ctx context.Context, activity *models.Activity) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "generation_key"}},
			DoNothing: true,
		}).
		Create(activity)
	if res.Error != nil {
		return false, fmt.Errorf("insert activity: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListActivities(ctx context.Context, orgID uuid.UUID, f ActivityFilter, offset, limit int) ([]models.Activity, error) {
	q := s.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	if f.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *f.VehicleID)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var activities []models.Activity
	err := q.Order("date DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

func (s *Store) UpdateActivityStatus(ctx context.Context, orgID, id uuid.UUID, status models.ActivityStatus) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&activity).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update activity status: %w", err)
	}
	return &activity, nil
}

// DeleteActivity removes an activity. Activities still referenced by a
// revenue or expense row yield ErrActivityReferenced.
func (s *Store) DeleteActivity(ctx context.Context, orgID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.Activity{})
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		return ErrActivityReferenced
	}
	if res.Error != nil {
		return fmt.Errorf("delete activity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ==========================================
// EXPENSES & REVENUES
// ==========================================

// CreateExpense stores an expense. A linked activity must belong to the same
// organization.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if err := s.checkActivity(ctx, expense.OrganizationID, expense.ActivityID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]models.Expense, error) {
	var expenses []models.Expense
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("expense_date DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// CreateRevenue stores a revenue. A linked activity must belong to the same
// organization.
func (s *Store) CreateRevenue(ctx context.Context, revenue *models.Revenue) error {
	if err := s.checkActivity(ctx, revenue.OrganizationID, revenue.ActivityID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(revenue).Error; err != nil {
		return fmt.Errorf("create revenue: %w", err)
	}
	return nil
}

func (s *Store) ListRevenues(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]models.Revenue, error) {
	var revenues []models.Revenue
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("revenue_date DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&revenues).Error
	if err != nil {
		return nil, fmt.Errorf("list revenues: %w", err)
	}
	return revenues, nil
}

func (s *Store) checkActivity(ctx context.Context, orgID uuid.UUID, activityID *uuid.UUID) error {
	if activityID == nil {
		return nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("organization_id = ? AND id = ?", orgID, *activityID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check activity: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
