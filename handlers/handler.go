package handlers

import (
	"context"
	"fleet-backend/database"
	"fleet-backend/models"
	"fleet-backend/services"
	"fleet-backend/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RuleStore interface {
	ListAutomaticActivities(ctx context.Context, orgID *uuid.UUID) ([]models.AutomaticActivity, error)
	GetAutomaticActivity(ctx context.Context, orgID, id uuid.UUID) (*models.AutomaticActivity, error)
	CreateAutomaticActivity(ctx context.Context, rule *models.AutomaticActivity) error
	SaveAutomaticActivity(ctx context.Context, rule *models.AutomaticActivity) error
	DeleteAutomaticActivity(ctx context.Context, orgID, id uuid.UUID) error
	GetVehicle(ctx context.Context, orgID, id uuid.UUID) (*models.Vehicle, error)
	GetDriver(ctx context.Context, orgID, id uuid.UUID) (*models.Driver, error)
}

type ActivityStore interface {
	ListActivities(ctx context.Context, orgID uuid.UUID, f database.ActivityFilter, offset, limit int) ([]models.Activity, error)
	UpdateActivityStatus(ctx context.Context, orgID, id uuid.UUID, status models.ActivityStatus) (*models.Activity, error)
	DeleteActivity(ctx context.Context, orgID, id uuid.UUID) error
}

type LedgerStore interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	ListExpenses(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]models.Expense, error)
	CreateRevenue(ctx context.Context, revenue *models.Revenue) error
	ListRevenues(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]models.Revenue, error)
}

type Runner interface {
	Run(ctx context.Context, opts services.RunOptions) (*services.RunSummary, error)
}

type Handler struct {
	rules      RuleStore
	activities ActivityStore
	ledger     LedgerStore
	generator  Runner
	loc        *time.Location
	now        func() time.Time
}

type Option func(*Handler)

// WithLocation sets the zone used for default ledger dates.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) { h.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func New(rules RuleStore, activities ActivityStore, ledger LedgerStore, generator Runner, opts ...Option) *Handler {
	h := &Handler{
		rules:      rules,
		activities: activities,
		ledger:     ledger,
		generator:  generator,
		loc:        time.UTC,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func currentSession(c *gin.Context) (utils.Session, bool) {
	session, ok := utils.GetSession(c)
	if !ok {
		utils.Unauthorized(c, "Not authenticated")
	}
	return session, ok
}
