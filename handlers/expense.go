package handlers

import (
	"errors"
	"fleet-backend/database"
	"fleet-backend/models"
	"fleet-backend/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// POST /api/expenses
func (h *Handler) CreateExpense(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var req models.LedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// Parse expense date
	expenseDate, err := h.ledgerDate(req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	expense := models.Expense{
		OrganizationID: session.OrganizationID,
		ActivityID:     req.ActivityID,
		VehicleID:      req.VehicleID,
		Description:    req.Description,
		Amount:         utils.RoundToTwo(req.Amount),
		ExpenseDate:    expenseDate,
	}

	err = h.ledger.CreateExpense(c.Request.Context(), &expense)
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "Activity not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "Failed to create expense")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Expense added", expense)
}

// GET /api/expenses
func (h *Handler) ListExpenses(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)
	pagination.Normalize()

	expenses, err := h.ledger.ListExpenses(c.Request.Context(), session.OrganizationID, pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.InternalError(c, "Failed to load expenses")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", expenses)
}

// POST /api/revenues
func (h *Handler) CreateRevenue(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var req models.LedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	revenueDate, err := h.ledgerDate(req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
		return
	}

	revenue := models.Revenue{
		OrganizationID: session.OrganizationID,
		ActivityID:     req.ActivityID,
		DriverID:       req.DriverID,
		Description:    req.Description,
		Amount:         utils.RoundToTwo(req.Amount),
		RevenueDate:    revenueDate,
	}

	err = h.ledger.CreateRevenue(c.Request.Context(), &revenue)
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "Activity not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "Failed to create revenue")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Revenue added", revenue)
}

// GET /api/revenues
func (h *Handler) ListRevenues(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)
	pagination.Normalize()

	revenues, err := h.ledger.ListRevenues(c.Request.Context(), session.OrganizationID, pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.InternalError(c, "Failed to load revenues")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", revenues)
}

// ledgerDate parses s, defaulting to today's date in the handler's location.
func (h *Handler) ledgerDate(s string) (time.Time, error) {
	if s == "" {
		y, m, d := h.now().In(h.loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(models.DateLayout, s)
}
