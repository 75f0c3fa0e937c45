package handlers

import (
	"errors"
	"fleet-backend/database"
	"fleet-backend/models"
	"fleet-backend/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/automatic-activities
func (h *Handler) ListAutomaticActivities(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	rules, err := h.rules.ListAutomaticActivities(c.Request.Context(), &session.OrganizationID)
	if err != nil {
		utils.InternalError(c, "Failed to load automatic activities")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", rules)
}

// GET /api/automatic-activities/:id
func (h *Handler) GetAutomaticActivity(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid automatic activity ID")
		return
	}

	rule, err := h.rules.GetAutomaticActivity(c.Request.Context(), session.OrganizationID, id)
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "Automatic activity not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "Failed to load automatic activity")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", rule)
}

// POST /api/automatic-activities
func (h *Handler) CreateAutomaticActivity(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var req models.AutomaticActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	rule := models.AutomaticActivity{OrganizationID: session.OrganizationID}
	if err := bindRule(&req, &rule); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if !h.checkRuleTarget(c, &rule) {
		return
	}

	if err := h.rules.CreateAutomaticActivity(c.Request.Context(), &rule); err != nil {
		utils.InternalError(c, "Failed to create automatic activity")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Automatic activity created", rule)
}

// PUT /api/automatic-activities/:id
func (h *Handler) UpdateAutomaticActivity(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid automatic activity ID")
		return
	}

	var req models.AutomaticActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	rule, err := h.rules.GetAutomaticActivity(c.Request.Context(), session.OrganizationID, id)
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "Automatic activity not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "Failed to load automatic activity")
		return
	}

	if err := bindRule(&req, rule); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if !h.checkRuleTarget(c, rule) {
		return
	}

	if err := h.rules.SaveAutomaticActivity(c.Request.Context(), rule); err != nil {
		utils.InternalError(c, "Failed to update automatic activity")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Automatic activity updated", rule)
}

// DELETE /api/automatic-activities/:id
func (h *Handler) DeleteAutomaticActivity(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid automatic activity ID")
		return
	}

	err = h.rules.DeleteAutomaticActivity(c.Request.Context(), session.OrganizationID, id)
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "Automatic activity not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "Failed to delete automatic activity")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Automatic activity deleted", nil)
}

func bindRule(req *models.AutomaticActivityRequest, rule *models.AutomaticActivity) error {
	if err := req.Apply(rule); err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	rule.Normalize()
	rule.Amount = utils.RoundToTwo(rule.Amount)
	return nil
}

// checkRuleTarget makes sure a specific vehicle or driver belongs to the
// rule's organization. It writes the error response and reports false
// otherwise.
func (h *Handler) checkRuleTarget(c *gin.Context, rule *models.AutomaticActivity) bool {
	scope, err := rule.Scope()
	if err != nil {
		utils.BadRequest(c, err.Error())
		return false
	}

	ctx := c.Request.Context()
	switch s := scope.(type) {
	case models.SpecificVehicle:
		_, err = h.rules.GetVehicle(ctx, rule.OrganizationID, s.VehicleID)
		if errors.Is(err, database.ErrNotFound) {
			utils.NotFound(c, "Vehicle not found")
			return false
		}
	case models.SpecificDriver:
		_, err = h.rules.GetDriver(ctx, rule.OrganizationID, s.DriverID)
		if errors.Is(err, database.ErrNotFound) {
			utils.NotFound(c, "Driver not found")
			return false
		}
	}
	if err != nil {
		utils.InternalError(c, "Failed to load rule target")
		return false
	}
	return true
}
