package handlers

import (
	"errors"
	"fleet-backend/database"
	"fleet-backend/models"
	"fleet-backend/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/activities
func (h *Handler) ListActivities(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)
	pagination.Normalize()

	var query models.ActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	filter, err := activityFilter(query)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	activities, err := h.activities.ListActivities(c.Request.Context(), session.OrganizationID, filter, pagination.Offset(), pagination.Limit)
	if err != nil {
		utils.InternalError(c, "Failed to load activities")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// PATCH /api/activities/:id/status
func (h *Handler) UpdateActivityStatus(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid activity ID")
		return
	}

	var req models.UpdateActivityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if !req.Status.IsValid() {
		utils.BadRequest(c, "Invalid activity status")
		return
	}

	activity, err := h.activities.UpdateActivityStatus(c.Request.Context(), session.OrganizationID, id, req.Status)
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "Activity not found")
		return
	}
	if err != nil {
		utils.InternalError(c, "Failed to update activity")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Activity updated", activity)
}

// DELETE /api/activities/:id
func (h *Handler) DeleteActivity(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid activity ID")
		return
	}

	err = h.activities.DeleteActivity(c.Request.Context(), session.OrganizationID, id)
	switch {
	case errors.Is(err, database.ErrActivityReferenced):
		utils.Conflict(c, "This activity has revenue or expense records linked to it. Delete those first.")
		return
	case errors.Is(err, database.ErrNotFound):
		utils.NotFound(c, "Activity not found")
		return
	case err != nil:
		utils.InternalError(c, "Failed to delete activity")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Activity deleted", nil)
}

func activityFilter(q models.ActivityQuery) (database.ActivityFilter, error) {
	var f database.ActivityFilter

	if q.From != "" {
		t, err := time.Parse(models.DateLayout, q.From)
		if err != nil {
			return f, errors.New("invalid from date")
		}
		f.From = &t
	}
	if q.To != "" {
		t, err := time.Parse(models.DateLayout, q.To)
		if err != nil {
			return f, errors.New("invalid to date")
		}
		f.To = &t
	}
	if q.VehicleID != "" {
		id, err := uuid.Parse(q.VehicleID)
		if err != nil {
			return f, errors.New("invalid vehicle ID")
		}
		f.VehicleID = &id
	}
	if q.DriverID != "" {
		id, err := uuid.Parse(q.DriverID)
		if err != nil {
			return f, errors.New("invalid driver ID")
		}
		f.DriverID = &id
	}
	if q.Status != "" {
		status := models.ActivityStatus(q.Status)
		if !status.IsValid() {
			return f, errors.New("invalid status")
		}
		f.Status = status
	}
	return f, nil
}
