package handlers

import (
	"context"
	"fleet-backend/services"
	"fleet-backend/utils"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /functions/generate-automatic-activities
// Called once a day by an external scheduler.
func (h *Handler) GenerateAutomaticActivities(c *gin.Context) {
	var opts services.RunOptions

	if raw := c.Query("organization_id"); raw != "" {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid organization ID")
			return
		}
		opts.OrganizationID = &orgID
	}
	if raw := c.Query("force"); raw != "" {
		force, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid force flag")
			return
		}
		opts.Force = force
	}

	// A started run finishes even if the caller disconnects.
	summary, err := h.generator.Run(context.WithoutCancel(c.Request.Context()), opts)
	if err != nil {
		log.Printf("❌ Automatic activity run failed: %v", err)
		utils.InternalError(c, err.Error())
		return
	}

	message := "Automatic activities generated successfully"
	if summary.Skipped {
		message = "Automatic activities were already generated today"
	}
	utils.SuccessResponse(c, http.StatusOK, message, summary)
}

// OPTIONS /functions/generate-automatic-activities
// Pre-flights carrying an Origin are answered by the CORS middleware first.
func (h *Handler) GeneratePreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	c.String(http.StatusOK, "ok")
}
