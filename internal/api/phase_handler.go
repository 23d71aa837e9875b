// internal/api/phase_handler.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/service"
)

type PhaseHandler struct {
	phaseService service.PhaseService
}

func NewPhaseHandler(phaseService service.PhaseService) *PhaseHandler {
	return &PhaseHandler{phaseService: phaseService}
}

type EditGoalsRequest struct {
	Goals []string `json:"goals"`
}

// GetPhases lists a plan's phases in order.
func (h *PhaseHandler) GetPhases(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	phases, err := h.phaseService.GetPhases(c.Request.Context(), planID)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, phases)
}

// MarkPhaseComplete completes one phase; strict order is enforced by the
// service.
func (h *PhaseHandler) MarkPhaseComplete(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	phaseID, ok := phaseIDParam(c)
	if !ok {
		return
	}
	_, role, ok := identity(c)
	if !ok {
		return
	}

	phase, err := h.phaseService.MarkPhaseComplete(c.Request.Context(), planID, phaseID, role)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, phase)
}

// EditPhaseGoals replaces the goal list of a phase (coach only, enforced in
// the route setup).
func (h *PhaseHandler) EditPhaseGoals(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	phaseID, ok := phaseIDParam(c)
	if !ok {
		return
	}
	var req EditGoalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	phase, err := h.phaseService.EditPhaseGoals(c.Request.Context(), planID, phaseID, req.Goals)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, phase)
}

func phaseIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	phaseID, err := primitive.ObjectIDFromHex(c.Param("phaseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid phase ID format.")
		return primitive.NilObjectID, false
	}
	return phaseID, true
}
