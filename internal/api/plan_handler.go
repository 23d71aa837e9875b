// internal/api/plan_handler.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/service"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

type PlanContentRequest struct {
	Motivation             string `json:"motivation,omitempty"`
	CopingStrategies       string `json:"copingStrategies,omitempty"`
	Medications            string `json:"medications,omitempty"`
	MedicationInstructions string `json:"medicationInstructions,omitempty"`
	Triggers               string `json:"triggers,omitempty"`
	RelapsePrevention      string `json:"relapsePrevention,omitempty"`
	SupportResources       string `json:"supportResources,omitempty"`
	RewardPlan             string `json:"rewardPlan,omitempty"`
	AdditionalNotes        string `json:"additionalNotes,omitempty"`
}

func (r PlanContentRequest) toDomain() domain.PlanContent {
	return domain.PlanContent{
		Motivation:             r.Motivation,
		CopingStrategies:       r.CopingStrategies,
		Medications:            r.Medications,
		MedicationInstructions: r.MedicationInstructions,
		Triggers:               r.Triggers,
		RelapsePrevention:      r.RelapsePrevention,
		SupportResources:       r.SupportResources,
		RewardPlan:             r.RewardPlan,
		AdditionalNotes:        r.AdditionalNotes,
	}
}

type CreatePlanRequest struct {
	MemberID  string             `json:"memberId,omitempty"` // Coaches author drafts for a member; members omit it
	Severity  string             `json:"severity" binding:"required,oneof=LOW MEDIUM HIGH SEVERE"`
	StartDate time.Time          `json:"startDate" binding:"required"`
	EndDate   time.Time          `json:"endDate" binding:"required"`
	Content   PlanContentRequest `json:"content"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

type EvaluationRequest struct {
	Evaluation string `json:"evaluation" binding:"required"`
}

// --- Handlers ---

// CreateDraft opens a new draft plan. A member creates their own; a coach
// creates one on behalf of a managed member (the member then accepts it).
func (h *PlanHandler) CreateDraft(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	actorID, role, ok := identity(c)
	if !ok {
		return
	}

	input := service.CreateDraftInput{
		Severity:  domain.SeverityTier(req.Severity),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Content:   req.Content.toDomain(),
	}
	switch role {
	case domain.RoleMember:
		input.MemberID = actorID
	case domain.RoleCoach:
		memberID, err := primitive.ObjectIDFromHex(req.MemberID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "A valid memberId is required when a coach authors a plan.")
			return
		}
		input.MemberID = memberID
		coachID := actorID
		input.CoachID = &coachID
	default:
		abortWithError(c, http.StatusForbidden, "Only members and coaches create plans.")
		return
	}

	plan, err := h.planService.CreateDraft(c.Request.Context(), input)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *PlanHandler) Submit(c *gin.Context) {
	h.simpleTransition(c, func(planID, actorID primitive.ObjectID, role domain.Role, _ string) (*domain.QuitPlan, error) {
		return h.planService.Submit(c.Request.Context(), planID, actorID, role)
	})
}

func (h *PlanHandler) Approve(c *gin.Context) {
	h.simpleTransition(c, func(planID, actorID primitive.ObjectID, _ domain.Role, feedback string) (*domain.QuitPlan, error) {
		return h.planService.Approve(c.Request.Context(), planID, actorID, feedback)
	})
}

func (h *PlanHandler) Deny(c *gin.Context) {
	h.simpleTransition(c, func(planID, actorID primitive.ObjectID, _ domain.Role, feedback string) (*domain.QuitPlan, error) {
		return h.planService.Deny(c.Request.Context(), planID, actorID, feedback)
	})
}

func (h *PlanHandler) Accept(c *gin.Context) {
	h.simpleTransition(c, func(planID, actorID primitive.ObjectID, _ domain.Role, _ string) (*domain.QuitPlan, error) {
		return h.planService.Accept(c.Request.Context(), planID, actorID)
	})
}

func (h *PlanHandler) Decline(c *gin.Context) {
	h.simpleTransition(c, func(planID, actorID primitive.ObjectID, _ domain.Role, feedback string) (*domain.QuitPlan, error) {
		return h.planService.Decline(c.Request.Context(), planID, actorID, feedback)
	})
}

func (h *PlanHandler) Cancel(c *gin.Context) {
	h.simpleTransition(c, func(planID, actorID primitive.ObjectID, role domain.Role, _ string) (*domain.QuitPlan, error) {
		return h.planService.Cancel(c.Request.Context(), planID, actorID, role)
	})
}

func (h *PlanHandler) MarkFailed(c *gin.Context) {
	h.simpleTransition(c, func(planID, actorID primitive.ObjectID, role domain.Role, _ string) (*domain.QuitPlan, error) {
		return h.planService.MarkFailed(c.Request.Context(), planID, actorID.Hex(), role)
	})
}

// MarkComplete closes an active plan; an optional evaluation may ride along.
func (h *PlanHandler) MarkComplete(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	actorID, _, ok := identity(c)
	if !ok {
		return
	}
	var req EvaluationRequest
	_ = c.ShouldBindJSON(&req) // Body is optional here

	plan, err := h.planService.MarkComplete(c.Request.Context(), planID, actorID, req.Evaluation)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// UpdateContent edits the free-text fields of an active plan.
func (h *PlanHandler) UpdateContent(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	actorID, _, ok := identity(c)
	if !ok {
		return
	}
	var req PlanContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.UpdateContent(c.Request.Context(), planID, actorID, req.toDomain())
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// SetEvaluation attaches the coach sign-off to a completed plan.
func (h *PlanHandler) SetEvaluation(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	actorID, _, ok := identity(c)
	if !ok {
		return
	}
	var req EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.SetFinalEvaluation(c.Request.Context(), planID, actorID, req.Evaluation)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// --- Reads ---

func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetNewestPlan returns the member's authoritative plan; 204 when the
// member has never had one.
func (h *PlanHandler) GetNewestPlan(c *gin.Context) {
	memberID, err := primitive.ObjectIDFromHex(c.Param("memberId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid member ID format.")
		return
	}
	plan, err := h.planService.GetNewestPlan(c.Request.Context(), memberID)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	if plan == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) GetProgress(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	p, err := h.planService.GetProgress(c.Request.Context(), planID)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PlanHandler) GetOutcomeLabel(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	label, present, err := h.planService.GetOutcomeLabel(c.Request.Context(), planID)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label, "present": present})
}

// --- Helpers ---

// simpleTransition factors the shared shape of the one-shot transition
// endpoints: path param, identity, optional feedback body, error mapping.
func (h *PlanHandler) simpleTransition(c *gin.Context, apply func(planID, actorID primitive.ObjectID, role domain.Role, feedback string) (*domain.QuitPlan, error)) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	actorID, role, ok := identity(c)
	if !ok {
		return
	}
	var req FeedbackRequest
	_ = c.ShouldBindJSON(&req) // Feedback body required only for deny/decline; the engine validates

	plan, err := apply(planID, actorID, role, req.Feedback)
	if err != nil {
		mapPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func planIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	planID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return primitive.NilObjectID, false
	}
	return planID, true
}

// identity pulls the authenticated user's id and role from the context.
func identity(c *gin.Context) (primitive.ObjectID, domain.Role, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return primitive.NilObjectID, "", false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, "", false
	}
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to determine role from token.")
		return primitive.NilObjectID, "", false
	}
	return id, role, true
}

// mapPlanError maps lifecycle engine errors to HTTP status codes.
func mapPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrPhaseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPhasesIncomplete),
		errors.Is(err, service.ErrPhaseOutOfOrder),
		errors.Is(err, service.ErrPhaseNotInPlan),
		errors.Is(err, service.ErrPlanNotActive):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConflict):
		// Stale version: the client should refetch and retry.
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
