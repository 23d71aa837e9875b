// internal/api/coach_handler.go
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quitwell/coaching-app/internal/service"
)

type CoachHandler struct {
	coachService service.CoachService
}

func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

type AddMemberRequest struct {
	MemberEmail string `json:"memberEmail" binding:"required,email"`
}

// AddMemberByEmail pairs an existing member account with the authenticated
// coach.
func (h *CoachHandler) AddMemberByEmail(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, _, ok := identity(c)
	if !ok {
		return
	}

	member, err := h.coachService.AddMemberByEmail(c.Request.Context(), coachID, req.MemberEmail)
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrMemberNotRole) || errors.Is(err, service.ErrMemberAlreadyAssigned) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to add member")
		}
		return
	}
	c.JSON(http.StatusOK, toUserResponse(member))
}

// GetManagedMembers lists the coach's paired members.
func (h *CoachHandler) GetManagedMembers(c *gin.Context) {
	coachID, _, ok := identity(c)
	if !ok {
		return
	}

	members, err := h.coachService.GetManagedMembers(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list members")
		return
	}
	out := make([]UserResponse, 0, len(members))
	for i := range members {
		out = append(out, toUserResponse(&members[i]))
	}
	c.JSON(http.StatusOK, out)
}
