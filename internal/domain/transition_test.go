package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []PlanStatus{
	StatusDraft, StatusPendingApproval, StatusActive,
	StatusDenied, StatusCompleted, StatusFailed, StatusCancelled,
}

var allActions = []Action{
	ActionSubmit, ActionApprove, ActionDeny, ActionAccept, ActionDecline,
	ActionComplete, ActionFail, ActionUpdate, ActionCancel,
}

var allRoles = []Role{RoleMember, RoleCoach, RoleAdmin, RoleSystem}

// allowedCombos mirrors the lifecycle table independently of the
// implementation: (from, action, role) -> to.
type combo struct {
	from   PlanStatus
	action Action
	role   Role
}

var allowedCombos = map[combo]PlanStatus{
	{StatusDraft, ActionSubmit, RoleMember}:            StatusPendingApproval,
	{StatusDraft, ActionSubmit, RoleCoach}:             StatusPendingApproval,
	{StatusPendingApproval, ActionApprove, RoleCoach}:  StatusActive,
	{StatusPendingApproval, ActionDeny, RoleCoach}:     StatusDenied,
	{StatusPendingApproval, ActionAccept, RoleMember}:  StatusActive,
	{StatusPendingApproval, ActionDecline, RoleMember}: StatusDenied,
	{StatusActive, ActionComplete, RoleCoach}:          StatusCompleted,
	{StatusActive, ActionFail, RoleCoach}:              StatusFailed,
	{StatusActive, ActionFail, RoleSystem}:             StatusFailed,
	{StatusActive, ActionUpdate, RoleCoach}:            StatusActive,
	{StatusDraft, ActionCancel, RoleMember}:            StatusCancelled,
	{StatusDraft, ActionCancel, RoleCoach}:             StatusCancelled,
	{StatusPendingApproval, ActionCancel, RoleMember}:  StatusCancelled,
	{StatusPendingApproval, ActionCancel, RoleCoach}:   StatusCancelled,
	{StatusActive, ActionCancel, RoleMember}:           StatusCancelled,
	{StatusActive, ActionCancel, RoleCoach}:            StatusCancelled,
}

// TestTransitionTableExhaustive checks every (state, action, role)
// combination: allowed iff present in the table, with the expected result.
func TestTransitionTableExhaustive(t *testing.T) {
	for _, from := range allStatuses {
		for _, action := range allActions {
			for _, role := range allRoles {
				want, allowed := allowedCombos[combo{from, action, role}]
				got := RoleAllowed(from, action, role)
				assert.Equal(t, allowed, got, "from=%s action=%s role=%s", from, action, role)
				if allowed {
					next, ok := NextStatus(from, action)
					assert.True(t, ok)
					assert.Equal(t, want, next, "from=%s action=%s", from, action)
				}
			}
		}
	}
}

func TestNextStatusUndefinedFromTerminal(t *testing.T) {
	for _, from := range []PlanStatus{StatusDenied, StatusCompleted, StatusFailed, StatusCancelled} {
		for _, action := range allActions {
			_, ok := NextStatus(from, action)
			assert.False(t, ok, "terminal state %s must not allow %s", from, action)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusDraft.IsTerminal())
	assert.False(t, StatusPendingApproval.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.True(t, StatusDenied.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestFeedbackRequired(t *testing.T) {
	assert.True(t, FeedbackRequired(ActionDeny))
	assert.True(t, FeedbackRequired(ActionDecline))
	assert.False(t, FeedbackRequired(ActionApprove))
	assert.False(t, FeedbackRequired(ActionCancel))
}

func TestParsePlanStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want PlanStatus
		ok   bool
	}{
		{"ACTIVE", StatusActive, true},
		{"approved", StatusActive, true},
		{"in_progress", StatusActive, true},
		{"REJECTED", StatusDenied, true},
		{"denied", StatusDenied, true},
		{" completed ", StatusCompleted, true},
		{"Canceled", StatusCancelled, true},
		{"CANCELLED", StatusCancelled, true},
		{"pending", StatusPendingApproval, true},
		{"bogus", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePlanStatus(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
		}
	}
}
