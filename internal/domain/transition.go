package domain

// Action identifies a lifecycle transition request.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve" // Coach approves a member-authored plan
	ActionDeny     Action = "deny"    // Coach denies a member-authored plan
	ActionAccept   Action = "accept"  // Member accepts a coach-authored plan
	ActionDecline  Action = "decline" // Member declines a coach-authored plan
	ActionComplete Action = "markComplete"
	ActionFail     Action = "markFailed"
	ActionUpdate   Action = "update" // Content edit, status unchanged
	ActionCancel   Action = "cancel"
)

// transitionRule binds an action available in a given state to the roles
// allowed to trigger it and the resulting state.
type transitionRule struct {
	roles []Role
	to    PlanStatus
}

// transitionTable is the single source of truth for which role may move a
// plan from which state, and where it lands. Cancel is handled separately
// because it applies from every non-terminal state.
var transitionTable = map[PlanStatus]map[Action]transitionRule{
	StatusDraft: {
		ActionSubmit: {roles: []Role{RoleMember, RoleCoach}, to: StatusPendingApproval},
	},
	StatusPendingApproval: {
		ActionApprove: {roles: []Role{RoleCoach}, to: StatusActive},
		ActionDeny:    {roles: []Role{RoleCoach}, to: StatusDenied},
		ActionAccept:  {roles: []Role{RoleMember}, to: StatusActive},
		ActionDecline: {roles: []Role{RoleMember}, to: StatusDenied},
	},
	StatusActive: {
		ActionComplete: {roles: []Role{RoleCoach}, to: StatusCompleted},
		ActionFail:     {roles: []Role{RoleCoach, RoleSystem}, to: StatusFailed},
		ActionUpdate:   {roles: []Role{RoleCoach}, to: StatusActive},
	},
}

var cancelRule = transitionRule{roles: []Role{RoleMember, RoleCoach}, to: StatusCancelled}

// NextStatus reports the state an action leads to from the given state.
// ok is false when the action is not defined there at all (regardless of role).
func NextStatus(from PlanStatus, action Action) (PlanStatus, bool) {
	if action == ActionCancel {
		if from.IsTerminal() {
			return "", false
		}
		return cancelRule.to, true
	}
	rule, ok := transitionTable[from][action]
	if !ok {
		return "", false
	}
	return rule.to, true
}

// RoleAllowed reports whether the role may trigger the action from the given
// state. Callers should check NextStatus first; RoleAllowed returns false for
// undefined (state, action) pairs as well.
func RoleAllowed(from PlanStatus, action Action, role Role) bool {
	var rule transitionRule
	if action == ActionCancel {
		if from.IsTerminal() {
			return false
		}
		rule = cancelRule
	} else {
		var ok bool
		rule, ok = transitionTable[from][action]
		if !ok {
			return false
		}
	}
	for _, r := range rule.roles {
		if r == role {
			return true
		}
	}
	return false
}

// FeedbackRequired reports whether the action must carry explanatory feedback.
func FeedbackRequired(action Action) bool {
	return action == ActionDeny || action == ActionDecline
}
