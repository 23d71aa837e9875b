package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
)

func TestMarkPhaseCompleteStrictOrder(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	plan := f.activePlan(t)

	phases, err := f.phaseSvc.GetPhases(ctx, plan.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(phases), 3)

	// Skipping ahead is rejected and names the open phase
	_, err = f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, phases[2].ID, domain.RoleMember)
	require.ErrorIs(t, err, ErrPhaseOutOfOrder)
	assert.Contains(t, err.Error(), "phase 1")

	// In order works, and completing opens the next phase
	done, err := f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, phases[0].ID, domain.RoleMember)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	assert.Equal(t, 100, done.CompletionPercentage)
	require.NotNil(t, done.EndDate)

	refetched, err := f.phaseSvc.GetPhases(ctx, plan.ID)
	require.NoError(t, err)
	assert.NotNil(t, refetched[1].StartDate, "next phase opens on completion")

	_, err = f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, phases[1].ID, domain.RoleCoach)
	require.NoError(t, err)
}

func TestMarkPhaseCompleteIdempotent(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	plan := f.activePlan(t)
	phases, err := f.phaseSvc.GetPhases(ctx, plan.ID)
	require.NoError(t, err)

	_, err = f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, phases[0].ID, domain.RoleMember)
	require.NoError(t, err)
	again, err := f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, phases[0].ID, domain.RoleMember)
	require.NoError(t, err)
	assert.True(t, again.IsCompleted)
}

func TestMarkPhaseCompleteRequiresActivePlan(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	plan := f.activePlan(t)
	phases, err := f.phaseSvc.GetPhases(ctx, plan.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, plan.ID, f.memberID, domain.RoleMember)
	require.NoError(t, err)

	_, err = f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, phases[0].ID, domain.RoleMember)
	assert.ErrorIs(t, err, ErrPlanNotActive)
}

func TestMarkPhaseCompleteRejectsForeignPhase(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	plan := f.activePlan(t)

	_, err := f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, primitive.NewObjectID(), domain.RoleMember)
	assert.ErrorIs(t, err, ErrPhaseNotFound)

	other := f.activePlan(t)
	otherPhases, err := f.phaseSvc.GetPhases(ctx, other.ID)
	require.NoError(t, err)
	_, err = f.phaseSvc.MarkPhaseComplete(ctx, plan.ID, otherPhases[0].ID, domain.RoleMember)
	assert.ErrorIs(t, err, ErrPhaseNotInPlan)
}

func TestEditPhaseGoals(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	plan := f.activePlan(t)
	phases, err := f.phaseSvc.GetPhases(ctx, plan.ID)
	require.NoError(t, err)
	target := phases[0]

	edited, err := f.phaseSvc.EditPhaseGoals(ctx, plan.ID, target.ID, []string{"goal one", "", "goal two"})
	require.NoError(t, err)
	assert.Equal(t, []string{"goal one", "goal two"}, edited.Goals, "blank goals are dropped")

	// Emptying the list restores the template default
	restored, err := f.phaseSvc.EditPhaseGoals(ctx, plan.ID, target.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{target.RecommendGoal}, restored.Goals)

	// Goal edits never touch progression state
	assert.False(t, restored.IsCompleted)
	assert.Equal(t, target.PhaseOrder, restored.PhaseOrder)
}

func TestEditPhaseGoalsWrongPlan(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	plan := f.activePlan(t)
	phases, err := f.phaseSvc.GetPhases(ctx, plan.ID)
	require.NoError(t, err)

	_, err = f.phaseSvc.EditPhaseGoals(ctx, primitive.NewObjectID(), phases[0].ID, []string{"x"})
	assert.ErrorIs(t, err, ErrPhaseNotInPlan)
}

func TestGetPhasesOrderingInvariant(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	plan := f.activePlan(t)

	phases, err := f.phaseSvc.GetPhases(ctx, plan.ID)
	require.NoError(t, err)
	for i, p := range phases {
		assert.Equal(t, i+1, p.PhaseOrder, "contiguous ascending order starting at 1")
	}
}
