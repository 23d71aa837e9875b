package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/history"
	"quitwell/coaching-app/internal/repository/memory"
)

func TestGetHistoryPaginationAndFilters(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	users := memory.NewUserRepository()
	coach := &domain.User{Name: "Coach Anna", Email: "anna@example.com", Role: domain.RoleCoach}
	coachID, err := users.Create(ctx, coach)
	require.NoError(t, err)
	f.coachID = coachID

	hist := NewHistoryService(f.plans, users)

	// Three attempts: one cancelled draft, one denied, one active.
	draft := f.draft(t)
	_, err = f.svc.Cancel(ctx, draft.ID, f.memberID, domain.RoleMember)
	require.NoError(t, err)

	pending := f.draft(t)
	_, err = f.svc.Submit(ctx, pending.ID, f.memberID, domain.RoleMember)
	require.NoError(t, err)
	_, err = f.svc.Deny(ctx, pending.ID, coachID, "missing a relapse-prevention plan")
	require.NoError(t, err)

	f.activePlan(t)

	// Unfiltered, first page
	page, err := hist.GetHistory(ctx, f.memberID, history.Filter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	// Second page holds the remainder
	page, err = hist.GetHistory(ctx, f.memberID, history.Filter{}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	// Status filter
	page, err = hist.GetHistory(ctx, f.memberID, history.Filter{Status: domain.StatusDenied}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.StatusDenied, page.Items[0].Plan.Status)
	assert.Equal(t, "rejected", page.Items[0].Outcome)
	assert.True(t, page.Items[0].Progress.Suppressed)

	// Coach-name search resolves through the user store
	page, err = hist.GetHistory(ctx, f.memberID, history.Filter{Search: "anna"}, 1, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, page.Items)
	assert.Equal(t, "Coach Anna", page.Items[0].CoachName)
}

func TestGetHistoryEmptyMember(t *testing.T) {
	f := newEngine(t)
	hist := NewHistoryService(f.plans, memory.NewUserRepository())
	page, err := hist.GetHistory(context.Background(), f.memberID, history.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func TestGetHistoryPageBeyondEnd(t *testing.T) {
	f := newEngine(t)
	f.activePlan(t)
	hist := NewHistoryService(f.plans, memory.NewUserRepository())
	page, err := hist.GetHistory(context.Background(), f.memberID, history.Filter{}, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)
}
