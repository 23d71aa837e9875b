package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/repository"
)

func TestPlanUpdateRejectsStaleVersion(t *testing.T) {
	repo := NewPlanRepository()
	ctx := context.Background()

	plan := &domain.QuitPlan{MemberID: primitive.NewObjectID(), Status: domain.StatusDraft}
	_, err := repo.Create(ctx, plan)
	require.NoError(t, err)

	// Two readers fetch the same version
	first, err := repo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, plan.ID)
	require.NoError(t, err)

	first.Status = domain.StatusPendingApproval
	require.NoError(t, repo.Update(ctx, first))

	// The second writer lost the race
	second.Status = domain.StatusCancelled
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, repository.ErrConflict)

	// A refetch-and-retry succeeds
	fresh, err := repo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	fresh.Status = domain.StatusCancelled
	assert.NoError(t, repo.Update(ctx, fresh))
}

func TestPlanUpdateUnknownID(t *testing.T) {
	repo := NewPlanRepository()
	err := repo.Update(context.Background(), &domain.QuitPlan{ID: primitive.NewObjectID(), Version: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetByMemberIDSortsAndPaginates(t *testing.T) {
	repo := NewPlanRepository()
	ctx := context.Background()
	memberID := primitive.NewObjectID()

	for _, day := range []int{10, 5, 20} {
		start := time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
		plan := &domain.QuitPlan{MemberID: memberID, Status: domain.StatusDraft, StartDate: &start}
		_, err := repo.Create(ctx, plan)
		require.NoError(t, err)
	}

	plans, total, err := repo.GetByMemberID(ctx, memberID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, plans, 2)
	assert.Equal(t, 20, plans[0].StartDate.Day())
	assert.Equal(t, 10, plans[1].StartDate.Day())

	plans, _, err = repo.GetByMemberID(ctx, memberID, 2, 2)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, 5, plans[0].StartDate.Day())
}

func TestClearNewestForMember(t *testing.T) {
	repo := NewPlanRepository()
	ctx := context.Background()
	memberID := primitive.NewObjectID()

	old := &domain.QuitPlan{MemberID: memberID, Status: domain.StatusActive, IsNewest: true}
	_, err := repo.Create(ctx, old)
	require.NoError(t, err)
	current := &domain.QuitPlan{MemberID: memberID, Status: domain.StatusActive, IsNewest: true}
	_, err = repo.Create(ctx, current)
	require.NoError(t, err)

	require.NoError(t, repo.ClearNewestForMember(ctx, memberID, current.ID))

	newest, err := repo.GetNewestByMemberID(ctx, memberID)
	require.NoError(t, err)
	assert.Equal(t, current.ID, newest.ID)

	cleared, err := repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, cleared.IsNewest)
}
