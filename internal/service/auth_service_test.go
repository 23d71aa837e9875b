package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/repository/memory"
)

const testSecret = "test-secret-keep-out"

func TestRegisterAndLogin(t *testing.T) {
	users := memory.NewUserRepository()
	svc := NewAuthService(users, testSecret, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Minh", "minh@example.com", "hunter2hunter2", domain.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must never be returned")

	_, err = svc.Register(ctx, "Other", "minh@example.com", "hunter2hunter2", domain.RoleMember)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	token, loggedIn, err := svc.Login(ctx, "minh@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	// The token carries the id and role claims the middleware relies on
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims["uid"])
	assert.Equal(t, string(domain.RoleMember), claims["role"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := memory.NewUserRepository()
	svc := NewAuthService(users, testSecret, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Minh", "minh@example.com", "hunter2hunter2", domain.RoleMember)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "minh@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepository(), testSecret, time.Hour)
	_, err := svc.Register(context.Background(), "X", "x@example.com", "hunter2hunter2", domain.Role("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestCoachMemberPairing(t *testing.T) {
	users := memory.NewUserRepository()
	auth := NewAuthService(users, testSecret, time.Hour)
	coachSvc := NewCoachService(users)
	ctx := context.Background()

	coach, err := auth.Register(ctx, "Coach", "coach@example.com", "hunter2hunter2", domain.RoleCoach)
	require.NoError(t, err)
	member, err := auth.Register(ctx, "Member", "member@example.com", "hunter2hunter2", domain.RoleMember)
	require.NoError(t, err)

	paired, err := coachSvc.AddMemberByEmail(ctx, coach.ID, "member@example.com")
	require.NoError(t, err)
	require.NotNil(t, paired.CoachID)
	assert.Equal(t, coach.ID, *paired.CoachID)

	// Pairing again with the same coach is a no-op
	_, err = coachSvc.AddMemberByEmail(ctx, coach.ID, "member@example.com")
	assert.NoError(t, err)

	// Another coach cannot take an assigned member
	other, err := auth.Register(ctx, "Other", "other@example.com", "hunter2hunter2", domain.RoleCoach)
	require.NoError(t, err)
	_, err = coachSvc.AddMemberByEmail(ctx, other.ID, "member@example.com")
	assert.ErrorIs(t, err, ErrMemberAlreadyAssigned)

	// A coach account cannot be paired as a member
	_, err = coachSvc.AddMemberByEmail(ctx, coach.ID, "other@example.com")
	assert.ErrorIs(t, err, ErrMemberNotRole)

	_, err = coachSvc.AddMemberByEmail(ctx, coach.ID, "ghost@example.com")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	members, err := coachSvc.GetManagedMembers(ctx, coach.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, member.ID, members[0].ID)
}
