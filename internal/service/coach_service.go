package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrMemberNotFound        = errors.New("member user not found")
	ErrMemberNotRole         = errors.New("user found but is not a member")
	ErrMemberAlreadyAssigned = errors.New("member is already assigned to a coach")
)

// --- Service Interface ---

// CoachService manages the coach-member pairing that supplies the identities
// the lifecycle engine operates on.
type CoachService interface {
	AddMemberByEmail(ctx context.Context, coachID primitive.ObjectID, memberEmail string) (*domain.User, error)
	GetManagedMembers(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
}

// --- Service Implementation ---

type coachService struct {
	userRepo repository.UserRepository
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(userRepo repository.UserRepository) CoachService {
	return &coachService{userRepo: userRepo}
}

// AddMemberByEmail finds a member by email and pairs them with the coach.
func (s *coachService) AddMemberByEmail(ctx context.Context, coachID primitive.ObjectID, memberEmail string) (*domain.User, error) {
	// 1. Validate input
	if coachID == primitive.NilObjectID || memberEmail == "" {
		return nil, errors.New("coach ID and member email are required")
	}

	// 2. Find the candidate member
	member, err := s.userRepo.GetByEmail(ctx, memberEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	// 3. Verify the user is actually a member
	if member.Role != domain.RoleMember {
		return nil, ErrMemberNotRole
	}

	// 4. Refuse pairing when another coach already has them
	if member.CoachID != nil && *member.CoachID != primitive.NilObjectID {
		if *member.CoachID == coachID {
			return member, nil // Already paired with this coach
		}
		return nil, ErrMemberAlreadyAssigned
	}

	// 5. Pair both records
	if err := s.userRepo.AddMemberIDToCoach(ctx, coachID, member.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetCoachForMember(ctx, member.ID, coachID); err != nil {
		return nil, err
	}

	member.CoachID = &coachID
	return member, nil
}

// GetManagedMembers retrieves the members paired with the coach.
func (s *coachService) GetManagedMembers(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}
	members, err := s.userRepo.GetMembersByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].PasswordHash = ""
	}
	return members, nil
}
