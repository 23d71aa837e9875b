package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("stale version") // Optimistic-concurrency precondition failed
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddMemberIDToCoach(ctx context.Context, coachID, memberID primitive.ObjectID) error
	SetCoachForMember(ctx context.Context, memberID, coachID primitive.ObjectID) error
	GetMembersByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
}

// PlanRepository defines the interface for interacting with quit-plan data.
// Update is version-checked: the write only applies when the stored version
// equals the version the caller read; otherwise ErrConflict is returned so
// the caller can refetch and retry.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.QuitPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.QuitPlan, error)
	Update(ctx context.Context, plan *domain.QuitPlan) error
	GetNewestByMemberID(ctx context.Context, memberID primitive.ObjectID) (*domain.QuitPlan, error)
	// GetByMemberID returns the member's plans sorted by startDate descending,
	// paginated; page is 1-based. total is the unpaginated count.
	GetByMemberID(ctx context.Context, memberID primitive.ObjectID, page, pageSize int) (plans []domain.QuitPlan, total int64, err error)
	// ClearNewestForMember drops the isNewest flag on every plan of the
	// member except the given one. Used when a plan becomes authoritative.
	ClearNewestForMember(ctx context.Context, memberID, exceptPlanID primitive.ObjectID) error
	// GetOverdueActive returns ACTIVE plans whose endDate lies before the
	// given instant. Feeds the expiry sweep.
	GetOverdueActive(ctx context.Context, before time.Time) ([]domain.QuitPlan, error)
}

// PhaseRepository defines the interface for interacting with phase data.
type PhaseRepository interface {
	CreateMany(ctx context.Context, phases []domain.QuitPhase) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.QuitPhase, error)
	// GetByPlanID returns the plan's phases sorted by phaseOrder ascending.
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.QuitPhase, error)
	Update(ctx context.Context, phase *domain.QuitPhase) error
}
