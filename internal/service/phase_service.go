package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrPhaseNotFound    = errors.New("phase not found")
	ErrPhaseOutOfOrder  = errors.New("phases complete in strict order")
	ErrPhaseNotInPlan   = errors.New("phase does not belong to this plan")
	ErrPlanNotActive    = errors.New("plan is not active")
	ErrPhaseOrderBroken = errors.New("phase ordering is not a contiguous sequence")
)

// --- Service Interface ---

// PhaseService manages phase execution on an active plan: strict-order
// completion and goal editing.
type PhaseService interface {
	GetPhases(ctx context.Context, planID primitive.ObjectID) ([]domain.QuitPhase, error)
	// MarkPhaseComplete completes the given phase. Phases complete in strict
	// order: every phase with a lower phaseOrder must already be completed.
	MarkPhaseComplete(ctx context.Context, planID, phaseID primitive.ObjectID, role domain.Role) (*domain.QuitPhase, error)
	// EditPhaseGoals replaces the goal list of a phase. An empty list
	// restores the template default (the single recommended goal).
	EditPhaseGoals(ctx context.Context, planID, phaseID primitive.ObjectID, goals []string) (*domain.QuitPhase, error)
}

// --- Service Implementation ---

type phaseService struct {
	planRepo  repository.PlanRepository
	phaseRepo repository.PhaseRepository
	now       func() time.Time
}

// NewPhaseService creates a new phase service.
func NewPhaseService(planRepo repository.PlanRepository, phaseRepo repository.PhaseRepository) PhaseService {
	return &phaseService{
		planRepo:  planRepo,
		phaseRepo: phaseRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetPhases returns a plan's phases in phase order, verifying the
// contiguous-ordering invariant on the way out.
func (s *phaseService) GetPhases(ctx context.Context, planID primitive.ObjectID) ([]domain.QuitPhase, error) {
	phases, err := s.phaseRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := verifyOrdering(phases); err != nil {
		return nil, err
	}
	return phases, nil
}

func (s *phaseService) MarkPhaseComplete(ctx context.Context, planID, phaseID primitive.ObjectID, role domain.Role) (*domain.QuitPhase, error) {
	// 1. The plan must exist and be ACTIVE
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID.Hex())
		}
		return nil, err
	}
	if plan.Status != domain.StatusActive {
		return nil, fmt.Errorf("%w: plan %s is %s", ErrPlanNotActive, planID.Hex(), plan.Status)
	}
	if role != domain.RoleCoach && role != domain.RoleMember {
		return nil, fmt.Errorf("%w: plan %s, action %q, status %s", ErrForbidden, planID.Hex(), "markPhaseComplete", plan.Status)
	}

	// 2. Load the full sequence and locate the target
	phases, err := s.phaseRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := verifyOrdering(phases); err != nil {
		return nil, err
	}
	var target *domain.QuitPhase
	for i := range phases {
		if phases[i].ID == phaseID {
			target = &phases[i]
			break
		}
	}
	if target == nil {
		if _, err := s.phaseRepo.GetByID(ctx, phaseID); errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPhaseNotFound, phaseID.Hex())
		}
		return nil, fmt.Errorf("%w: phase %s, plan %s", ErrPhaseNotInPlan, phaseID.Hex(), planID.Hex())
	}
	if target.IsCompleted {
		return target, nil // Already done; idempotent
	}

	// 3. No skipping: every earlier phase must be completed
	for i := range phases {
		if phases[i].PhaseOrder < target.PhaseOrder && !phases[i].IsCompleted {
			return nil, fmt.Errorf("%w: phase %d is still open", ErrPhaseOutOfOrder, phases[i].PhaseOrder)
		}
	}

	// 4. Complete the phase and open the next one
	now := s.now()
	target.IsCompleted = true
	target.CompletionPercentage = 100
	target.EndDate = &now
	if err := s.phaseRepo.Update(ctx, target); err != nil {
		return nil, err
	}
	for i := range phases {
		if phases[i].PhaseOrder == target.PhaseOrder+1 && phases[i].StartDate == nil {
			start := now
			phases[i].StartDate = &start
			if err := s.phaseRepo.Update(ctx, &phases[i]); err != nil {
				return nil, err
			}
			break
		}
	}
	return target, nil
}

func (s *phaseService) EditPhaseGoals(ctx context.Context, planID, phaseID primitive.ObjectID, goals []string) (*domain.QuitPhase, error) {
	phase, err := s.phaseRepo.GetByID(ctx, phaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPhaseNotFound, phaseID.Hex())
		}
		return nil, err
	}
	if phase.PlanID != planID {
		return nil, fmt.Errorf("%w: phase %s, plan %s", ErrPhaseNotInPlan, phaseID.Hex(), planID.Hex())
	}

	// Goal lists are editable independently of phase progression.
	cleaned := make([]string, 0, len(goals))
	for _, g := range goals {
		if g != "" {
			cleaned = append(cleaned, g)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{phase.RecommendGoal}
	}
	phase.Goals = cleaned
	if err := s.phaseRepo.Update(ctx, phase); err != nil {
		return nil, err
	}
	return phase, nil
}

// verifyOrdering checks the invariant that phaseOrder is a contiguous
// ascending sequence starting at 1.
func verifyOrdering(phases []domain.QuitPhase) error {
	for i := range phases {
		if phases[i].PhaseOrder != i+1 {
			return fmt.Errorf("%w: position %d carries order %d", ErrPhaseOrderBroken, i+1, phases[i].PhaseOrder)
		}
	}
	return nil
}
