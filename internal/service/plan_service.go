package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/notifier"
	"quitwell/coaching-app/internal/progress"
	"quitwell/coaching-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound      = errors.New("plan not found")
	ErrInvalidTransition = errors.New("action not allowed from current plan status")
	ErrForbidden         = errors.New("role not permitted for this action")
	ErrValidation        = errors.New("validation failed")
	ErrPhasesIncomplete  = errors.New("plan has incomplete phases")
	ErrConflict          = errors.New("plan was modified concurrently, retry with fresh state")
)

// Policy defaults; overridable via configuration.
const (
	DefaultMinPlanDurationDays = 30
	DefaultMinFeedbackLength   = 20
)

// CreateDraftInput carries everything needed to open a new draft plan.
type CreateDraftInput struct {
	MemberID  primitive.ObjectID
	CoachID   *primitive.ObjectID // May be unset while a draft
	Severity  domain.SeverityTier
	StartDate time.Time
	EndDate   time.Time
	Content   domain.PlanContent
}

// --- Service Interface ---

// PlanService is the lifecycle engine: it validates and applies status
// transitions, enforces role gating, maintains the single-newest-plan
// invariant, and attaches phases on activation.
type PlanService interface {
	CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.QuitPlan, error)
	Submit(ctx context.Context, planID, actorID primitive.ObjectID, role domain.Role) (*domain.QuitPlan, error)
	Approve(ctx context.Context, planID, coachID primitive.ObjectID, feedback string) (*domain.QuitPlan, error)
	Deny(ctx context.Context, planID, coachID primitive.ObjectID, feedback string) (*domain.QuitPlan, error)
	Accept(ctx context.Context, planID, memberID primitive.ObjectID) (*domain.QuitPlan, error)
	Decline(ctx context.Context, planID, memberID primitive.ObjectID, feedback string) (*domain.QuitPlan, error)
	UpdateContent(ctx context.Context, planID, coachID primitive.ObjectID, patch domain.PlanContent) (*domain.QuitPlan, error)
	MarkComplete(ctx context.Context, planID, coachID primitive.ObjectID, finalEvaluation string) (*domain.QuitPlan, error)
	MarkFailed(ctx context.Context, planID primitive.ObjectID, actorID string, role domain.Role) (*domain.QuitPlan, error)
	Cancel(ctx context.Context, planID, actorID primitive.ObjectID, role domain.Role) (*domain.QuitPlan, error)
	SetFinalEvaluation(ctx context.Context, planID, coachID primitive.ObjectID, evaluation string) (*domain.QuitPlan, error)
	// ExpireOverdue marks every ACTIVE plan past its end date as FAILED.
	// Background policy, idempotent, no user role involved.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)

	GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.QuitPlan, error)
	GetNewestPlan(ctx context.Context, memberID primitive.ObjectID) (*domain.QuitPlan, error)
	GetProgress(ctx context.Context, planID primitive.ObjectID) (progress.Progress, error)
	GetOutcomeLabel(ctx context.Context, planID primitive.ObjectID) (string, bool, error)
}

// --- Service Implementation ---

type planService struct {
	planRepo  repository.PlanRepository
	phaseRepo repository.PhaseRepository
	notifier  notifier.Notifier

	minDurationDays   int
	minFeedbackLength int
	now               func() time.Time // Injectable clock for tests
}

// NewPlanService creates a new lifecycle engine. minDurationDays and
// minFeedbackLength fall back to policy defaults when non-positive.
func NewPlanService(
	planRepo repository.PlanRepository,
	phaseRepo repository.PhaseRepository,
	n notifier.Notifier,
	minDurationDays, minFeedbackLength int,
) PlanService {
	if minDurationDays <= 0 {
		minDurationDays = DefaultMinPlanDurationDays
	}
	if minFeedbackLength <= 0 {
		minFeedbackLength = DefaultMinFeedbackLength
	}
	if n == nil {
		n = notifier.NewLogNotifier()
	}
	return &planService{
		planRepo:          planRepo,
		phaseRepo:         phaseRepo,
		notifier:          n,
		minDurationDays:   minDurationDays,
		minFeedbackLength: minFeedbackLength,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// === Creation ===

// CreateDraft opens a new DRAFT plan for a member.
func (s *planService) CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.QuitPlan, error) {
	// 1. Validate input
	if input.MemberID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: member ID is required", ErrValidation)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	minEnd := input.StartDate.AddDate(0, 0, s.minDurationDays)
	if input.EndDate.Before(minEnd) {
		return nil, fmt.Errorf("%w: plan must run at least %d days", ErrValidation, s.minDurationDays)
	}
	severity := input.Severity
	if _, ok := domain.ParseSeverityTier(string(severity)); !ok {
		return nil, fmt.Errorf("%w: unknown severity tier %q", ErrValidation, severity)
	}

	// 2. Build and persist the draft
	start := input.StartDate
	end := input.EndDate
	plan := &domain.QuitPlan{
		MemberID:  input.MemberID,
		CoachID:   input.CoachID,
		Status:    domain.StatusDraft,
		Severity:  severity,
		StartDate: &start,
		EndDate:   &end,
		Content:   input.Content,
	}
	id, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return plan, nil
}

// === Transitions ===

func (s *planService) Submit(ctx context.Context, planID, actorID primitive.ObjectID, role domain.Role) (*domain.QuitPlan, error) {
	return s.transition(ctx, planID, domain.ActionSubmit, actorID.Hex(), role, "")
}

// Approve is the coach-side approval of a member-authored plan. It activates
// the plan: stamps the start date if unset, promotes it to the member's
// newest plan, and decomposes phases from the severity tier when none exist.
func (s *planService) Approve(ctx context.Context, planID, coachID primitive.ObjectID, feedback string) (*domain.QuitPlan, error) {
	return s.activate(ctx, planID, domain.ActionApprove, coachID.Hex(), domain.RoleCoach, feedback)
}

// Accept is the member-side counterpart for coach-authored plans; it shares
// all activation semantics with Approve.
func (s *planService) Accept(ctx context.Context, planID, memberID primitive.ObjectID) (*domain.QuitPlan, error) {
	return s.activate(ctx, planID, domain.ActionAccept, memberID.Hex(), domain.RoleMember, "")
}

func (s *planService) Deny(ctx context.Context, planID, coachID primitive.ObjectID, feedback string) (*domain.QuitPlan, error) {
	return s.transition(ctx, planID, domain.ActionDeny, coachID.Hex(), domain.RoleCoach, feedback)
}

func (s *planService) Decline(ctx context.Context, planID, memberID primitive.ObjectID, feedback string) (*domain.QuitPlan, error) {
	return s.transition(ctx, planID, domain.ActionDecline, memberID.Hex(), domain.RoleMember, feedback)
}

func (s *planService) Cancel(ctx context.Context, planID, actorID primitive.ObjectID, role domain.Role) (*domain.QuitPlan, error) {
	return s.transition(ctx, planID, domain.ActionCancel, actorID.Hex(), role, "")
}

// UpdateContent edits the free-text content of an ACTIVE plan. Status is
// untouched; the edit is still recorded in the audit trail and version-checked.
func (s *planService) UpdateContent(ctx context.Context, planID, coachID primitive.ObjectID, patch domain.PlanContent) (*domain.QuitPlan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.NextStatus(plan.Status, domain.ActionUpdate); !ok {
		return nil, s.transitionError(ErrInvalidTransition, plan, domain.ActionUpdate)
	}
	if !domain.RoleAllowed(plan.Status, domain.ActionUpdate, domain.RoleCoach) {
		return nil, s.transitionError(ErrForbidden, plan, domain.ActionUpdate)
	}
	mergeContent(&plan.Content, patch)
	return s.commit(ctx, plan, makeRecord(plan, domain.ActionUpdate, coachID.Hex(), domain.RoleCoach, "", s.now()))
}

// MarkComplete closes an ACTIVE plan successfully. Every phase must be
// completed first; otherwise the error names the number remaining.
func (s *planService) MarkComplete(ctx context.Context, planID, coachID primitive.ObjectID, finalEvaluation string) (*domain.QuitPlan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if _, ok := domain.NextStatus(plan.Status, domain.ActionComplete); !ok {
		return nil, s.transitionError(ErrInvalidTransition, plan, domain.ActionComplete)
	}
	if !domain.RoleAllowed(plan.Status, domain.ActionComplete, domain.RoleCoach) {
		return nil, s.transitionError(ErrForbidden, plan, domain.ActionComplete)
	}

	phases, err := s.phaseRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	remaining := 0
	for _, p := range phases {
		if !p.IsCompleted {
			remaining++
		}
	}
	if remaining > 0 {
		return nil, fmt.Errorf("%w: cannot complete plan %s: %d phases remaining", ErrPhasesIncomplete, planID.Hex(), remaining)
	}

	record := makeRecord(plan, domain.ActionComplete, coachID.Hex(), domain.RoleCoach, "", s.now())
	plan.Status = domain.StatusCompleted
	plan.FinalEvaluation = strings.TrimSpace(finalEvaluation)
	return s.commit(ctx, plan, record)
}

// MarkFailed closes an ACTIVE plan unsuccessfully. Triggerable by a coach or
// by the background expiry policy; re-applying to an already-FAILED plan is
// a no-op, not an error.
func (s *planService) MarkFailed(ctx context.Context, planID primitive.ObjectID, actorID string, role domain.Role) (*domain.QuitPlan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == domain.StatusFailed {
		return plan, nil
	}
	return s.applyTransition(ctx, plan, domain.ActionFail, actorID, role, "")
}

// SetFinalEvaluation attaches or replaces the coach sign-off on a COMPLETED
// plan. The only mutation allowed after a plan reaches a terminal state.
func (s *planService) SetFinalEvaluation(ctx context.Context, planID, coachID primitive.ObjectID, evaluation string) (*domain.QuitPlan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: final evaluation requires a completed plan (plan %s is %s)",
			ErrInvalidTransition, planID.Hex(), plan.Status)
	}
	evaluation = strings.TrimSpace(evaluation)
	if evaluation == "" {
		return nil, fmt.Errorf("%w: evaluation text is required", ErrValidation)
	}
	plan.FinalEvaluation = evaluation
	if err := s.update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ExpireOverdue sweeps ACTIVE plans whose end date has passed and marks them
// FAILED as the system actor. Conflicts are skipped; the next sweep retries.
func (s *planService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.planRepo.GetOverdueActive(ctx, now)
	if err != nil {
		return 0, err
	}
	failed := 0
	for i := range overdue {
		plan := overdue[i]
		if _, err := s.applyTransition(ctx, &plan, domain.ActionFail, "", domain.RoleSystem, ""); err != nil {
			log.Printf("WARN: expiry sweep: plan %s: %v", plan.ID.Hex(), err)
			continue
		}
		failed++
	}
	return failed, nil
}

// === Reads ===

func (s *planService) GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.QuitPlan, error) {
	return s.getPlan(ctx, planID)
}

// GetNewestPlan returns the member's authoritative plan, or nil when the
// member has never had one.
func (s *planService) GetNewestPlan(ctx context.Context, memberID primitive.ObjectID) (*domain.QuitPlan, error) {
	plan, err := s.planRepo.GetNewestByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) GetProgress(ctx context.Context, planID primitive.ObjectID) (progress.Progress, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return progress.Progress{}, err
	}
	return progress.ComputeProgress(plan, s.now()), nil
}

func (s *planService) GetOutcomeLabel(ctx context.Context, planID primitive.ObjectID) (string, bool, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return "", false, err
	}
	label, ok := progress.OutcomeLabel(plan, s.now())
	return label, ok, nil
}

// === Internals ===

// transition loads, validates, and applies a plain status transition.
func (s *planService) transition(ctx context.Context, planID primitive.ObjectID, action domain.Action, actorID string, role domain.Role, feedback string) (*domain.QuitPlan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, plan, action, actorID, role, feedback)
}

// activate handles the approve/accept pair: the shared activation steps run
// on top of the plain transition.
func (s *planService) activate(ctx context.Context, planID primitive.ObjectID, action domain.Action, actorID string, role domain.Role, feedback string) (*domain.QuitPlan, error) {
	plan, err := s.getPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	next, ok := domain.NextStatus(plan.Status, action)
	if !ok {
		return nil, s.transitionError(ErrInvalidTransition, plan, action)
	}
	if !domain.RoleAllowed(plan.Status, action, role) {
		return nil, s.transitionError(ErrForbidden, plan, action)
	}

	record := makeRecord(plan, action, actorID, role, strings.TrimSpace(feedback), s.now())
	record.To = next
	plan.Status = next
	if plan.StartDate == nil {
		start := s.now()
		plan.StartDate = &start
	}
	plan.IsNewest = true

	updated, err := s.commit(ctx, plan, record)
	if err != nil {
		return nil, err
	}

	// The newly active plan supersedes the member's previous newest.
	if err := s.planRepo.ClearNewestForMember(ctx, plan.MemberID, plan.ID); err != nil {
		return nil, err
	}

	// Attach phases on first activation.
	existing, err := s.phaseRepo.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		phases := domain.AttachGoals(domain.Decompose(plan.Severity), nil)
		start := *plan.StartDate
		for i := range phases {
			phases[i].PlanID = plan.ID
			if i == 0 {
				first := start
				phases[i].StartDate = &first
			}
		}
		if err := s.phaseRepo.CreateMany(ctx, phases); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// applyTransition validates the action against the transition table and role
// gating, enforces required feedback, and commits the status change.
func (s *planService) applyTransition(ctx context.Context, plan *domain.QuitPlan, action domain.Action, actorID string, role domain.Role, feedback string) (*domain.QuitPlan, error) {
	next, ok := domain.NextStatus(plan.Status, action)
	if !ok {
		return nil, s.transitionError(ErrInvalidTransition, plan, action)
	}
	if !domain.RoleAllowed(plan.Status, action, role) {
		return nil, s.transitionError(ErrForbidden, plan, action)
	}
	feedback = strings.TrimSpace(feedback)
	if domain.FeedbackRequired(action) && len(feedback) < s.minFeedbackLength {
		return nil, fmt.Errorf("%w: feedback must be at least %d characters", ErrValidation, s.minFeedbackLength)
	}

	record := makeRecord(plan, action, actorID, role, feedback, s.now())
	record.To = next
	plan.Status = next
	return s.commit(ctx, plan, record)
}

// commit appends the audit record, persists the plan, and notifies.
func (s *planService) commit(ctx context.Context, plan *domain.QuitPlan, record domain.TransitionRecord) (*domain.QuitPlan, error) {
	plan.Transitions = append(plan.Transitions, record)
	if err := s.update(ctx, plan); err != nil {
		return nil, err
	}
	s.notifier.PlanTransitioned(ctx, plan, record)
	return plan, nil
}

func (s *planService) getPlan(ctx context.Context, planID primitive.ObjectID) (*domain.QuitPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, planID.Hex())
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) update(ctx context.Context, plan *domain.QuitPlan) error {
	err := s.planRepo.Update(ctx, plan)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: plan %s", ErrConflict, plan.ID.Hex())
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrPlanNotFound, plan.ID.Hex())
	}
	return err
}

// transitionError wraps a sentinel with enough context for a user-facing
// message: plan id, attempted action, current status.
func (s *planService) transitionError(kind error, plan *domain.QuitPlan, action domain.Action) error {
	return fmt.Errorf("%w: plan %s, action %q, status %s", kind, plan.ID.Hex(), action, plan.Status)
}

func makeRecord(plan *domain.QuitPlan, action domain.Action, actorID string, role domain.Role, feedback string, at time.Time) domain.TransitionRecord {
	return domain.TransitionRecord{
		ID:        uuid.NewString(),
		Action:    action,
		From:      plan.Status,
		To:        plan.Status,
		ActorID:   actorID,
		ActorRole: role,
		Feedback:  feedback,
		At:        at,
	}
}

// mergeContent overlays non-empty patch fields onto the existing content.
func mergeContent(dst *domain.PlanContent, patch domain.PlanContent) {
	if patch.Motivation != "" {
		dst.Motivation = patch.Motivation
	}
	if patch.CopingStrategies != "" {
		dst.CopingStrategies = patch.CopingStrategies
	}
	if patch.Medications != "" {
		dst.Medications = patch.Medications
	}
	if patch.MedicationInstructions != "" {
		dst.MedicationInstructions = patch.MedicationInstructions
	}
	if patch.Triggers != "" {
		dst.Triggers = patch.Triggers
	}
	if patch.RelapsePrevention != "" {
		dst.RelapsePrevention = patch.RelapsePrevention
	}
	if patch.SupportResources != "" {
		dst.SupportResources = patch.SupportResources
	}
	if patch.RewardPlan != "" {
		dst.RewardPlan = patch.RewardPlan
	}
	if patch.AdditionalNotes != "" {
		dst.AdditionalNotes = patch.AdditionalNotes
	}
}
