// Package memory provides map-backed implementations of the repository
// interfaces. They mirror the Mongo behavior that matters to the services
// (version-checked plan updates, newest-flag maintenance, sorted reads) and
// back the service test suites without a running database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/repository"
)

// PlanRepository is an in-memory repository.PlanRepository.
type PlanRepository struct {
	mu    sync.RWMutex
	plans map[primitive.ObjectID]domain.QuitPlan
}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[primitive.ObjectID]domain.QuitPlan)}
}

func (r *PlanRepository) Create(_ context.Context, plan *domain.QuitPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	plan.Version = 1
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *PlanRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.QuitPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &plan, nil
}

func (r *PlanRepository) Update(_ context.Context, plan *domain.QuitPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.plans[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != plan.Version {
		return repository.ErrConflict
	}
	plan.Version++
	plan.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = *plan
	return nil
}

func (r *PlanRepository) GetNewestByMemberID(_ context.Context, memberID primitive.ObjectID) (*domain.QuitPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plans {
		if p.MemberID == memberID && p.IsNewest {
			plan := p
			return &plan, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *PlanRepository) GetByMemberID(_ context.Context, memberID primitive.ObjectID, page, pageSize int) ([]domain.QuitPlan, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	r.mu.RLock()
	var all []domain.QuitPlan
	for _, p := range r.plans {
		if p.MemberID == memberID {
			all = append(all, p)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].StartDate, all[j].StartDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.QuitPlan{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *PlanRepository) ClearNewestForMember(_ context.Context, memberID, exceptPlanID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.plans {
		if p.MemberID == memberID && p.IsNewest && id != exceptPlanID {
			p.IsNewest = false
			p.UpdatedAt = time.Now().UTC()
			r.plans[id] = p
		}
	}
	return nil
}

func (r *PlanRepository) GetOverdueActive(_ context.Context, before time.Time) ([]domain.QuitPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.QuitPlan
	for _, p := range r.plans {
		if p.Status == domain.StatusActive && p.EndDate != nil && p.EndDate.Before(before) {
			out = append(out, p)
		}
	}
	return out, nil
}

// PhaseRepository is an in-memory repository.PhaseRepository.
type PhaseRepository struct {
	mu     sync.RWMutex
	phases map[primitive.ObjectID]domain.QuitPhase
}

func NewPhaseRepository() *PhaseRepository {
	return &PhaseRepository{phases: make(map[primitive.ObjectID]domain.QuitPhase)}
}

func (r *PhaseRepository) CreateMany(_ context.Context, phases []domain.QuitPhase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for i := range phases {
		if phases[i].ID == primitive.NilObjectID {
			phases[i].ID = primitive.NewObjectID()
		}
		phases[i].CreatedAt = now
		phases[i].UpdatedAt = now
		r.phases[phases[i].ID] = phases[i]
	}
	return nil
}

func (r *PhaseRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.QuitPhase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	phase, ok := r.phases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &phase, nil
}

func (r *PhaseRepository) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.QuitPhase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.QuitPhase
	for _, p := range r.phases {
		if p.PlanID == planID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhaseOrder < out[j].PhaseOrder })
	return out, nil
}

func (r *PhaseRepository) Update(_ context.Context, phase *domain.QuitPhase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.phases[phase.ID]; !ok {
		return repository.ErrNotFound
	}
	phase.UpdatedAt = time.Now().UTC()
	r.phases[phase.ID] = *phase
	return nil
}

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrUpdateFailed
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) AddMemberIDToCoach(_ context.Context, coachID, memberID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	coach, ok := r.users[coachID]
	if !ok || coach.Role != domain.RoleCoach {
		return repository.ErrNotFound
	}
	for _, id := range coach.MemberIDs {
		if id == memberID {
			return nil
		}
	}
	coach.MemberIDs = append(coach.MemberIDs, memberID)
	r.users[coachID] = coach
	return nil
}

func (r *UserRepository) SetCoachForMember(_ context.Context, memberID, coachID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.users[memberID]
	if !ok || member.Role != domain.RoleMember {
		return repository.ErrNotFound
	}
	member.CoachID = &coachID
	r.users[memberID] = member
	return nil
}

func (r *UserRepository) GetMembersByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	coach, ok := r.users[coachID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	members := make([]domain.User, 0, len(coach.MemberIDs))
	for _, id := range coach.MemberIDs {
		if m, ok := r.users[id]; ok {
			members = append(members, m)
		}
	}
	return members, nil
}
