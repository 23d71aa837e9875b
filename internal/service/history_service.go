package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/history"
	"quitwell/coaching-app/internal/repository"
)

// HistoryPage is one page of a member's projected plan history.
type HistoryPage struct {
	Items    []history.Summary `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// --- Service Interface ---

// HistoryService serves the history and dashboard views: filtered, sorted,
// paginated plan summaries with derived progress and outcome attached.
type HistoryService interface {
	GetHistory(ctx context.Context, memberID primitive.ObjectID, filter history.Filter, page, pageSize int) (HistoryPage, error)
}

// --- Service Implementation ---

type historyService struct {
	planRepo repository.PlanRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewHistoryService creates a new history service.
func NewHistoryService(planRepo repository.PlanRepository, userRepo repository.UserRepository) HistoryService {
	return &historyService{
		planRepo: planRepo,
		userRepo: userRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// history pages are assembled in memory; member plan sets are small (one
// plan per attempt), so fetching the full set per request is fine.
const fetchPageSize = 100

func (s *historyService) GetHistory(ctx context.Context, memberID primitive.ObjectID, filter history.Filter, page, pageSize int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	plans, err := s.fetchAll(ctx, memberID)
	if err != nil {
		return HistoryPage{}, err
	}

	summaries := history.Project(plans, s.coachNames(ctx, plans), filter, s.now())

	total := int64(len(summaries))
	start := (page - 1) * pageSize
	if start >= len(summaries) {
		return HistoryPage{Items: []history.Summary{}, Total: total, Page: page, PageSize: pageSize}, nil
	}
	end := start + pageSize
	if end > len(summaries) {
		end = len(summaries)
	}
	return HistoryPage{
		Items:    summaries[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// fetchAll pages through the store until the member's full plan set is loaded.
func (s *historyService) fetchAll(ctx context.Context, memberID primitive.ObjectID) ([]domain.QuitPlan, error) {
	var all []domain.QuitPlan
	for p := 1; ; p++ {
		plans, total, err := s.planRepo.GetByMemberID(ctx, memberID, p, fetchPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, plans...)
		if int64(len(all)) >= total || len(plans) == 0 {
			return all, nil
		}
	}
}

// coachNames resolves the distinct coach ids appearing in the plan set.
// Unresolvable coaches simply render without a name.
func (s *historyService) coachNames(ctx context.Context, plans []domain.QuitPlan) map[primitive.ObjectID]string {
	names := make(map[primitive.ObjectID]string)
	for i := range plans {
		coachID := plans[i].CoachID
		if coachID == nil {
			continue
		}
		if _, seen := names[*coachID]; seen {
			continue
		}
		coach, err := s.userRepo.GetByID(ctx, *coachID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				names[*coachID] = ""
			}
			continue
		}
		names[*coachID] = coach.Name
	}
	return names
}
