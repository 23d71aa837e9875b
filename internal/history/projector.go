// Package history reduces a member's full plan set into the filtered and
// sorted views the history and dashboard screens render. Pure read side:
// no store access, no mutation of the input slice.
package history

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/progress"
)

// SortOrder selects the projection ordering.
type SortOrder string

const (
	SortStartDateDesc SortOrder = "startDateDesc" // Default: most recent first
	SortStartDateAsc  SortOrder = "startDateAsc"
	SortStatus        SortOrder = "status"
)

// Filter narrows the projected plan set. Zero values mean "no constraint".
type Filter struct {
	// Case-insensitive substring match, OR-combined across coach name,
	// coping strategies, triggers, and motivation.
	Search string

	// Exact status match.
	Status domain.PlanStatus

	// Inclusive overlap test against [plan.StartDate, plan.EndDate].
	From *time.Time
	To   *time.Time

	Sort SortOrder
}

// Summary is one row of a history view.
type Summary struct {
	Plan      domain.QuitPlan   `json:"plan"`
	CoachName string            `json:"coachName,omitempty"`
	Progress  progress.Progress `json:"progress"`
	Outcome   string            `json:"outcome,omitempty"`
}

// Project filters and sorts plans into history summaries. Partially
// populated plans are tolerated everywhere: an absent field is treated as
// non-matching for that filter, never as an error. coachNames resolves
// coach ids to display names for the search filter and the rendered rows;
// a nil map is fine.
func Project(plans []domain.QuitPlan, coachNames map[primitive.ObjectID]string, f Filter, now time.Time) []Summary {
	out := make([]Summary, 0, len(plans))
	for i := range plans {
		p := plans[i]
		coachName := ""
		if p.CoachID != nil {
			coachName = coachNames[*p.CoachID]
		}
		if !matches(&p, coachName, f) {
			continue
		}
		s := Summary{
			Plan:      p,
			CoachName: coachName,
			Progress:  progress.ComputeProgress(&p, now),
		}
		if label, ok := progress.OutcomeLabel(&p, now); ok {
			s.Outcome = label
		}
		out = append(out, s)
	}
	sortSummaries(out, f.Sort)
	return out
}

func matches(p *domain.QuitPlan, coachName string, f Filter) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Search != "" && !matchesSearch(p, coachName, f.Search) {
		return false
	}
	if (f.From != nil || f.To != nil) && !overlapsRange(p, f.From, f.To) {
		return false
	}
	return true
}

func matchesSearch(p *domain.QuitPlan, coachName, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	for _, hay := range []string{
		coachName,
		p.Content.CopingStrategies,
		p.Content.Triggers,
		p.Content.Motivation,
	} {
		if hay != "" && strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// overlapsRange is an inclusive overlap test; a plan missing either date
// does not match a date-range filter.
func overlapsRange(p *domain.QuitPlan, from, to *time.Time) bool {
	if p.StartDate == nil || p.EndDate == nil {
		return false
	}
	if from != nil && p.EndDate.Before(*from) {
		return false
	}
	if to != nil && p.StartDate.After(*to) {
		return false
	}
	return true
}

func sortSummaries(s []Summary, order SortOrder) {
	less := func(a, b *Summary) bool {
		return startAfter(a, b) // default newest first
	}
	switch order {
	case SortStartDateAsc:
		less = func(a, b *Summary) bool { return startAfter(b, a) }
	case SortStatus:
		less = func(a, b *Summary) bool {
			if a.Plan.Status != b.Plan.Status {
				return a.Plan.Status < b.Plan.Status
			}
			return startAfter(a, b)
		}
	}
	sort.SliceStable(s, func(i, j int) bool { return less(&s[i], &s[j]) })
}

// startAfter orders plans by start date descending; plans without a start
// date sink to the end.
func startAfter(a, b *Summary) bool {
	switch {
	case a.Plan.StartDate == nil:
		return false
	case b.Plan.StartDate == nil:
		return true
	}
	return a.Plan.StartDate.After(*b.Plan.StartDate)
}
