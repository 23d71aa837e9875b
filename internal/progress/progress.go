// Package progress derives completion percentages and qualitative outcome
// labels from a plan's dates, counters, and status. Every screen that shows
// a progress bar or an outcome tag goes through this package; presentation
// code must not re-derive these values.
package progress

import (
	"log"
	"math"
	"strings"
	"time"

	"quitwell/coaching-app/internal/domain"
)

// Progress is the result of ComputeProgress. When Suppressed is true the
// caller renders a rejection/cancellation notice instead of a bar.
type Progress struct {
	Percent    int  `json:"percent"`
	DaysPassed int  `json:"daysPassed"`
	TotalDays  int  `json:"totalDays"`
	Suppressed bool `json:"suppressed"`
}

// Outcome bucket boundaries for COMPLETED plans without a server-supplied
// quality label. Defaults are fixed policy; Thresholds lets a caller raise
// or lower them without changing precedence rules.
type Thresholds struct {
	Excellent int // percent >= Excellent -> "excellent"
	Good      int
	Fair      int
}

// DefaultThresholds are the boundary values the product ships with.
var DefaultThresholds = Thresholds{Excellent: 90, Good: 75, Fair: 50}

const (
	LabelExcellent = "excellent"
	LabelGood      = "good"
	LabelFair      = "fair"
	LabelNeedsWork = "needs improvement"
	LabelFailed    = "failed"
	LabelRejected  = "rejected"
	// Neutral fallback for the duration-zero data-quality case: a COMPLETED
	// plan whose counters force percent to 0 must not be bucketed as
	// "needs improvement".
	LabelCompleted = "completed"
)

// ComputeProgress derives the day-based completion state of a plan.
// It never fails: malformed or missing inputs degrade to zero values.
func ComputeProgress(plan *domain.QuitPlan, now time.Time) Progress {
	if plan == nil {
		return Progress{}
	}

	// Denied and cancelled plans show a notice, not a bar. Policy, not a
	// derived value.
	if plan.Status == domain.StatusDenied || plan.Status == domain.StatusCancelled {
		return Progress{Suppressed: true}
	}

	// Server-supplied counters take precedence over date arithmetic.
	if plan.ProgressInDay != nil && plan.DurationInDays != nil && *plan.DurationInDays >= 0 {
		total := *plan.DurationInDays
		passed := *plan.ProgressInDay
		if total == 0 {
			if plan.Status == domain.StatusCompleted {
				log.Printf("WARN: plan %s is COMPLETED with durationInDays=0; treating as data-quality issue", plan.ID.Hex())
			}
			return Progress{Percent: 0, DaysPassed: passed, TotalDays: 0}
		}
		return Progress{
			Percent:    clampPercent(roundRatio(passed, total)),
			DaysPassed: passed,
			TotalDays:  total,
		}
	}

	// Date-arithmetic fallback.
	if plan.StartDate == nil || plan.EndDate == nil {
		return Progress{}
	}
	start, end := *plan.StartDate, *plan.EndDate
	total := daysBetween(start, end)
	if total < 0 {
		return Progress{}
	}

	switch {
	case plan.Status == domain.StatusCompleted:
		return Progress{Percent: 100, DaysPassed: total, TotalDays: total}
	case now.Before(start):
		return Progress{Percent: 0, DaysPassed: 0, TotalDays: total}
	case now.After(end):
		return Progress{Percent: 100, DaysPassed: total, TotalDays: total}
	}

	passed := daysBetween(start, now)
	pct := 0
	if total > 0 {
		pct = roundRatio(passed, total)
	}
	return Progress{Percent: clampPercent(pct), DaysPassed: passed, TotalDays: total}
}

// OutcomeLabel returns the qualitative bucket for a closed plan, or ok=false
// when no label should be rendered. A server-supplied completionQuality wins
// over local bucketing in every branch.
func OutcomeLabel(plan *domain.QuitPlan, now time.Time) (string, bool) {
	return OutcomeLabelWith(plan, now, DefaultThresholds)
}

// OutcomeLabelWith is OutcomeLabel with caller-supplied bucket thresholds.
func OutcomeLabelWith(plan *domain.QuitPlan, now time.Time, th Thresholds) (string, bool) {
	if plan == nil {
		return "", false
	}

	switch plan.Status {
	case domain.StatusCompleted, domain.StatusFailed, domain.StatusDenied:
	default:
		return "", false
	}

	if q := strings.TrimSpace(plan.CompletionQuality); q != "" {
		return titleCase(q), true
	}

	switch plan.Status {
	case domain.StatusDenied:
		return LabelRejected, true
	case domain.StatusFailed:
		return LabelFailed, true
	}

	// COMPLETED without a server label: bucket by computed percent, except
	// for the duration-zero guard where the percent carries no signal.
	if plan.DurationInDays != nil && *plan.DurationInDays == 0 {
		log.Printf("WARN: plan %s completed with durationInDays=0 and no quality label", plan.ID.Hex())
		return LabelCompleted, true
	}
	p := ComputeProgress(plan, now)
	switch {
	case p.Percent >= th.Excellent:
		return LabelExcellent, true
	case p.Percent >= th.Good:
		return LabelGood, true
	case p.Percent >= th.Fair:
		return LabelFair, true
	}
	return LabelNeedsWork, true
}

// daysBetween counts whole days from a to b, flooring toward zero.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func roundRatio(passed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(passed) / float64(total) * 100))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// titleCase uppercases the first letter of each space-separated word, the
// rest lowercased ("EXCELLENT" -> "Excellent").
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
