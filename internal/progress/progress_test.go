package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quitwell/coaching-app/internal/domain"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(v int) *int { return &v }

func activePlan() *domain.QuitPlan {
	return &domain.QuitPlan{
		ID:        primitive.NewObjectID(),
		Status:    domain.StatusActive,
		StartDate: datePtr(2025, 1, 1),
		EndDate:   datePtr(2025, 1, 31),
	}
}

// Scenario: 30-day plan, halfway through, no server counters.
func TestComputeProgressHalfway(t *testing.T) {
	now := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	p := ComputeProgress(activePlan(), now)
	assert.Equal(t, 50, p.Percent)
	assert.Equal(t, 15, p.DaysPassed)
	assert.Equal(t, 30, p.TotalDays)
	assert.False(t, p.Suppressed)
}

func TestComputeProgressServerCountersWin(t *testing.T) {
	plan := activePlan()
	plan.ProgressInDay = intPtr(9)
	plan.DurationInDays = intPtr(60)
	// Dates say halfway; counters must win.
	now := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	p := ComputeProgress(plan, now)
	assert.Equal(t, 15, p.Percent)
	assert.Equal(t, 9, p.DaysPassed)
	assert.Equal(t, 60, p.TotalDays)
}

// Scenario: duration-zero guard forces percent to 0 even when
// progressInDay is large and the plan is completed.
func TestComputeProgressDurationZeroGuard(t *testing.T) {
	plan := activePlan()
	plan.Status = domain.StatusCompleted
	plan.ProgressInDay = intPtr(45)
	plan.DurationInDays = intPtr(0)
	p := ComputeProgress(plan, time.Now())
	assert.Equal(t, 0, p.Percent)
	assert.Equal(t, 0, p.TotalDays)
}

func TestComputeProgressSuppressedStatuses(t *testing.T) {
	for _, status := range []domain.PlanStatus{domain.StatusDenied, domain.StatusCancelled} {
		plan := activePlan()
		plan.Status = status
		p := ComputeProgress(plan, time.Now())
		assert.True(t, p.Suppressed, "status %s", status)
		assert.Equal(t, 0, p.Percent, "status %s", status)
	}
}

func TestComputeProgressFallbackBranches(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.PlanStatus
		now     time.Time
		percent int
	}{
		{"completed is always 100", domain.StatusCompleted, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), 100},
		{"before start is 0", domain.StatusActive, time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), 0},
		{"after end is 100", domain.StatusActive, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := activePlan()
			plan.Status = tt.status
			p := ComputeProgress(plan, tt.now)
			assert.Equal(t, tt.percent, p.Percent)
		})
	}
}

// The calculator never panics or leaves [0, 100], whatever the input.
func TestComputeProgressNeverOutOfRange(t *testing.T) {
	now := time.Now()
	plans := []*domain.QuitPlan{
		nil,
		{},
		{Status: domain.StatusActive},
		{Status: domain.StatusActive, StartDate: datePtr(2025, 1, 31), EndDate: datePtr(2025, 1, 1)}, // end before start
		{Status: domain.StatusActive, ProgressInDay: intPtr(-5), DurationInDays: intPtr(10)},
		{Status: domain.StatusActive, ProgressInDay: intPtr(500), DurationInDays: intPtr(10)},
		{Status: domain.StatusActive, ProgressInDay: intPtr(3), DurationInDays: intPtr(-1), StartDate: datePtr(2025, 1, 1), EndDate: datePtr(2025, 3, 1)},
	}
	for i, plan := range plans {
		p := ComputeProgress(plan, now)
		assert.GreaterOrEqual(t, p.Percent, 0, "case %d", i)
		assert.LessOrEqual(t, p.Percent, 100, "case %d", i)
	}
}

func TestOutcomeLabelServerQualityWins(t *testing.T) {
	plan := activePlan()
	plan.Status = domain.StatusCompleted
	plan.CompletionQuality = "EXCELLENT"
	label, ok := OutcomeLabel(plan, time.Now())
	assert.True(t, ok)
	assert.Equal(t, "Excellent", label)

	plan.Status = domain.StatusFailed
	plan.CompletionQuality = "almost there"
	label, ok = OutcomeLabel(plan, time.Now())
	assert.True(t, ok)
	assert.Equal(t, "Almost There", label)
}

func TestOutcomeLabelBuckets(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{100, LabelExcellent},
		{90, LabelExcellent},
		{89, LabelGood},
		{75, LabelGood},
		{74, LabelFair},
		{50, LabelFair},
		{49, LabelNeedsWork},
		{0, LabelNeedsWork},
	}
	for _, tt := range tests {
		plan := activePlan()
		plan.Status = domain.StatusCompleted
		plan.ProgressInDay = intPtr(tt.percent)
		plan.DurationInDays = intPtr(100)
		label, ok := OutcomeLabel(plan, time.Now())
		assert.True(t, ok, "percent %d", tt.percent)
		assert.Equal(t, tt.want, label, "percent %d", tt.percent)
	}
}

func TestOutcomeLabelFixedStatuses(t *testing.T) {
	failed := activePlan()
	failed.Status = domain.StatusFailed
	label, ok := OutcomeLabel(failed, time.Now())
	assert.True(t, ok)
	assert.Equal(t, LabelFailed, label)

	denied := activePlan()
	denied.Status = domain.StatusDenied
	label, ok = OutcomeLabel(denied, time.Now())
	assert.True(t, ok)
	assert.Equal(t, LabelRejected, label)
}

func TestOutcomeLabelNotRenderedForOpenStatuses(t *testing.T) {
	for _, status := range []domain.PlanStatus{
		domain.StatusDraft, domain.StatusPendingApproval,
		domain.StatusActive, domain.StatusCancelled,
	} {
		plan := activePlan()
		plan.Status = status
		_, ok := OutcomeLabel(plan, time.Now())
		assert.False(t, ok, "status %s", status)
	}
}

// Duration-zero completed plan without a server label gets the neutral
// fallback, not "needs improvement".
func TestOutcomeLabelDurationZeroFallback(t *testing.T) {
	plan := activePlan()
	plan.Status = domain.StatusCompleted
	plan.ProgressInDay = intPtr(45)
	plan.DurationInDays = intPtr(0)
	label, ok := OutcomeLabel(plan, time.Now())
	assert.True(t, ok)
	assert.Equal(t, LabelCompleted, label)

	// With a server label, the server wins as everywhere else.
	plan.CompletionQuality = "good"
	label, ok = OutcomeLabel(plan, time.Now())
	assert.True(t, ok)
	assert.Equal(t, "Good", label)
}

func TestOutcomeLabelCustomThresholds(t *testing.T) {
	plan := activePlan()
	plan.Status = domain.StatusCompleted
	plan.ProgressInDay = intPtr(80)
	plan.DurationInDays = intPtr(100)
	label, ok := OutcomeLabelWith(plan, time.Now(), Thresholds{Excellent: 80, Good: 60, Fair: 40})
	assert.True(t, ok)
	assert.Equal(t, LabelExcellent, label)
}
