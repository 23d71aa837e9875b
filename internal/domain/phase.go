package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeverityTier classifies addiction severity; it selects the default phase
// template sequence when a plan is activated.
type SeverityTier string

const (
	TierLow    SeverityTier = "LOW"
	TierMedium SeverityTier = "MEDIUM"
	TierHigh   SeverityTier = "HIGH"
	TierSevere SeverityTier = "SEVERE"
)

// ParseSeverityTier validates a raw tier value.
func ParseSeverityTier(raw string) (SeverityTier, bool) {
	switch SeverityTier(raw) {
	case TierLow, TierMedium, TierHigh, TierSevere:
		return SeverityTier(raw), true
	}
	return "", false
}

// QuitPhase is an ordered stage within an active plan's execution.
type QuitPhase struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID primitive.ObjectID `bson:"planId" json:"planId"`

	// 1-based, unique per plan, contiguous ascending. Assigned once at
	// decomposition time and never reordered.
	PhaseOrder int `bson:"phaseOrder" json:"phaseOrder"`

	Name          string `bson:"name" json:"name"`
	Objective     string `bson:"objective" json:"objective"`
	Duration      string `bson:"duration" json:"duration"` // Human description, e.g. "2 weeks"
	RecommendGoal string `bson:"recommendGoal" json:"recommendGoal"`

	// Editable independently of phase progression; defaults to the single
	// recommended goal when the coach supplies no override.
	Goals []string `bson:"goals" json:"goals"`

	IsCompleted          bool `bson:"isCompleted" json:"isCompleted"`
	CompletionPercentage int  `bson:"completionPercentage" json:"completionPercentage"` // 0-100

	StartDate *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PhaseTemplate is the policy description of one phase before it is attached
// to a concrete plan.
type PhaseTemplate struct {
	Name          string
	Objective     string
	Duration      string
	RecommendGoal string
}
