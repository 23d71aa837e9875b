package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanStatus type for the quit-plan lifecycle
type PlanStatus string

const (
	StatusDraft           PlanStatus = "DRAFT"
	StatusPendingApproval PlanStatus = "PENDING_APPROVAL"
	StatusActive          PlanStatus = "ACTIVE"
	StatusDenied          PlanStatus = "DENIED"
	StatusCompleted       PlanStatus = "COMPLETED"
	StatusFailed          PlanStatus = "FAILED"
	StatusCancelled       PlanStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition may leave this status.
// A DENIED plan is never reopened; the member starts over with a new draft.
func (s PlanStatus) IsTerminal() bool {
	switch s {
	case StatusDenied, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// legacyStatusSynonyms collapses the status spellings observed across older
// records and clients ("approved", "IN_PROGRESS", "REJECTED", ...) to the
// canonical enum. Normalization happens once at the boundary, never in
// display logic.
var legacyStatusSynonyms = map[string]PlanStatus{
	"DRAFT":            StatusDraft,
	"PENDING":          StatusPendingApproval,
	"PENDING_APPROVAL": StatusPendingApproval,
	"ACTIVE":           StatusActive,
	"APPROVED":         StatusActive,
	"IN_PROGRESS":      StatusActive,
	"DENIED":           StatusDenied,
	"REJECTED":         StatusDenied,
	"DECLINED":         StatusDenied,
	"COMPLETED":        StatusCompleted,
	"DONE":             StatusCompleted,
	"FAILED":           StatusFailed,
	"CANCELLED":        StatusCancelled,
	"CANCELED":         StatusCancelled,
}

// ParsePlanStatus normalizes a raw status string (any casing, legacy synonyms
// included) to the canonical PlanStatus. ok is false for unknown values.
func ParsePlanStatus(raw string) (PlanStatus, bool) {
	s, ok := legacyStatusSynonyms[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

// PlanContent holds the free-text fields of a plan. The lifecycle engine
// treats all of them as opaque; only coaches may edit them on an ACTIVE plan.
type PlanContent struct {
	Motivation             string `bson:"motivation,omitempty" json:"motivation,omitempty"`
	CopingStrategies       string `bson:"copingStrategies,omitempty" json:"copingStrategies,omitempty"`
	Medications            string `bson:"medications,omitempty" json:"medications,omitempty"`
	MedicationInstructions string `bson:"medicationInstructions,omitempty" json:"medicationInstructions,omitempty"`
	Triggers               string `bson:"triggers,omitempty" json:"triggers,omitempty"`
	RelapsePrevention      string `bson:"relapsePrevention,omitempty" json:"relapsePrevention,omitempty"`
	SupportResources       string `bson:"supportResources,omitempty" json:"supportResources,omitempty"`
	RewardPlan             string `bson:"rewardPlan,omitempty" json:"rewardPlan,omitempty"`
	AdditionalNotes        string `bson:"additionalNotes,omitempty" json:"additionalNotes,omitempty"`
}

// TransitionRecord is one entry of a plan's embedded audit trail. Feedback
// given on deny/decline is persisted here.
type TransitionRecord struct {
	ID        string     `bson:"id" json:"id"` // uuid
	Action    Action     `bson:"action" json:"action"`
	From      PlanStatus `bson:"from" json:"from"`
	To        PlanStatus `bson:"to" json:"to"`
	ActorID   string     `bson:"actorId,omitempty" json:"actorId,omitempty"`
	ActorRole Role       `bson:"actorRole" json:"actorRole"`
	Feedback  string     `bson:"feedback,omitempty" json:"feedback,omitempty"`
	At        time.Time  `bson:"at" json:"at"`
}

// QuitPlan is the root aggregate: a member's cessation plan.
type QuitPlan struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MemberID primitive.ObjectID  `bson:"memberId" json:"memberId"`
	CoachID  *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"` // May be unset while a draft

	Status   PlanStatus   `bson:"status" json:"status"`
	Severity SeverityTier `bson:"severity" json:"severity"` // Selects the phase templates on activation

	StartDate *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`

	// Exactly one plan per member carries this flag; maintained by the
	// lifecycle engine whenever a plan is approved or accepted.
	IsNewest bool `bson:"isNewest" json:"isNewest"`

	Content PlanContent `bson:"content" json:"content"`

	// Server-supplied counters; when both are present they take precedence
	// over date arithmetic in the progress calculator.
	ProgressInDay  *int `bson:"progressInDay,omitempty" json:"progressInDay,omitempty"`
	DurationInDays *int `bson:"durationInDays,omitempty" json:"durationInDays,omitempty"`

	// Server-supplied quality label; overrides local bucketing when present.
	CompletionQuality string `bson:"completionQuality,omitempty" json:"completionQuality,omitempty"`

	// Coach sign-off, attachable only once the plan is COMPLETED.
	FinalEvaluation string `bson:"finalEvaluation,omitempty" json:"finalEvaluation,omitempty"`

	Transitions []TransitionRecord `bson:"transitions,omitempty" json:"transitions,omitempty"`

	// Optimistic-concurrency token; stale writes are rejected by the store.
	Version int64 `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
