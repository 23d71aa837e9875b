// Package notifier is the boundary to notification delivery. The engine
// informs it of every transition; it never influences engine decisions, and
// delivery failures never fail the transition.
package notifier

import (
	"context"
	"log"

	"quitwell/coaching-app/internal/domain"
)

// Notifier receives lifecycle transition events.
type Notifier interface {
	PlanTransitioned(ctx context.Context, plan *domain.QuitPlan, record domain.TransitionRecord)
}

// LogNotifier writes transition events to the server log. Stands in for the
// real delivery channel (push/reminder service) which is outside this core.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) PlanTransitioned(_ context.Context, plan *domain.QuitPlan, record domain.TransitionRecord) {
	log.Printf("plan %s: %s by %s (%s -> %s)",
		plan.ID.Hex(), record.Action, record.ActorRole, record.From, record.To)
}
