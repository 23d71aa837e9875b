// Package sweeper runs the mark-failed-on-expiry policy: a scheduled,
// role-less sweep that fails ACTIVE plans whose end date has passed. The
// sweep is idempotent; a plan already FAILED is skipped by the engine.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"quitwell/coaching-app/internal/service"
)

// Sweeper schedules the expiry sweep.
type Sweeper struct {
	planService service.PlanService
	cron        *cron.Cron
	schedule    string
	timeout     time.Duration
}

// New creates a sweeper running on the given cron schedule (e.g. "@hourly").
func New(planService service.PlanService, schedule string) *Sweeper {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Sweeper{
		planService: planService,
		cron:        cron.New(),
		schedule:    schedule,
		timeout:     time.Minute,
	}
}

// Start registers the job and starts the scheduler.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("expiry sweeper started (schedule %q)", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	failed, err := s.planService.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("ERROR: expiry sweep failed: %v", err)
		return
	}
	if failed > 0 {
		log.Printf("expiry sweep marked %d plans failed", failed)
	}
}
