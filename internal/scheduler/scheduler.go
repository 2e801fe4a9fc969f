// Package scheduler wraps the recurring run trigger: a fixed cron schedule
// in a fixed time zone that invokes the orchestrator and ignores its result
// beyond logging.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler fires the run job on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	logger  *zap.Logger
}

// New builds a scheduler for the given cron spec and IANA time zone.
func New(spec, timezone string, job func(), logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	id, err := c.AddFunc(spec, job)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, entryID: id, logger: logger}, nil
}

// Start begins firing the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Time("next_run", s.Next()))
}

// Stop halts the schedule and returns a context that is done once any
// in-flight job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next reports the next scheduled run time. Zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}
