package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/dvloznov/finance-ledger/internal/logger"
)

// Job is one schedulable unit of work. Different job kinds run independently;
// the guard only serializes firings of the same kind.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler drives registered jobs on cron cadences with per-job overlap
// protection.
type Scheduler struct {
	cron  *cron.Cron
	guard *Guard
	ctx   context.Context
}

// NewScheduler creates a scheduler. ctx is the base context every firing
// inherits; cancel it to make in-flight runs wind down.
func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		guard: NewGuard(),
		ctx:   ctx,
	}
}

// Add registers a job on a standard 5-field cron spec (e.g. "0 8 * * *" for
// daily at 08:00).
func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.guard.Run(s.ctx, job.Name(), job.Run)
	})
	if err != nil {
		return fmt.Errorf("scheduling %s on %q: %w", job.Name(), spec, err)
	}
	log := logger.FromContext(s.ctx)
	log.Info().
		Str("job", job.Name()).
		Str("cron", spec).
		Msg("Job scheduled")
	return nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts new firings and waits for in-flight runs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kick fires a job immediately through the guard, outside its cadence.
// Used at startup to avoid waiting a full period for the first sync.
func (s *Scheduler) Kick(job Job) bool {
	return s.guard.Run(s.ctx, job.Name(), job.Run)
}
