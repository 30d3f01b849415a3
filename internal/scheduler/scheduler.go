// Package scheduler runs recurring jobs on fixed intervals with
// single-flight semantics per job.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Job is one recurring task. Fn runs in its own goroutine, never
// concurrently with itself: an execution outlasting the interval
// delays the next firing instead of overlapping it.
type Job struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Fn         func(ctx context.Context) error
}

// Scheduler drives a set of jobs until its context is cancelled.
type Scheduler struct {
	jobs   []Job
	logger *log.Logger
}

// New creates a Scheduler.
func New(logger *log.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger}
}

// Run blocks until ctx is cancelled. Shutdown waits for in-flight job
// executions to finish so no partial per-token state is left behind.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for _, job := range s.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runJob(ctx, job)
		}(job)
	}

	wg.Wait()
	return ctx.Err()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	if job.RunOnStart {
		s.execute(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	if err := job.Fn(ctx); err != nil {
		if ctx.Err() != nil {
			s.logf("job %s interrupted by shutdown after %s", job.Name, time.Since(started))
			return
		}
		s.logf("job %s failed after %s: %v", job.Name, time.Since(started), err)
		return
	}
	s.logf("job %s completed in %s", job.Name, time.Since(started))
}

func (s *Scheduler) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
