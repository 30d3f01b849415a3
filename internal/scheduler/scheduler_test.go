package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunOnStart(t *testing.T) {
	var runs int32
	ctx, cancel := context.WithCancel(context.Background())

	s := New(nil, Job{
		Name:       "starter",
		Interval:   time.Hour,
		RunOnStart: true,
		Fn: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			cancel()
			return nil
		},
	})

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("run: %v", err)
	}
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestIntervalFiring(t *testing.T) {
	var runs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(nil, Job{
		Name:     "ticker",
		Interval: 10 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			if atomic.AddInt32(&runs, 1) >= 3 {
				cancel()
			}
			return nil
		},
	})

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if got := atomic.LoadInt32(&runs); got < 3 {
		t.Errorf("runs = %d, want at least 3", got)
	}
}

func TestShutdownWaitsForInflight(t *testing.T) {
	started := make(chan struct{})
	var finished int32
	ctx, cancel := context.WithCancel(context.Background())

	s := New(nil, Job{
		Name:       "slow",
		Interval:   time.Hour,
		RunOnStart: true,
		Fn: func(ctx context.Context) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			atomic.StoreInt32(&finished, 1)
			return nil
		},
	})

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-started
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if atomic.LoadInt32(&finished) != 1 {
		t.Error("run returned before the in-flight execution finished")
	}
}

func TestFailedJobKeepsRunning(t *testing.T) {
	var runs int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(nil, Job{
		Name:       "flaky",
		Interval:   10 * time.Millisecond,
		RunOnStart: true,
		Fn: func(ctx context.Context) error {
			if atomic.AddInt32(&runs, 1) >= 2 {
				cancel()
			}
			return errors.New("boom")
		},
	})

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if got := atomic.LoadInt32(&runs); got < 2 {
		t.Errorf("runs = %d, want the job rescheduled after failure", got)
	}
}
