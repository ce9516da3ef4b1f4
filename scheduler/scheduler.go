package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is the periodic job. The context is cancelled when the scheduler stops.
type Task func(ctx context.Context)

// Scheduler runs a background task at regular intervals
type Scheduler struct {
	interval  time.Duration
	task      Task
	immediate bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// Option is a functional option for configuring Scheduler
type Option func(*Scheduler)

// WithImmediateRun runs the task once as soon as the scheduler starts
func WithImmediateRun() Option {
	return func(s *Scheduler) {
		s.immediate = true
	}
}

// New creates a new Scheduler instance
func New(interval time.Duration, task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		task:     task,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.immediate {
			s.task(ctx)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.task(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight task to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
