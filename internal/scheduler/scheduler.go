package scheduler

import (
	"context"
	"sync"
	"time"

	"snipbox/backend/pkg/logger"
)

// Task is one unit of periodic work. It should return promptly once ctx is done.
type Task func(ctx context.Context) error

// Scheduler runs a Task on a fixed interval until stopped.
type Scheduler struct {
	name       string
	task       Task
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc // cancels the current run
	mu         sync.Mutex         // protects cancelFunc
}

func New(name string, task Task, interval time.Duration) *Scheduler {
	return &Scheduler{
		name:     name,
		task:     task,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "task", s.name, "interval", s.interval)
}

// Stop cancels a run in progress and waits for the loop to exit. It is safe to call twice.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.mu.Unlock()

		close(s.stopCh)
		s.wg.Wait()
		logger.Info("scheduler stopped", "task", s.name)
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	// A run may not outlive one interval.
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	if err := s.task(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("scheduled task cancelled", "task", s.name)
			return
		}
		logger.Error("scheduled task", "task", s.name, "error", err)
	}
}
