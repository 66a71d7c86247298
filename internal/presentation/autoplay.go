package presentation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AdvanceFunc applies an advance-if-due check at now and reports whether
// autoplay is still on. It must be safe to call more often than needed and
// must not call Stop for its own key.
type AdvanceFunc func(now time.Time) bool

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler runs one autoplay timer per key, independent of page requests.
type Scheduler struct {
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// NewScheduler creates a scheduler that fires every interval.
func NewScheduler(interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		logger:   logger.With(slog.String("component", "autoplay")),
		jobs:     make(map[string]*job),
	}
}

// Start launches a timer for key unless one is already running. The timer
// stops when advance returns false, Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, key string, advance AdvanceFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[key]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel, done: make(chan struct{})}
	s.jobs[key] = j

	s.wg.Add(1)
	go s.run(ctx, key, j, advance)

	s.logger.Debug("autoplay started", slog.String("session_id", key))
	return true
}

func (s *Scheduler) run(ctx context.Context, key string, j *job, advance AdvanceFunc) {
	defer s.wg.Done()
	defer close(j.done)
	defer s.remove(key, j)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !advance(now) {
				s.logger.Debug("autoplay finished", slog.String("session_id", key))
				return
			}
		}
	}
}

func (s *Scheduler) remove(key string, j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs[key] == j {
		delete(s.jobs, key)
	}
	j.cancel()
}

// Stop cancels the timer for key and waits for it to exit.
func (s *Scheduler) Stop(key string) {
	s.mu.Lock()
	j, ok := s.jobs[key]
	s.mu.Unlock()
	if !ok {
		return
	}
	j.cancel()
	<-j.done
}

// Running reports whether a timer is active for key
func (s *Scheduler) Running(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok
}

// StopAll cancels every timer and waits for them to exit.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for _, j := range s.jobs {
		j.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
