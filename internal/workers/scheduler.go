package workers

import (
	"context"
	"sync"
	"time"

	"coinwhisperer/pkg/errors"
	"coinwhisperer/pkg/logger"
)

// shutdownTimeout bounds how long Stop waits for in-flight iterations.
const shutdownTimeout = 30 * time.Second

// Scheduler runs registered workers, each on its own ticker.
type Scheduler struct {
	mu      sync.RWMutex
	workers []Worker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *logger.Logger
	started bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		log: logger.Get().With("component", "scheduler"),
	}
}

// Register adds a worker. Registration after Start is rejected.
func (s *Scheduler) Register(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnf("Cannot register worker %s after start", w.Name())
		return
	}
	s.workers = append(s.workers, w)
	s.log.Infof("Worker %s registered, interval %s", w.Name(), w.Interval())
}

// Start launches every enabled worker. Each runs once immediately, then on
// its interval.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	workers := s.workers
	s.mu.Unlock()

	for _, w := range workers {
		if !w.Enabled() {
			s.log.Infof("Skipping disabled worker %s", w.Name())
			continue
		}
		s.wg.Add(1)
		go s.runWorker(w)
	}
	return nil
}

// Stop signals all workers and waits for them, bounded by shutdownTimeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		s.log.Warnf("Worker shutdown timed out after %s", shutdownTimeout)
		err = errors.Wrapf(errors.ErrTimeout, "worker shutdown")
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return err
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Scheduler) runWorker(w Worker) {
	defer s.wg.Done()

	ticker := time.NewTicker(w.Interval())
	defer ticker.Stop()

	s.execute(w)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(w)
		}
	}
}

func (s *Scheduler) execute(w Worker) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("Worker %s panicked: %v", w.Name(), r)
		}
	}()

	start := time.Now()
	if err := w.Run(s.ctx); err != nil {
		s.log.Errorf("Worker %s failed after %s: %v", w.Name(), time.Since(start), err)
	}
}
