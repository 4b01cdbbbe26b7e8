// Package workers schedules recurring background jobs.
package workers

import (
	"context"
	"sync"
	"time"

	"coinwhisperer/pkg/logger"
)

// Worker is one recurring background job. Run completes a single iteration;
// the scheduler calls it on every Interval tick.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
	Interval() time.Duration
	Enabled() bool
}

// BaseWorker carries the bookkeeping every worker shares.
type BaseWorker struct {
	name     string
	interval time.Duration
	enabled  bool
	log      *logger.Logger

	mu        sync.RWMutex
	lastRun   time.Time
	lastError error
	runCount  int64
}

// NewBaseWorker creates a base worker with the given schedule.
func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

func (w *BaseWorker) Name() string            { return w.name }
func (w *BaseWorker) Interval() time.Duration { return w.interval }

func (w *BaseWorker) Enabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.enabled
}

// SetEnabled toggles the worker on or off.
func (w *BaseWorker) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = enabled
}

// Log returns the worker-scoped logger.
func (w *BaseWorker) Log() *logger.Logger {
	return w.log
}

// RecordRun records the outcome of one iteration.
func (w *BaseWorker) RecordRun(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastRun = time.Now()
	w.lastError = err
	w.runCount++
}

// LastRun returns when the worker last completed and with what error.
func (w *BaseWorker) LastRun() (time.Time, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastRun, w.lastError
}
