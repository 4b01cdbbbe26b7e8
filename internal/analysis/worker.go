package analysis

import (
	"context"
	"time"

	"coinwhisperer/internal/workers"
)

// Worker re-runs the analysis pipeline on an interval.
type Worker struct {
	*workers.BaseWorker
	service *Service
	timeout time.Duration
}

var _ workers.Worker = (*Worker)(nil)

// NewWorker creates the background analysis worker.
func NewWorker(service *Service, interval, timeout time.Duration, enabled bool) *Worker {
	return &Worker{
		BaseWorker: workers.NewBaseWorker("analysis", interval, enabled),
		service:    service,
		timeout:    timeout,
	}
}

// Run executes one analysis pass with a bounded timeout.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	_, err := w.service.RunAnalysis(ctx)
	w.RecordRun(err)
	return err
}
