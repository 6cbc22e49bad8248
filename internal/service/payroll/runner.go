package payroll

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
)

// BatchRunner runs payroll batches in background goroutines, one per
// period at a time.
type BatchRunner struct {
	processor payroll.BatchProcessor

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
	base    context.Context
	stop    context.CancelFunc
}

func NewBatchRunner(processor payroll.BatchProcessor) *BatchRunner {
	base, stop := context.WithCancel(context.Background())
	return &BatchRunner{
		processor: processor,
		running:   make(map[string]context.CancelFunc),
		base:      base,
		stop:      stop,
	}
}

// Start checks that the batch exists and launches its run. The run is
// detached from ctx so it outlives the request that started it.
func (r *BatchRunner) Start(ctx context.Context, periodID string, employeeIDs []string) error {
	if _, err := r.processor.GetBatch(ctx, periodID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[periodID]; ok {
		return payroll.ErrBatchAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(r.base)
	r.running[periodID] = cancel
	ids := append([]string(nil), employeeIDs...)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish(periodID)

		result, err := r.processor.Run(runCtx, periodID, ids)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("Payroll batch run cancelled", "period_id", periodID, "processed", result.ProcessedCount)
				return
			}
			slog.Error("Payroll batch run failed", "period_id", periodID, "error", err)
			return
		}
		slog.Info("Payroll batch run finished",
			"period_id", periodID,
			"processed", result.ProcessedCount,
			"failed", len(result.Failures),
		)
	}()

	return nil
}

func (r *BatchRunner) finish(periodID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.running[periodID]; ok {
		cancel()
		delete(r.running, periodID)
	}
}

// Cancel stops a running batch. Employees already started finish.
func (r *BatchRunner) Cancel(periodID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok := r.running[periodID]
	if !ok {
		return payroll.ErrBatchNotRunning
	}
	cancel()
	return nil
}

func (r *BatchRunner) IsRunning(periodID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[periodID]
	return ok
}

// Wait blocks until every started run has returned.
func (r *BatchRunner) Wait() {
	r.wg.Wait()
}

// Shutdown cancels all runs and waits for them, or for ctx to end.
func (r *BatchRunner) Shutdown(ctx context.Context) error {
	r.stop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
