package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nikhilbhutani/pdfchat/internal/models"
)

type Ingester interface {
	Ingest(ctx context.Context, file *models.File) error
}

// InlineTrigger runs ingestion in a background goroutine of the API process.
type InlineTrigger struct {
	ingester Ingester
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewInlineTrigger(ingester Ingester, timeout time.Duration, logger *slog.Logger) *InlineTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &InlineTrigger{ingester: ingester, timeout: timeout, logger: logger}
}

// Trigger returns immediately. The run is detached from ctx cancellation
// and bounded by the trigger timeout.
func (t *InlineTrigger) Trigger(ctx context.Context, file *models.File) error {
	f := *file
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
		defer cancel()
		if err := t.ingester.Ingest(runCtx, &f); err != nil {
			t.logger.Warn("inline ingestion ended with error", "file_id", f.ID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every triggered run has finished.
func (t *InlineTrigger) Wait() {
	t.wg.Wait()
}
