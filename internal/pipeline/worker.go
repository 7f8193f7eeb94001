package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/docredact/internal/redaction"
)

// Analyzer is the part of the redaction service a worker needs.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, data []byte) (*redaction.Analysis, error)
}

// Worker processes a single analysis job.
type Worker struct {
	analyzer    Analyzer
	maxAttempts int
	log         *slog.Logger
	backoff     func(attempt int) time.Duration
}

// NewWorker creates a worker that tries each job up to maxAttempts times.
func NewWorker(analyzer Analyzer, maxAttempts int, log *slog.Logger) *Worker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Worker{
		analyzer:    analyzer,
		maxAttempts: maxAttempts,
		log:         log,
		backoff:     Backoff,
	}
}

// Process analyzes the job's file. Storage failures are retried while
// attempts remain; every other failure is final.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusAnalyzing, "analyzing")
	data := job.FileData()

	var lastErr error
	for attempt := range w.maxAttempts {
		job.IncrAttempts()
		a, err := w.analyzer.Analyze(ctx, job.Filename, data)
		if err == nil {
			job.Complete(a)
			log.Info("batch job completed", "file_id", a.FileID, "pii_items", len(a.Analysis.PIIItems))
			return
		}
		lastErr = err
		if !IsRetryable(err) || attempt == w.maxAttempts-1 {
			break
		}
		log.Warn("retryable analysis error", "attempt", attempt, "error", err)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
			job.AddError(lastErr.Error())
			job.Fail("canceled")
			return
		}
	}

	log.Error("batch job failed", "error", lastErr, "kind", redaction.Kind(lastErr))
	job.AddError(lastErr.Error())
	job.Fail(redaction.Kind(lastErr))
}
