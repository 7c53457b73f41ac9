// Package worker runs the background embedding refresh loop.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/juancgarza/memex/application/commands"
	"github.com/juancgarza/memex/application/ports"
	"github.com/juancgarza/memex/pkg/observability"
)

// EmbeddingWorker drains the embedding job outbox on a ticker. Each job is
// processed at least once: crashes between the vector write and the status
// update replay the job, and the write is idempotent.
type EmbeddingWorker struct {
	jobStore ports.EmbeddingJobStore
	handler  *commands.RefreshEmbeddingHandler
	metrics  *observability.Metrics
	logger   *zap.Logger

	batchSize   int
	interval    time.Duration
	maxAttempts int

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewEmbeddingWorker creates a new embedding worker
func NewEmbeddingWorker(
	jobStore ports.EmbeddingJobStore,
	handler *commands.RefreshEmbeddingHandler,
	metrics *observability.Metrics,
	logger *zap.Logger,
	batchSize int,
	interval time.Duration,
	maxAttempts int,
) *EmbeddingWorker {
	return &EmbeddingWorker{
		jobStore:    jobStore,
		handler:     handler,
		metrics:     metrics,
		logger:      logger,
		batchSize:   batchSize,
		interval:    interval,
		maxAttempts: maxAttempts,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the background processing of embedding jobs
func (w *EmbeddingWorker) Start(ctx context.Context) {
	w.logger.Info("Starting embedding worker",
		zap.Int("batchSize", w.batchSize),
		zap.Duration("interval", w.interval),
		zap.Int("maxAttempts", w.maxAttempts),
	)
	go w.processLoop(ctx)
}

// Stop gracefully stops the worker
func (w *EmbeddingWorker) Stop() {
	w.logger.Info("Stopping embedding worker")
	close(w.stopChan)
	<-w.stoppedChan
	w.logger.Info("Embedding worker stopped")
}

func (w *EmbeddingWorker) processLoop(ctx context.Context) {
	defer close(w.stoppedChan)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Context cancelled, stopping embedding worker")
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error("Error processing embedding batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch drains one batch of pending jobs. Exported so the lambda
// entrypoint can run a single drain per invocation.
func (w *EmbeddingWorker) ProcessBatch(ctx context.Context) error {
	jobs, err := w.jobStore.GetPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	w.logger.Debug("Processing embedding batch", zap.Int("jobs", len(jobs)))

	for _, job := range jobs {
		w.processJob(ctx, job)
	}
	return nil
}

func (w *EmbeddingWorker) processJob(ctx context.Context, job *ports.EmbeddingJob) {
	timer := w.metrics.StartTimer("embedding_job_duration", job.Collection)
	defer timer.Stop()

	err := w.handler.Handle(ctx, commands.RefreshEmbeddingCommand{
		OwnerID:    job.OwnerID,
		EntityID:   job.EntityID,
		Collection: job.Collection,
	})

	switch {
	case err == nil:
		w.metrics.Increment("embedding_job_done", job.Collection)
		if markErr := w.jobStore.MarkDone(ctx, job.JobID); markErr != nil {
			w.logger.Warn("Failed to mark job done",
				zap.String("jobID", job.JobID), zap.Error(markErr))
		}

	case errors.Is(err, commands.ErrEntityGone):
		// Entity deleted between enqueue and processing; nothing to embed
		w.metrics.Increment("embedding_job_skipped", job.Collection)
		if markErr := w.jobStore.MarkSkipped(ctx, job.JobID); markErr != nil {
			w.logger.Warn("Failed to mark job skipped",
				zap.String("jobID", job.JobID), zap.Error(markErr))
		}

	default:
		attempts := job.Attempts + 1
		exhausted := attempts >= w.maxAttempts
		w.metrics.Increment("embedding_job_failed", job.Collection)
		w.logger.Error("Embedding job failed",
			zap.String("jobID", job.JobID),
			zap.String("entityID", job.EntityID),
			zap.Int("attempts", attempts),
			zap.Bool("exhausted", exhausted),
			zap.Error(err),
		)
		if markErr := w.jobStore.MarkFailed(ctx, job.JobID, attempts, err.Error(), exhausted); markErr != nil {
			w.logger.Warn("Failed to mark job failed",
				zap.String("jobID", job.JobID), zap.Error(markErr))
		}
	}
}
