package dlq

import (
	"context"
	"errors"
	"time"

	"github.com/dpe27/esk-upload/internal/job"
	"github.com/dpe27/esk-upload/pkg/log"
)

const popErrorDelay = time.Second

type (
	Runner interface {
		Run(ctx context.Context) (time.Time, error)
	}

	RunnerFactory func(j *job.UploadJob) Runner

	DLQWorker struct {
		queue     DeadLetterQueue
		newRunner RunnerFactory
		logger    *log.Logger
	}
)

func NewDLQWorker(queue DeadLetterQueue, newRunner RunnerFactory) *DLQWorker {
	return &DLQWorker{
		queue:     queue,
		newRunner: newRunner,
		logger:    log.With("service", "dlq_worker"),
	}
}

// Start replays failed uploads until ctx is cancelled, then closes the queue.
func (w *DLQWorker) Start(ctx context.Context) {
	w.logger.Info(ctx, "Starting DLQ worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Stopping DLQ worker")
			w.queue.Close(context.WithoutCancel(ctx))
			return

		default:
			if err := w.processNext(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error(ctx, "Failed to pop job from DLQ", "error", err)
				w.pause(ctx)
			}
		}
	}
}

func (w *DLQWorker) pause(ctx context.Context) {
	t := time.NewTimer(popErrorDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// processNext replays one job. Only queue errors are returned; a failed
// replay is requeued or dropped here.
func (w *DLQWorker) processNext(ctx context.Context) error {
	entry, err := w.queue.Pop(ctx)
	if errors.Is(err, ErrEmpty) {
		return nil
	}
	if err != nil {
		return err
	}

	w.logger.Info(ctx, "Processing job from DLQ", "job_id", entry.ID, "name", entry.FailedJob.Name)
	failed := entry.FailedJob
	lastTried, runErr := w.newRunner(&failed).Run(ctx)
	if runErr == nil {
		w.logger.Info(ctx, "Successfully processed job from DLQ", "job_id", entry.ID, "name", entry.FailedJob.Name)
		return nil
	}

	if entry.RetryCount <= 0 {
		w.logger.Error(ctx, "Dropping job from DLQ, no retries left", "job_id", entry.ID, "name", entry.FailedJob.Name, "error", runErr)
		return nil
	}

	entry.RetryCount--
	entry.Error = runErr.Error()
	entry.LastTried = lastTried
	if err := w.queue.Push(ctx, entry); err != nil {
		w.logger.Error(ctx, "Failed to requeue job", "job_id", entry.ID, "error", err)
	}
	return nil
}
