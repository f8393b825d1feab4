package jobqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/cuongbtq/scrape-queue/internal/domain"
)

// DeadLetter indexes jobs whose execution raised an unhandled worker failure.
// It is an auxiliary index over job IDs, never a deletion of records.
type DeadLetter struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewDeadLetter creates a new DeadLetter instance
func NewDeadLetter(rdb *redis.Client, logger *slog.Logger) *DeadLetter {
	return &DeadLetter{
		rdb:    rdb,
		logger: logger,
	}
}

// Push updates the job record and pushes the ID onto the dead-letter list as
// one MULTI/EXEC transaction. If it fails, the caller must leave the job in
// the processing ledger so it is retried after a restart instead of lost.
func (d *DeadLetter) Push(ctx context.Context, jobID string, fields map[string]string) error {
	pipe := d.rdb.TxPipeline()
	pipe.HSet(ctx, JobKey(jobID), fields)
	pipe.LPush(ctx, DeadLetterKey, jobID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push job to dead-letter sink: %w", err)
	}

	d.logger.Warn("Job moved to dead-letter sink",
		slog.String("job_id", jobID),
	)

	return nil
}

// IDs returns up to limit job IDs from the dead-letter list, newest first
func (d *DeadLetter) IDs(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	ids, err := d.rdb.LRange(ctx, DeadLetterKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list dead-letter sink: %w", err)
	}

	return ids, nil
}

// Requeue removes a job ID from the dead-letter list, resets its record to
// pending and pushes it back onto the default queue.
func (d *DeadLetter) Requeue(ctx context.Context, jobID string) error {
	removed, err := d.rdb.LRem(ctx, DeadLetterKey, 1, jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to remove job from dead-letter sink: %w", err)
	}
	if removed == 0 {
		return domain.ErrNotInDeadLetter
	}

	pipe := d.rdb.TxPipeline()
	pipe.HSet(ctx, JobKey(jobID), map[string]string{
		FieldStatus:       domain.JobStatusPending,
		FieldWorkerID:     "",
		FieldStartedAt:    "",
		FieldCompletedAt:  "",
		FieldErrorMessage: "",
	})
	pipe.LPush(ctx, DefaultQueueKey, jobID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to requeue dead-letter job: %w", err)
	}

	d.logger.Info("Dead-letter job requeued",
		slog.String("job_id", jobID),
	)

	return nil
}
