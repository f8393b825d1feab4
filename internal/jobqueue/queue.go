package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// blockSlice bounds a single blocking pop so the sweep over the other
// authorized queues runs at least once per second.
const blockSlice = time.Second

// Queue moves job IDs between pending queues and per-worker processing
// ledgers. Every move is a single Redis list operation, so a second
// concurrent claimer can never observe the same ID.
type Queue struct {
	rdb    *redis.Client
	queues []string
	logger *slog.Logger
}

// NewQueue creates a Queue over the given authorized pending queues. An empty
// list authorizes only the default queue.
func NewQueue(rdb *redis.Client, queues []string, logger *slog.Logger) *Queue {
	if len(queues) == 0 {
		queues = []string{DefaultQueueKey}
	}
	return &Queue{
		rdb:    rdb,
		queues: queues,
		logger: logger,
	}
}

// Queues returns the authorized pending queue keys
func (q *Queue) Queues() []string {
	return q.queues
}

// Enqueue pushes a job ID onto a pending queue. The job record must already
// exist in the store.
func (q *Queue) Enqueue(ctx context.Context, queueKey, jobID string) error {
	if err := q.rdb.LPush(ctx, queueKey, jobID).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.logger.Info("Job enqueued",
		slog.String("job_id", jobID),
		slog.String("queue", queueKey),
	)

	return nil
}

// Claim atomically moves one job ID from an authorized pending queue into the
// worker's processing ledger. It blocks up to timeout (0 = indefinitely) and
// returns "" when no job arrived in time.
func (q *Queue) Claim(ctx context.Context, workerID string, timeout time.Duration) (string, error) {
	processing := ProcessingKey(workerID)

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		// Non-blocking sweep so a backlog on any authorized queue is
		// served before blocking again.
		for _, key := range q.queues {
			jobID, err := q.rdb.RPopLPush(ctx, key, processing).Result()
			if err == nil {
				return jobID, nil
			}
			if !errors.Is(err, redis.Nil) {
				return "", fmt.Errorf("failed to claim job: %w", err)
			}
		}

		slice := blockSlice
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return "", nil
			}
			if remaining < slice {
				slice = remaining
			}
		}

		jobID, err := q.rdb.BRPopLPush(ctx, q.queues[0], processing, slice).Result()
		if err == nil {
			return jobID, nil
		}
		if !errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("failed to claim job: %w", err)
		}
	}
}

// Ack removes a job ID from the worker's processing ledger. Called only after
// the job's terminal outcome has been durably recorded, or when the claim is
// dropped as stale.
func (q *Queue) Ack(ctx context.Context, workerID, jobID string) error {
	if err := q.rdb.LRem(ctx, ProcessingKey(workerID), 1, jobID).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing ledger: %w", err)
	}
	return nil
}

// LedgerLen returns the number of entries in a worker's processing ledger
func (q *Queue) LedgerLen(ctx context.Context, workerID string) (int64, error) {
	n, err := q.rdb.LLen(ctx, ProcessingKey(workerID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read processing ledger length: %w", err)
	}
	return n, nil
}

// Recover moves every entry of the worker's processing ledger back onto the
// default pending queue, one atomic move at a time, and returns how many job
// IDs were re-queued.
func (q *Queue) Recover(ctx context.Context, workerID string) (int, error) {
	processing := ProcessingKey(workerID)
	recovered := 0

	for {
		jobID, err := q.rdb.RPopLPush(ctx, processing, DefaultQueueKey).Result()
		if errors.Is(err, redis.Nil) {
			return recovered, nil
		}
		if err != nil {
			return recovered, fmt.Errorf("failed to recover job from processing ledger: %w", err)
		}

		recovered++
		q.logger.Info("Re-queued interrupted job",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
		)
	}
}
