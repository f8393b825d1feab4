package jobqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Admission is the forbidden-worker flag: a soft kill-switch for misbehaving
// workers without terminating their process.
type Admission struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewAdmission creates a new Admission instance
func NewAdmission(rdb *redis.Client, logger *slog.Logger) *Admission {
	return &Admission{
		rdb:    rdb,
		logger: logger,
	}
}

// Forbidden reports whether the worker identity is barred from claiming
func (a *Admission) Forbidden(ctx context.Context, workerID string) (bool, error) {
	forbidden, err := a.rdb.SIsMember(ctx, ForbiddenWorkersKey, workerID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check forbidden workers set: %w", err)
	}
	return forbidden, nil
}

// Forbid bars a worker identity from claiming jobs
func (a *Admission) Forbid(ctx context.Context, workerID string) error {
	if err := a.rdb.SAdd(ctx, ForbiddenWorkersKey, workerID).Err(); err != nil {
		return fmt.Errorf("failed to forbid worker: %w", err)
	}

	a.logger.Warn("Worker forbidden from claiming jobs",
		slog.String("worker_id", workerID),
	)

	return nil
}

// Permit lifts the bar on a worker identity
func (a *Admission) Permit(ctx context.Context, workerID string) error {
	if err := a.rdb.SRem(ctx, ForbiddenWorkersKey, workerID).Err(); err != nil {
		return fmt.Errorf("failed to permit worker: %w", err)
	}

	a.logger.Info("Worker permitted to claim jobs",
		slog.String("worker_id", workerID),
	)

	return nil
}
