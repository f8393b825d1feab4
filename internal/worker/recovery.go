package worker

import (
	"context"
	"log/slog"
)

// recoverInterrupted re-queues every job left in this worker's processing
// ledger by a prior crash. Runs before the first claim; each move is a single
// atomic Redis operation, so a concurrent worker sees each re-queued ID
// exactly once.
func (w *Worker) recoverInterrupted(ctx context.Context) error {
	n, err := w.queue.LedgerLen(ctx, w.workerID)
	if err != nil {
		return err
	}
	if n == 0 {
		w.logger.Info("No interrupted jobs to recover",
			slog.String("worker_id", w.workerID),
		)
		return nil
	}

	w.logger.Warn("Found interrupted jobs in processing ledger, re-queueing",
		slog.String("worker_id", w.workerID),
		slog.Int64("count", n),
	)

	recovered, err := w.queue.Recover(ctx, w.workerID)
	if err != nil {
		return err
	}

	w.logger.Warn("Recovery complete",
		slog.String("worker_id", w.workerID),
		slog.Int("recovered", recovered),
	)

	return nil
}
