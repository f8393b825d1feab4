package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/scrape-queue/internal/domain"
	"github.com/cuongbtq/scrape-queue/internal/executor"
	"github.com/cuongbtq/scrape-queue/internal/jobqueue"
)

// Executor is the collaborator that runs a claimed job's operation.
type Executor interface {
	Execute(ctx context.Context, jobID, scraper, operation string, params map[string]string) (*executor.Outcome, error)
}

// Config holds worker configuration
type Config struct {
	Logger           *slog.Logger
	Store            *jobqueue.Store
	Queue            *jobqueue.Queue
	DeadLetter       *jobqueue.DeadLetter
	Admission        *jobqueue.Admission
	Executor         Executor
	WorkerID         string
	ClaimTimeout     time.Duration
	ForbiddenBackoff time.Duration
	ErrorBackoff     time.Duration
}

// Worker claims one job at a time, executes it and commits the outcome.
// Concurrency is across worker processes; the claim operation is the only
// synchronization point between them.
type Worker struct {
	logger           *slog.Logger
	store            *jobqueue.Store
	queue            *jobqueue.Queue
	dead             *jobqueue.DeadLetter
	admission        *jobqueue.Admission
	exec             Executor
	workerID         string
	claimTimeout     time.Duration
	forbiddenBackoff time.Duration
	errorBackoff     time.Duration
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	forbiddenBackoff := cfg.ForbiddenBackoff
	if forbiddenBackoff <= 0 {
		forbiddenBackoff = 30 * time.Second
	}
	errorBackoff := cfg.ErrorBackoff
	if errorBackoff <= 0 {
		errorBackoff = 5 * time.Second
	}

	return &Worker{
		logger:           cfg.Logger,
		store:            cfg.Store,
		queue:            cfg.Queue,
		dead:             cfg.DeadLetter,
		admission:        cfg.Admission,
		exec:             cfg.Executor,
		workerID:         cfg.WorkerID,
		claimTimeout:     cfg.ClaimTimeout,
		forbiddenBackoff: forbiddenBackoff,
		errorBackoff:     errorBackoff,
	}
}

// Run recovers interrupted jobs, then claims and processes jobs until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.recoverInterrupted(ctx); err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}

	w.logger.Info("Worker started, listening for jobs",
		slog.String("worker_id", w.workerID),
		slog.Any("queues", w.queue.Queues()),
	)

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("Worker stopping - context canceled",
				slog.String("worker_id", w.workerID),
			)
			return nil
		}

		forbidden, err := w.admission.Forbidden(ctx, w.workerID)
		if err != nil {
			w.logger.Error("Failed to check admission control",
				slog.String("worker_id", w.workerID),
				slog.String("error", err.Error()),
			)
			w.sleep(ctx, w.errorBackoff)
			continue
		}
		if forbidden {
			w.logger.Warn("Worker is forbidden from accepting jobs, backing off",
				slog.String("worker_id", w.workerID),
				slog.Duration("backoff", w.forbiddenBackoff),
			)
			w.sleep(ctx, w.forbiddenBackoff)
			continue
		}

		jobID, err := w.queue.Claim(ctx, w.workerID, w.claimTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("Claim failed, backing off",
				slog.String("worker_id", w.workerID),
				slog.String("error", err.Error()),
			)
			w.sleep(ctx, w.errorBackoff)
			continue
		}
		if jobID == "" {
			continue
		}

		w.logger.Info("Received job",
			slog.String("job_id", jobID),
			slog.String("worker_id", w.workerID),
		)

		w.process(ctx, jobID)
	}
}

// process runs the claimed job through the state machine. A panic anywhere
// between validation and commit escalates to the dead-letter sink.
func (w *Worker) process(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			w.escalate(ctx, jobID, fmt.Sprintf("unhandled worker failure: %v", r))
		}
	}()

	job, err := w.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// Purged externally; the claim is dropped, not retried.
			w.logger.Error("Could not find job record, dropping claim",
				slog.String("job_id", jobID),
			)
			w.ack(ctx, jobID)
			return
		}
		// Transient store failure: the ID stays in the ledger so a
		// restart re-queues it.
		w.logger.Error("Failed to read job record, leaving claim in ledger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		w.sleep(ctx, w.errorBackoff)
		return
	}

	if job.Status == domain.JobStatusCancelled {
		w.finalizeCancelled(ctx, jobID)
		return
	}

	if domain.IsTerminal(job.Status) {
		w.logger.Warn("Job already terminal but was in queue, dropping stale delivery",
			slog.String("job_id", jobID),
			slog.String("status", job.Status),
		)
		w.ack(ctx, jobID)
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	err = w.store.Update(ctx, jobID, map[string]string{
		jobqueue.FieldStatus:    domain.JobStatusRunning,
		jobqueue.FieldWorkerID:  w.workerID,
		jobqueue.FieldStartedAt: now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			w.logger.Error("Job record vanished before execution, dropping claim",
				slog.String("job_id", jobID),
			)
			w.ack(ctx, jobID)
			return
		}
		w.logger.Error("Failed to mark job running, leaving claim in ledger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		w.sleep(ctx, w.errorBackoff)
		return
	}

	w.logger.Info("Executing job",
		slog.String("job_id", jobID),
		slog.String("scraper_type", job.ScraperType),
		slog.String("operation_type", job.OperationType),
	)

	outcome, execErr := w.exec.Execute(ctx, job.ID, job.ScraperType, job.OperationType, job.Params)

	fields := commitFields(outcome, execErr)
	if err := w.store.Update(ctx, jobID, fields); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			w.logger.Error("Job record vanished before commit, dropping claim",
				slog.String("job_id", jobID),
			)
			w.ack(ctx, jobID)
			return
		}
		w.logger.Error("Failed to commit job outcome, leaving claim in ledger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		w.sleep(ctx, w.errorBackoff)
		return
	}

	w.logger.Info("Finished job",
		slog.String("job_id", jobID),
		slog.String("status", fields[jobqueue.FieldStatus]),
	)

	// Commit before ledger removal: a crash between the two leaves a
	// terminal job in the ledger, which recovery re-queues and the stale
	// delivery check then drops without re-executing.
	w.ack(ctx, jobID)
}

// commitFields normalizes the three executor result shapes into the terminal
// record write.
func commitFields(outcome *executor.Outcome, execErr error) map[string]string {
	fields := map[string]string{
		jobqueue.FieldCompletedAt: time.Now().UTC().Format(time.RFC3339),
	}

	switch {
	case execErr != nil:
		fields[jobqueue.FieldStatus] = domain.JobStatusFailed
		fields[jobqueue.FieldErrorMessage] = execErr.Error()

	case outcome == nil:
		fields[jobqueue.FieldStatus] = domain.JobStatusFailed
		fields[jobqueue.FieldErrorMessage] = "job execution returned no result"

	case outcome.Status == executor.StatusCaptchaRequired:
		fields[jobqueue.FieldStatus] = domain.JobStatusFailed
		fields[jobqueue.FieldErrorMessage] = "captcha challenge required: " + outcome.ChallengeURL

	case outcome.Status == executor.StatusFailed:
		fields[jobqueue.FieldStatus] = domain.JobStatusFailed
		fields[jobqueue.FieldErrorMessage] = outcome.Error

	case outcome.Status == executor.StatusWarning:
		fields[jobqueue.FieldStatus] = domain.JobStatusWarning
		fields[jobqueue.FieldResultData] = string(outcome.Payload)
		fields[jobqueue.FieldErrorMessage] = ""
		if outcome.Note != "" {
			fields["note"] = outcome.Note
		}

	case executor.EmptyPayload(outcome.Payload):
		// Ran successfully but found nothing.
		fields[jobqueue.FieldStatus] = domain.JobStatusWarning
		fields[jobqueue.FieldResultData] = string(outcome.Payload)
		fields[jobqueue.FieldErrorMessage] = ""
		fields["note"] = "execution succeeded with an empty payload"

	default:
		fields[jobqueue.FieldStatus] = domain.JobStatusCompleted
		fields[jobqueue.FieldResultData] = string(outcome.Payload)
		fields[jobqueue.FieldErrorMessage] = ""
	}

	return fields
}

// finalizeCancelled commits a job that was cancelled out-of-band while still
// pending, without invoking the executor.
func (w *Worker) finalizeCancelled(ctx context.Context, jobID string) {
	now := time.Now().UTC().Format(time.RFC3339)

	w.logger.Info("Job was cancelled before execution, finalizing",
		slog.String("job_id", jobID),
	)

	err := w.store.Update(ctx, jobID, map[string]string{
		jobqueue.FieldStatus:       domain.JobStatusCancelled,
		jobqueue.FieldWorkerID:     w.workerID,
		jobqueue.FieldStartedAt:    now,
		jobqueue.FieldCompletedAt:  now,
		jobqueue.FieldErrorMessage: "job was cancelled before execution",
	})
	if err != nil && !errors.Is(err, domain.ErrJobNotFound) {
		w.logger.Error("Failed to finalize cancelled job, leaving claim in ledger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		w.sleep(ctx, w.errorBackoff)
		return
	}

	w.ack(ctx, jobID)
}

// escalate handles an unhandled failure inside the loop itself: mark the
// record failed and push the ID to the dead-letter sink in one transaction,
// then clear the ledger entry. If the transaction fails the ID deliberately
// stays in the ledger for retry on restart.
func (w *Worker) escalate(ctx context.Context, jobID, reason string) {
	w.logger.Error("Unhandled failure while processing job, moving to dead-letter sink",
		slog.String("job_id", jobID),
		slog.String("error", reason),
	)

	err := w.dead.Push(ctx, jobID, map[string]string{
		jobqueue.FieldStatus:       domain.JobStatusFailed,
		jobqueue.FieldErrorMessage: reason,
		jobqueue.FieldCompletedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		w.logger.Error("Could not move job to dead-letter sink, leaving claim in ledger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		w.sleep(ctx, w.errorBackoff)
		return
	}

	w.ack(ctx, jobID)
}

func (w *Worker) ack(ctx context.Context, jobID string) {
	if err := w.queue.Ack(ctx, w.workerID, jobID); err != nil {
		w.logger.Error("Failed to remove job from processing ledger",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
