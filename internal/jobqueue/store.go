package jobqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/cuongbtq/scrape-queue/internal/domain"
)

// Protocol field names within a job record hash.
const (
	FieldID            = "id"
	FieldStatus        = "status"
	FieldScraperType   = "scraper_type"
	FieldOperationType = "operation_type"
	FieldWorkerID      = "worker_id"
	FieldCreatedAt     = "created_at"
	FieldStartedAt     = "started_at"
	FieldCompletedAt   = "completed_at"
	FieldResultData    = "result_data"
	FieldErrorMessage  = "error_message"
)

// updateScript merges fields into an existing record. It refuses to create a
// record as a side effect of an update: a missing key means the job was
// purged externally and the caller must drop its claim.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// Store persists job records as Redis hashes keyed by job ID.
type Store struct {
	rdb    redis.Cmdable
	logger *slog.Logger
}

// NewStore creates a new Store instance
func NewStore(rdb redis.Cmdable, logger *slog.Logger) *Store {
	return &Store{
		rdb:    rdb,
		logger: logger,
	}
}

// Create writes a full job record. The record must exist before the job ID
// becomes visible on any queue.
func (s *Store) Create(ctx context.Context, job *domain.Job) error {
	fields := recordFields(job)

	if err := s.rdb.HSet(ctx, JobKey(job.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to create job record: %w", err)
	}

	s.logger.Info("Job record created",
		slog.String("job_id", job.ID),
		slog.String("scraper_type", job.ScraperType),
		slog.String("operation_type", job.OperationType),
	)

	return nil
}

// Get retrieves a job record. Returns domain.ErrJobNotFound for a missing key.
func (s *Store) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	raw, err := s.rdb.HGetAll(ctx, JobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get job record: %w", err)
	}

	if len(raw) == 0 {
		return nil, domain.ErrJobNotFound
	}

	return jobFromRecord(jobID, raw), nil
}

// Update merges fields into an existing record. Returns domain.ErrJobNotFound
// when the record is missing; nothing is written in that case.
func (s *Store) Update(ctx context.Context, jobID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	argv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		argv = append(argv, k, v)
	}

	n, err := updateScript.Run(ctx, s.rdb, []string{JobKey(jobID)}, argv...).Int()
	if err != nil {
		return fmt.Errorf("failed to update job record: %w", err)
	}

	if n == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

func recordFields(job *domain.Job) map[string]string {
	fields := map[string]string{
		FieldID:            job.ID,
		FieldStatus:        job.Status,
		FieldScraperType:   job.ScraperType,
		FieldOperationType: job.OperationType,
		FieldCreatedAt:     job.CreatedAt,
	}
	for k, v := range job.Params {
		fields[k] = v
	}
	return fields
}

func jobFromRecord(jobID string, raw map[string]string) *domain.Job {
	job := &domain.Job{
		ID:     jobID,
		Params: make(map[string]string),
	}

	for k, v := range raw {
		switch k {
		case FieldID:
			// key already carries the ID
		case FieldStatus:
			job.Status = v
		case FieldScraperType:
			job.ScraperType = v
		case FieldOperationType:
			job.OperationType = v
		case FieldWorkerID:
			job.WorkerID = v
		case FieldCreatedAt:
			job.CreatedAt = v
		case FieldStartedAt:
			job.StartedAt = v
		case FieldCompletedAt:
			job.CompletedAt = v
		case FieldResultData:
			job.ResultData = v
		case FieldErrorMessage:
			job.ErrorMessage = v
		default:
			job.Params[k] = v
		}
	}

	return job
}
