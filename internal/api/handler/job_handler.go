package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/scrape-queue/internal/api/dto"
	"github.com/cuongbtq/scrape-queue/internal/domain"
	"github.com/cuongbtq/scrape-queue/internal/executor"
	"github.com/cuongbtq/scrape-queue/internal/jobqueue"
)

// CreateJob handles POST /api/v1/jobs
// Writes the job record first, then pushes the ID onto the queue - in that
// order, because the worker's missing-record check assumes the record
// predates queue visibility.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	key := executor.Key{Scraper: req.ScraperType, Operation: req.OperationType}
	if _, ok := h.pairs[key]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown scraper_type/operation_type pair: " + key.String(),
		})
		return
	}

	job := &domain.Job{
		ID:            uuid.New().String(),
		Status:        domain.JobStatusPending,
		ScraperType:   req.ScraperType,
		OperationType: req.OperationType,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Params:        req.Params,
	}

	if err := h.store.Create(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to create job record", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	queueKey := jobqueue.DefaultQueueKey
	if req.Queue == "named" {
		queueKey = jobqueue.QueueKey(req.ScraperType, req.OperationType)
	}

	if err := h.queue.Enqueue(c.Request.Context(), queueKey, job.ID); err != nil {
		h.logger.Error("Failed to enqueue job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue job",
		})
		return
	}

	c.JSON(http.StatusCreated, jobResponse(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
// Outcomes are observable only by polling this record.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, jobResponse(job))
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
// Flips the record to cancelled out-of-band. The worker honors this only if
// the job has not been claimed yet; an in-flight execution is not signalled.
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	if domain.IsTerminal(job.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Job already in terminal status",
			"status": job.Status,
		})
		return
	}

	err = h.store.Update(c.Request.Context(), jobID, map[string]string{
		jobqueue.FieldStatus: domain.JobStatusCancelled,
	})
	if err != nil {
		h.logger.Error("Failed to cancel job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to cancel job",
		})
		return
	}

	h.logger.Info("Job cancelled", slog.String("job_id", jobID))

	c.JSON(http.StatusOK, gin.H{
		"id":     jobID,
		"status": domain.JobStatusCancelled,
	})
}

// ListDeadLetter handles GET /api/v1/dead-letter
func (h *JobHandler) ListDeadLetter(c *gin.Context) {
	ids, err := h.dead.IDs(c.Request.Context(), 100)
	if err != nil {
		h.logger.Error("Failed to list dead-letter sink", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list dead-letter sink",
		})
		return
	}

	resp := dto.DeadLetterResponse{Jobs: make([]dto.JobResponse, 0, len(ids))}
	for _, id := range ids {
		job, err := h.store.Get(c.Request.Context(), id)
		if err != nil {
			// Records are never deleted by this subsystem, but an
			// external purge must not break the listing.
			continue
		}
		resp.Jobs = append(resp.Jobs, jobResponse(job))
	}

	c.JSON(http.StatusOK, resp)
}

// RequeueDeadLetter handles POST /api/v1/dead-letter/:job_id/requeue
func (h *JobHandler) RequeueDeadLetter(c *gin.Context) {
	jobID := c.Param("job_id")

	if err := h.dead.Requeue(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrNotInDeadLetter) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not in dead-letter sink",
			})
			return
		}
		h.logger.Error("Failed to requeue dead-letter job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to requeue job",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     jobID,
		"status": domain.JobStatusPending,
	})
}

func jobResponse(job *domain.Job) dto.JobResponse {
	return dto.JobResponse{
		ID:            job.ID,
		Status:        job.Status,
		ScraperType:   job.ScraperType,
		OperationType: job.OperationType,
		WorkerID:      job.WorkerID,
		CreatedAt:     job.CreatedAt,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
		ResultData:    job.ResultData,
		ErrorMessage:  job.ErrorMessage,
		Params:        job.Params,
	}
}
