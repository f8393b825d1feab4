package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/scrape-queue/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "scrape-queue-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	adminHandler := handler.NewAdminHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Create and enqueue a new job
			jobs.POST("", jobHandler.CreateJob)

			// GET /api/v1/jobs/:job_id - Get job record
			jobs.GET("/:job_id", jobHandler.GetJob)

			// POST /api/v1/jobs/:job_id/cancel - Cancel a job out-of-band
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob)
		}

		dead := v1.Group("/dead-letter")
		{
			// GET /api/v1/dead-letter - List dead-letter jobs
			dead.GET("", jobHandler.ListDeadLetter)

			// POST /api/v1/dead-letter/:job_id/requeue - Put a dead-letter job back on the queue
			dead.POST("/:job_id/requeue", jobHandler.RequeueDeadLetter)
		}

		workers := v1.Group("/workers")
		{
			// POST /api/v1/workers/:worker_id/forbid - Bar a worker from claiming
			workers.POST("/:worker_id/forbid", adminHandler.ForbidWorker)

			// DELETE /api/v1/workers/:worker_id/forbid - Lift the bar
			workers.DELETE("/:worker_id/forbid", adminHandler.PermitWorker)
		}
	}

	return r
}
