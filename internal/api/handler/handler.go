package handler

import (
	"log/slog"

	"github.com/cuongbtq/scrape-queue/internal/executor"
	"github.com/cuongbtq/scrape-queue/internal/jobqueue"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Store      *jobqueue.Store
	Queue      *jobqueue.Queue
	DeadLetter *jobqueue.DeadLetter
	Admission  *jobqueue.Admission
	Pairs      []executor.Key
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	store  *jobqueue.Store
	queue  *jobqueue.Queue
	dead   *jobqueue.DeadLetter
	pairs  map[executor.Key]struct{}
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	pairs := make(map[executor.Key]struct{}, len(deps.Pairs))
	for _, k := range deps.Pairs {
		pairs[k] = struct{}{}
	}
	return &JobHandler{
		logger: deps.Logger,
		store:  deps.Store,
		queue:  deps.Queue,
		dead:   deps.DeadLetter,
		pairs:  pairs,
	}
}

// AdminHandler handles admission-control HTTP requests
type AdminHandler struct {
	logger    *slog.Logger
	admission *jobqueue.Admission
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(deps *Dependencies) *AdminHandler {
	return &AdminHandler{
		logger:    deps.Logger,
		admission: deps.Admission,
	}
}
