package dto

// CreateJobRequest is the producer payload. Params carries the site-specific
// job parameters (target_id, period, ...).
type CreateJobRequest struct {
	ScraperType   string            `json:"scraper_type" binding:"required"`
	OperationType string            `json:"operation_type" binding:"required"`
	Params        map[string]string `json:"params"`
	Queue         string            `json:"queue"` // "named" routes to the per-pair queue, default otherwise
}

// JobResponse mirrors the job record fields
type JobResponse struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	ScraperType   string            `json:"scraper_type"`
	OperationType string            `json:"operation_type"`
	WorkerID      string            `json:"worker_id,omitempty"`
	CreatedAt     string            `json:"created_at,omitempty"`
	StartedAt     string            `json:"started_at,omitempty"`
	CompletedAt   string            `json:"completed_at,omitempty"`
	ResultData    string            `json:"result_data,omitempty"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
}

// DeadLetterResponse lists dead-letter job IDs with their records
type DeadLetterResponse struct {
	Jobs []JobResponse `json:"jobs"`
}
