package domain

// Job status values as stored in the job record.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
	JobStatusWarning   = "warning"
)

// Job represents a job record from the store. Params carries every field
// that is not part of the protocol itself (target_id, period, ...).
type Job struct {
	ID            string
	Status        string
	ScraperType   string
	OperationType string
	WorkerID      string
	CreatedAt     string
	StartedAt     string
	CompletedAt   string
	ResultData    string
	ErrorMessage  string
	Params        map[string]string
}

// IsTerminal reports whether the status marks a finished job. A terminal job
// must never be executed again.
func IsTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusWarning:
		return true
	}
	return false
}
