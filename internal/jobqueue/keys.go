package jobqueue

import "fmt"

// Redis key layout. Queues and ledgers are ordered string-ID lists, job
// records are string-keyed hashes.
const (
	// DefaultQueueKey is the default pending queue
	DefaultQueueKey = "jobs:queue"

	// DeadLetterKey holds job IDs that raised an unhandled worker failure
	DeadLetterKey = "jobs:dead-letter"

	// ForbiddenWorkersKey is the set of worker identities barred from claiming
	ForbiddenWorkersKey = "forbidden:workers"

	// LogStreamKey is the capped stream worker logs are shipped to
	LogStreamKey = "logs:stream"

	jobKeyPrefix        = "job:"
	processingKeyPrefix = "jobs:processing:"
	namedQueuePrefix    = "jobs:queue:"
)

// JobKey returns the hash key for a job record
func JobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

// ProcessingKey returns the ledger key for a worker identity
func ProcessingKey(workerID string) string {
	return processingKeyPrefix + workerID
}

// QueueKey returns the named pending queue for a (scraper, operation) pair
func QueueKey(scraper, operation string) string {
	return fmt.Sprintf("%s%s:%s", namedQueuePrefix, scraper, operation)
}
