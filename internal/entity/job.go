package entity

import "time"

// JobType is the tagged-union discriminator for queued work.
type JobType string

const (
	JobTypeConvert JobType = "convert"
	JobTypeArchive JobType = "archive"
)

// JobStatus is the canonical status for rows in jobs. "retrying" is not a
// materialized state — a retry is pending with a future ScheduledAt.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// DefaultMaxAttempts is the per-job retry ceiling absent an override.
const DefaultMaxAttempts = 3

// Job represents one unit of queued work against a Document.
type Job struct {
	ID           string
	DocumentID   string
	Type         JobType
	Status       JobStatus
	Priority     int
	Attempts     int
	MaxAttempts  int
	Payload      []byte
	Result       []byte
	ErrorMessage *string
	WorkerID     *string
	ScheduledAt  time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}
