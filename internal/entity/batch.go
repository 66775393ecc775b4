package entity

import "time"

// BatchStatus is the canonical status for rows in batches, always derived
// from child document counts — never a source of truth in its own right.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// Batch groups documents submitted together for joint progress tracking.
type Batch struct {
	ID                 string
	UserID             string
	APIKeyID           string
	TotalDocuments     int
	CompletedDocuments int
	FailedDocuments    int
	Status             BatchStatus
	Priority           int
	CreatedAt          time.Time
	CompletedAt        *time.Time
	Metadata           map[string]any
}
