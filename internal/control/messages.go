// Package control implements the narrow read-only gRPC control surface
// (§6.1's "Reads": getDocument, getBatch, getBatchDocuments, listBatches,
// getJob), grounded on the teacher's internal/server package and its
// cmd/receiptsd wiring (grpc.NewServer + health + reflection).
//
// The teacher's service is reached through protoc-generated stubs
// (receipts-tracker/gen/receipts/v1) that are not available to generate
// here, so this package defines its request/response messages as plain
// Go structs and swaps the wire codec for JSON (codec.go) instead of
// generated protobuf marshaling. The service/method shape — one
// grpc.ServiceDesc, one handler per read operation, health and
// reflection registered alongside it — is unchanged from the teacher's.
package control

import (
	"time"

	"github.com/joseph-ayodele/docmark/internal/entity"
)

// GetDocumentRequest requests a single document by id.
type GetDocumentRequest struct {
	ID string `json:"id"`
}

// DocumentMessage mirrors entity.Document for the wire.
type DocumentMessage struct {
	ID            string         `json:"id"`
	FileName      string         `json:"file_name"`
	MimeType      string         `json:"mime_type"`
	FileSize      int64          `json:"file_size"`
	Content       *string        `json:"content,omitempty"`
	Status        string         `json:"status"`
	ErrorMessage  *string        `json:"error_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ProcessedAt   *time.Time     `json:"processed_at,omitempty"`
	ArchivedAt    *time.Time     `json:"archived_at,omitempty"`
	RetentionDays int            `json:"retention_days"`
	UserID        string         `json:"user_id"`
	BatchID       *string        `json:"batch_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func newDocumentMessage(d *entity.Document) *DocumentMessage {
	if d == nil {
		return nil
	}
	return &DocumentMessage{
		ID:            d.ID,
		FileName:      d.FileName,
		MimeType:      d.MimeType,
		FileSize:      d.FileSize,
		Content:       d.Content,
		Status:        string(d.Status),
		ErrorMessage:  d.ErrorMessage,
		CreatedAt:     d.CreatedAt,
		ProcessedAt:   d.ProcessedAt,
		ArchivedAt:    d.ArchivedAt,
		RetentionDays: d.RetentionDays,
		UserID:        d.UserID,
		BatchID:       d.BatchID,
		Metadata:      d.Metadata,
	}
}

// GetBatchRequest requests a single batch by id.
type GetBatchRequest struct {
	ID string `json:"id"`
}

// BatchMessage mirrors entity.Batch for the wire.
type BatchMessage struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	TotalDocuments     int            `json:"total_documents"`
	CompletedDocuments int            `json:"completed_documents"`
	FailedDocuments    int            `json:"failed_documents"`
	Status             string         `json:"status"`
	Priority           int            `json:"priority"`
	CreatedAt          time.Time      `json:"created_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

func newBatchMessage(b *entity.Batch) *BatchMessage {
	if b == nil {
		return nil
	}
	return &BatchMessage{
		ID:                 b.ID,
		UserID:             b.UserID,
		TotalDocuments:     b.TotalDocuments,
		CompletedDocuments: b.CompletedDocuments,
		FailedDocuments:    b.FailedDocuments,
		Status:             string(b.Status),
		Priority:           b.Priority,
		CreatedAt:          b.CreatedAt,
		CompletedAt:        b.CompletedAt,
		Metadata:           b.Metadata,
	}
}

// GetBatchDocumentsRequest requests every document belonging to a batch.
type GetBatchDocumentsRequest struct {
	BatchID string `json:"batch_id"`
}

// BatchDocumentsResponse lists a batch's documents.
type BatchDocumentsResponse struct {
	Documents []*DocumentMessage `json:"documents"`
}

// ListBatchesRequest lists a user's batches, most recent first.
type ListBatchesRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// ListBatchesResponse is the paginated result of ListBatches.
type ListBatchesResponse struct {
	Batches []*BatchMessage `json:"batches"`
}

// GetJobRequest requests a single job by id.
type GetJobRequest struct {
	ID string `json:"id"`
}

// JobMessage mirrors entity.Job for the wire.
type JobMessage struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"document_id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Priority     int        `json:"priority"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	WorkerID     *string    `json:"worker_id,omitempty"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newJobMessage(j *entity.Job) *JobMessage {
	if j == nil {
		return nil
	}
	return &JobMessage{
		ID:           j.ID,
		DocumentID:   j.DocumentID,
		Type:         string(j.Type),
		Status:       string(j.Status),
		Priority:     j.Priority,
		Attempts:     j.Attempts,
		MaxAttempts:  j.MaxAttempts,
		ErrorMessage: j.ErrorMessage,
		WorkerID:     j.WorkerID,
		ScheduledAt:  j.ScheduledAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		CreatedAt:    j.CreatedAt,
	}
}
