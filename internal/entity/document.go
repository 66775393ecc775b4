package entity

import "time"

// DocumentStatus is the canonical status for rows in documents.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
	DocumentArchived   DocumentStatus = "archived"
)

// Document represents a document submitted for OCR-to-Markdown conversion,
// for data transfer between the store and its callers.
type Document struct {
	ID            string
	FileName      string
	MimeType      string
	FileSize      int64
	BlobKey       string
	Content       *string
	Metadata      map[string]any
	Status        DocumentStatus
	ErrorMessage  *string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	ArchivedAt    *time.Time
	RetentionDays int
	UserID        string
	APIKeyID      string
	BatchID       *string
}
