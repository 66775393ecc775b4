// Package queue implements the Queue Repository (§4.3): the typed
// operations over Job/Document/Batch that the Worker and Dispatcher call.
// Every write is routed through internal/retry's bounded backoff wrapper,
// grounded on the teacher's internal/repository package (one interface
// per aggregate, a struct holding the store handle and a logger, a
// New*Repository constructor).
package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/retry"
	"github.com/joseph-ayodele/docmark/internal/store"
)

// jobRetryBackoffBase and orphanResetBackoffBase are kept distinct per
// SPEC_FULL.md Open Question 2: failJob's backoff models a worker's own
// retry judgment on expensive real work; cleanupOrphanedJobs' backoff
// models recovery from a dead worker and can be far more aggressive.
const (
	jobRetryBackoffBase    = 60 * time.Second
	orphanResetBackoffBase = 5 * time.Second
)

// Repository is the Queue Repository contract consumed by the Worker and
// Dispatcher.
type Repository interface {
	CreateDocument(ctx context.Context, p CreateDocumentParams) (string, error)
	CreateBatch(ctx context.Context, p CreateBatchParams) (string, error)
	CreateJob(ctx context.Context, p CreateJobParams) (string, error)

	HasReadyJob(ctx context.Context) (bool, error)
	ClaimNextJob(ctx context.Context, workerID string) (*entity.Job, error)
	CompleteJobAndDocument(ctx context.Context, jobID, documentID string, outcome Outcome) error
	CompleteArchiveJob(ctx context.Context, jobID, documentID string, metadata map[string]any) error
	FailDocumentBestEffort(ctx context.Context, documentID string, batchID *string, errMsg string)
	FailJob(ctx context.Context, jobID, errMsg string) error
	FailJobTerminal(ctx context.Context, jobID, errMsg string) error
	RecordUsage(ctx context.Context, u *entity.Usage) error

	CleanupOrphanedJobs(ctx context.Context, orphanThreshold time.Duration) (int, error)
	UpdateBatchProgress(ctx context.Context, batchID string) error
	ArchiveOldDocuments(ctx context.Context) (int, error)

	GetDocument(ctx context.Context, id string) (*entity.Document, error)
	GetJob(ctx context.Context, id string) (*entity.Job, error)
	GetBatch(ctx context.Context, id string) (*entity.Batch, error)
	GetBatchDocuments(ctx context.Context, batchID string) ([]*entity.Document, error)
	ListBatches(ctx context.Context, userID string, limit int) ([]*entity.Batch, error)
}

type repo struct {
	store *store.Store
	log   *slog.Logger
}

// New builds a Repository backed by st.
func New(st *store.Store, log *slog.Logger) Repository {
	if log == nil {
		log = slog.Default()
	}
	return &repo{store: st, log: log}
}

// CreateDocumentParams carries the attributes the Submission API supplies
// when a document is submitted.
type CreateDocumentParams struct {
	FileName      string
	MimeType      string
	FileSize      int64
	BlobKey       string
	Metadata      map[string]any
	RetentionDays int
	UserID        string
	APIKeyID      string
	BatchID       *string
}

func (r *repo) CreateDocument(ctx context.Context, p CreateDocumentParams) (string, error) {
	id := uuid.NewString()
	retentionDays := p.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	v := common.NewValidator()
	v.Field("retention_days", retentionDays, func(field string, value interface{}) *common.ValidationError {
		return common.IntRange(field, value, 1, 3650)
	})
	if err := common.ValidateAndReturnError(v); err != nil {
		return "", err
	}
	doc := &entity.Document{
		ID:            id,
		FileName:      p.FileName,
		MimeType:      p.MimeType,
		FileSize:      p.FileSize,
		BlobKey:       p.BlobKey,
		Metadata:      p.Metadata,
		Status:        entity.DocumentPending,
		CreatedAt:     now(),
		RetentionDays: retentionDays,
		UserID:        p.UserID,
		APIKeyID:      p.APIKeyID,
		BatchID:       p.BatchID,
	}
	err := retry.Op(ctx, r.log, "CreateDocument", func(ctx context.Context) error {
		return store.InsertDocument(ctx, r.store.DB(), doc)
	})
	if err != nil {
		return "", err
	}
	r.log.Info("document created", "document_id", id, "batch_id", p.BatchID)
	return id, nil
}

// CreateBatchParams carries the attributes of a new batch submission.
type CreateBatchParams struct {
	UserID         string
	APIKeyID       string
	TotalDocuments int
	Priority       int
	Metadata       map[string]any
}

func (r *repo) CreateBatch(ctx context.Context, p CreateBatchParams) (string, error) {
	id := uuid.NewString()
	b := &entity.Batch{
		ID:             id,
		UserID:         p.UserID,
		APIKeyID:       p.APIKeyID,
		TotalDocuments: p.TotalDocuments,
		Status:         entity.BatchPending,
		Priority:       p.Priority,
		CreatedAt:      now(),
		Metadata:       p.Metadata,
	}
	err := retry.Op(ctx, r.log, "CreateBatch", func(ctx context.Context) error {
		return store.InsertBatch(ctx, r.store.DB(), b)
	})
	if err != nil {
		return "", err
	}
	r.log.Info("batch created", "batch_id", id, "total_documents", p.TotalDocuments)
	return id, nil
}

// CreateJobParams carries the attributes of a new unit of queued work.
// ScheduledAt defaults to now; Priority defaults to 0.
type CreateJobParams struct {
	DocumentID  string
	Type        entity.JobType
	Priority    int
	Payload     []byte
	ScheduledAt *time.Time
	MaxAttempts int
}

func (r *repo) CreateJob(ctx context.Context, p CreateJobParams) (string, error) {
	id := uuid.NewString()
	scheduledAt := now()
	if p.ScheduledAt != nil {
		scheduledAt = *p.ScheduledAt
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = entity.DefaultMaxAttempts
	}
	j := &entity.Job{
		ID:          id,
		DocumentID:  p.DocumentID,
		Type:        p.Type,
		Status:      entity.JobPending,
		Priority:    p.Priority,
		MaxAttempts: maxAttempts,
		Payload:     p.Payload,
		ScheduledAt: scheduledAt,
		CreatedAt:   now(),
	}
	err := retry.Op(ctx, r.log, "CreateJob", func(ctx context.Context) error {
		return store.InsertJob(ctx, r.store.DB(), j)
	})
	if err != nil {
		return "", err
	}
	r.log.Info("job created", "job_id", id, "document_id", p.DocumentID, "type", p.Type)
	return id, nil
}

// now is the single source of wall-clock time for the queue layer,
// isolated so tests can observe exact instants passed to the store.
func now() time.Time { return time.Now().UTC() }
