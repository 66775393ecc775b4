package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joseph-ayodele/docmark/internal/apperr"
	"github.com/joseph-ayodele/docmark/internal/entity"
)

// InsertBatch writes a new batch row in status=pending.
func InsertBatch(ctx context.Context, q Querier, b *entity.Batch) error {
	meta, err := json.Marshal(b.Metadata)
	if err != nil {
		return fmt.Errorf("marshal batch metadata: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO batches (
			id, user_id, api_key_id, total_documents, completed_documents,
			failed_documents, status, priority, created_at, completed_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.APIKeyID, b.TotalDocuments, b.CompletedDocuments,
		b.FailedDocuments, b.Status, b.Priority, b.CreatedAt, b.CompletedAt, string(meta),
	)
	return err
}

// GetBatch reads a batch by id.
func GetBatch(ctx context.Context, q Querier, id string) (*entity.Batch, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, api_key_id, total_documents, completed_documents,
			failed_documents, status, priority, created_at, completed_at, metadata
		FROM batches WHERE id = ?`, id)

	var b entity.Batch
	var meta string
	err := row.Scan(
		&b.ID, &b.UserID, &b.APIKeyID, &b.TotalDocuments, &b.CompletedDocuments,
		&b.FailedDocuments, &b.Status, &b.Priority, &b.CreatedAt, &b.CompletedAt, &meta,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(fmt.Sprintf("batch %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	parsed, err := unmarshalMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("unmarshal batch metadata: %w", err)
	}
	b.Metadata = parsed
	return &b, nil
}

// ListBatches returns batches for a user, newest first — backing the
// Submission API's listBatches read (§6.1).
func ListBatches(ctx context.Context, q Querier, userID string, limit int) ([]*entity.Batch, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, api_key_id, total_documents, completed_documents,
			failed_documents, status, priority, created_at, completed_at, metadata
		FROM batches WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Batch
	for rows.Next() {
		var b entity.Batch
		var meta string
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.APIKeyID, &b.TotalDocuments, &b.CompletedDocuments,
			&b.FailedDocuments, &b.Status, &b.Priority, &b.CreatedAt, &b.CompletedAt, &meta,
		); err != nil {
			return nil, err
		}
		parsed, err := unmarshalMetadata(meta)
		if err != nil {
			return nil, fmt.Errorf("unmarshal batch metadata: %w", err)
		}
		b.Metadata = parsed
		out = append(out, &b)
	}
	return out, rows.Err()
}

// ListBatchDocuments returns every document belonging to a batch.
func ListBatchDocuments(ctx context.Context, q Querier, batchID string) ([]*entity.Document, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, file_name, mime_type, file_size, blob_key, content, metadata,
			status, error_message, created_at, processed_at, archived_at,
			retention_days, user_id, api_key_id, batch_id
		FROM documents WHERE batch_id = ? ORDER BY created_at ASC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateBatchCounts applies the recomputed counts and derived status from
// updateBatchProgress (§4.3). completedAt is only set on the terminal
// transition (caller passes nil otherwise).
func UpdateBatchCounts(ctx context.Context, q Querier, id string, completed, failed int, status entity.BatchStatus, completedAt *time.Time) error {
	if completedAt != nil {
		_, err := q.ExecContext(ctx, `
			UPDATE batches SET completed_documents = ?, failed_documents = ?, status = ?, completed_at = ?
			WHERE id = ?`,
			completed, failed, status, *completedAt, id,
		)
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE batches SET completed_documents = ?, failed_documents = ?, status = ?
		WHERE id = ?`,
		completed, failed, status, id,
	)
	return err
}
