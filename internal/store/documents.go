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

// InsertDocument writes a new document row in status=pending.
func InsertDocument(ctx context.Context, q Querier, d *entity.Document) error {
	meta, err := marshalMetadata(d.Metadata)
	if err != nil {
		return fmt.Errorf("marshal document metadata: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO documents (
			id, file_name, mime_type, file_size, blob_key, content, metadata,
			status, error_message, created_at, processed_at, archived_at,
			retention_days, user_id, api_key_id, batch_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FileName, d.MimeType, d.FileSize, d.BlobKey, d.Content, meta,
		d.Status, d.ErrorMessage, d.CreatedAt, d.ProcessedAt, d.ArchivedAt,
		d.RetentionDays, d.UserID, d.APIKeyID, d.BatchID,
	)
	return err
}

// GetDocument is the "get document by id" hot-path read named by §4.1. It
// runs a plain query on q each call; no prepared statement is cached.
// Returns apperr.NotFound if no such row exists.
func GetDocument(ctx context.Context, q Querier, id string) (*entity.Document, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, file_name, mime_type, file_size, blob_key, content, metadata,
			status, error_message, created_at, processed_at, archived_at,
			retention_days, user_id, api_key_id, batch_id
		FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(fmt.Sprintf("document %s not found", id))
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var d entity.Document
	var meta string
	if err := row.Scan(
		&d.ID, &d.FileName, &d.MimeType, &d.FileSize, &d.BlobKey, &d.Content, &meta,
		&d.Status, &d.ErrorMessage, &d.CreatedAt, &d.ProcessedAt, &d.ArchivedAt,
		&d.RetentionDays, &d.UserID, &d.APIKeyID, &d.BatchID,
	); err != nil {
		return nil, err
	}
	parsed, err := unmarshalMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("unmarshal document metadata: %w", err)
	}
	d.Metadata = parsed
	return &d, nil
}

// UpdateDocumentCompleted sets a document terminal on a successful convert,
// attaching content and enriched metadata. Called inside the same
// transaction as the owning job's terminal write (§4.3 completeJobAndDocument).
func UpdateDocumentCompleted(ctx context.Context, q Querier, id, content string, metadata map[string]any, processedAt time.Time) error {
	meta, err := marshalMetadata(metadata)
	if err != nil {
		return fmt.Errorf("marshal document metadata: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		UPDATE documents SET status = ?, content = ?, metadata = ?, processed_at = ?
		WHERE id = ?`,
		entity.DocumentCompleted, content, meta, processedAt, id,
	)
	return err
}

// UpdateDocumentFailed sets a document to failed with the given error text.
func UpdateDocumentFailed(ctx context.Context, q Querier, id, errMsg string, processedAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE documents SET status = ?, error_message = ?, processed_at = ?
		WHERE id = ?`,
		entity.DocumentFailed, errMsg, processedAt, id,
	)
	return err
}

// UpdateDocumentProcessing marks a document as under active conversion.
// Only the worker that claimed the owning convert job calls this.
func UpdateDocumentProcessing(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE documents SET status = ? WHERE id = ?`,
		entity.DocumentProcessing, id)
	return err
}

// UpdateDocumentArchived sets a document's terminal archived state and
// attaches the original/archive blob keys to its metadata.
func UpdateDocumentArchived(ctx context.Context, q Querier, id string, metadata map[string]any, archivedAt time.Time) error {
	meta, err := marshalMetadata(metadata)
	if err != nil {
		return fmt.Errorf("marshal document metadata: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		UPDATE documents SET status = ?, metadata = ?, archived_at = ?
		WHERE id = ?`,
		entity.DocumentArchived, meta, archivedAt, id,
	)
	return err
}

// ListArchivableDocuments returns ids of completed documents whose
// retention window has elapsed (§4.3 archiveOldDocuments).
func ListArchivableDocuments(ctx context.Context, q Querier, now time.Time) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, created_at, retention_days FROM documents
		WHERE status = ?`,
		entity.DocumentCompleted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var createdAt time.Time
		var retentionDays int
		if err := rows.Scan(&id, &createdAt, &retentionDays); err != nil {
			return nil, err
		}
		if !createdAt.Add(time.Duration(retentionDays) * 24 * time.Hour).After(now) {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// CountDocumentsByStatus returns the number of documents in a batch with
// the given status, feeding updateBatchProgress's recount.
func CountDocumentsByStatus(ctx context.Context, q Querier, batchID string, status entity.DocumentStatus) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE batch_id = ? AND status = ?`,
		batchID, status,
	).Scan(&n)
	return n, err
}

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalMetadata(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
