package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docmark/internal/apperr"
	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/jobpayload"
)

// handleArchive implements §4.4's archive handler.
func (w *Worker) handleArchive(ctx context.Context, job *entity.Job) error {
	doc, err := w.queue.GetDocument(ctx, job.DocumentID)
	if err != nil {
		return terminal(fmt.Errorf("load document %s: %w", job.DocumentID, err))
	}
	if doc.Status != entity.DocumentCompleted {
		return apperr.Invariant(fmt.Sprintf("document %s is not completed, cannot archive", doc.ID))
	}

	payload, err := jobpayload.DecodeArchivePayload(job.Payload)
	if err != nil {
		return fmt.Errorf("decode archive payload: %w", err)
	}

	archiveKey := rewriteArchiveKey(payload.OriginalKey)
	if err := w.blobs.Copy(ctx, payload.OriginalKey, archiveKey); err != nil {
		return fmt.Errorf("copy blob to archive: %w", err)
	}
	if err := w.blobs.Delete(ctx, payload.OriginalKey); err != nil {
		return fmt.Errorf("delete original blob: %w", err)
	}

	metadata := map[string]any{
		"original_key": payload.OriginalKey,
		"archive_key":  archiveKey,
	}
	for k, v := range doc.Metadata {
		if _, exists := metadata[k]; !exists {
			metadata[k] = v
		}
	}

	if err := jobpayload.ValidateDocumentMetadata(metadata); err != nil {
		return fmt.Errorf("document metadata: %w", err)
	}

	if err := w.queue.CompleteArchiveJob(ctx, job.ID, doc.ID, metadata); err != nil {
		return fmt.Errorf("commit archive result: %w", err)
	}
	return nil
}

// rewriteArchiveKey implements the documents/ → archive/ substring
// convention named in §9 (SPEC_FULL.md Open Question 5): a layout
// convention, not a guarantee, so a key without the prefix is returned
// under an archive/ prefix unchanged rather than silently dropped.
func rewriteArchiveKey(original string) string {
	if strings.Contains(original, "documents/") {
		return strings.Replace(original, "documents/", "archive/", 1)
	}
	return "archive/" + original
}
