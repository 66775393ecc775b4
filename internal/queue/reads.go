package queue

import (
	"context"

	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/store"
)

// GetDocument, GetJob, GetBatch, GetBatchDocuments, and ListBatches back
// the Submission API's read operations (§6.1). Reads are not routed
// through internal/retry: a busy/locked condition on a read is rare
// under the WAL journal (readers do not block the single writer) and,
// unlike a write, a failed read has no side effect to reconcile — the
// caller may simply retry the request.
func (r *repo) HasReadyJob(ctx context.Context) (bool, error) {
	return store.HasReadyJob(ctx, r.store.DB(), now())
}

func (r *repo) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	return store.GetDocument(ctx, r.store.DB(), id)
}

func (r *repo) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	return store.GetJob(ctx, r.store.DB(), id)
}

func (r *repo) GetBatch(ctx context.Context, id string) (*entity.Batch, error) {
	return store.GetBatch(ctx, r.store.DB(), id)
}

func (r *repo) GetBatchDocuments(ctx context.Context, batchID string) ([]*entity.Document, error) {
	return store.ListBatchDocuments(ctx, r.store.DB(), batchID)
}

func (r *repo) ListBatches(ctx context.Context, userID string, limit int) ([]*entity.Batch, error) {
	if limit <= 0 {
		limit = 50
	}
	return store.ListBatches(ctx, r.store.DB(), userID, limit)
}
