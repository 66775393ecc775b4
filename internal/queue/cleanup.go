package queue

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/retry"
	"github.com/joseph-ayodele/docmark/internal/store"
)

const orphanFailureMessage = "Max retry attempts exceeded (job timeout >5 minutes)"

// CleanupOrphanedJobs implements §4.3's cleanupOrphanedJobs: jobs stuck
// in processing past orphanThreshold are partitioned into to-fail
// (attempts exhausted) and to-reset (attempts remain), and recovered.
// Returns the count of rows processed.
func (r *repo) CleanupOrphanedJobs(ctx context.Context, orphanThreshold time.Duration) (int, error) {
	var processed int
	err := retry.Op(ctx, r.log, "CleanupOrphanedJobs", func(ctx context.Context) error {
		cutoff := now().Add(-orphanThreshold)
		orphans, err := store.SelectOrphanedJobs(ctx, r.store.DB(), cutoff)
		if err != nil {
			return err
		}
		if len(orphans) == 0 {
			processed = 0
			return nil
		}

		affectedBatches := map[string]struct{}{}
		for _, o := range orphans {
			if o.Attempts >= o.MaxAttempts {
				if err := r.failOrphan(ctx, o); err != nil {
					return err
				}
			} else {
				if err := r.resetOrphan(ctx, o); err != nil {
					return err
				}
			}
			doc, err := store.GetDocument(ctx, r.store.DB(), o.DocumentID)
			if err == nil && doc.BatchID != nil {
				affectedBatches[*doc.BatchID] = struct{}{}
			}
		}

		for batchID := range affectedBatches {
			if err := r.UpdateBatchProgress(ctx, batchID); err != nil {
				r.log.Warn("batch progress recompute failed during orphan sweep", "batch_id", batchID, "error", err)
			}
		}

		processed = len(orphans)
		r.log.Info("orphan sweep complete", "processed", processed)
		return nil
	})
	return processed, err
}

func (r *repo) failOrphan(ctx context.Context, o store.OrphanRow) error {
	return r.store.Transaction(ctx, func(tx *sql.Tx) error {
		at := now()
		if err := store.FailOrphanedJob(ctx, tx, o.JobID, orphanFailureMessage, at); err != nil {
			return err
		}
		return store.UpdateDocumentFailed(ctx, tx, o.DocumentID, orphanFailureMessage, at)
	})
}

func (r *repo) resetOrphan(ctx context.Context, o store.OrphanRow) error {
	scheduledAt := now().Add(orphanResetBackoff(o.Attempts))
	return r.store.Transaction(ctx, func(tx *sql.Tx) error {
		return store.ResetOrphanedJob(ctx, tx, o.JobID, scheduledAt)
	})
}

// orphanResetBackoff is cleanupOrphanedJobs' recovery delay, 2^attempts × 5s.
func orphanResetBackoff(attempts int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempts))) * orphanResetBackoffBase
}

// UpdateBatchProgress implements §4.3's updateBatchProgress: recompute a
// batch's completed/failed counts and derived status by recounting child
// documents. Counts and status are never incremented — always recounted.
func (r *repo) UpdateBatchProgress(ctx context.Context, batchID string) error {
	return retry.Op(ctx, r.log, "UpdateBatchProgress", func(ctx context.Context) error {
		return r.store.Transaction(ctx, func(tx *sql.Tx) error {
			batch, err := store.GetBatch(ctx, tx, batchID)
			if err != nil {
				return err
			}
			completed, err := store.CountDocumentsByStatus(ctx, tx, batchID, entity.DocumentCompleted)
			if err != nil {
				return err
			}
			failed, err := store.CountDocumentsByStatus(ctx, tx, batchID, entity.DocumentFailed)
			if err != nil {
				return err
			}

			terminal := completed+failed == batch.TotalDocuments
			var status entity.BatchStatus
			switch {
			case terminal && failed == batch.TotalDocuments:
				status = entity.BatchFailed
			case terminal:
				status = entity.BatchCompleted
			case completed+failed > 0:
				status = entity.BatchProcessing
			default:
				status = entity.BatchPending
			}

			var completedAt *time.Time
			if terminal {
				t := now()
				completedAt = &t
			}
			return store.UpdateBatchCounts(ctx, tx, batchID, completed, failed, status, completedAt)
		})
	})
}

// ArchiveOldDocuments implements §4.3's archiveOldDocuments: completed
// documents whose retention window has elapsed transition to archived.
// Returns the count archived.
func (r *repo) ArchiveOldDocuments(ctx context.Context) (int, error) {
	var count int
	err := retry.Op(ctx, r.log, "ArchiveOldDocuments", func(ctx context.Context) error {
		ids, err := store.ListArchivableDocuments(ctx, r.store.DB(), now())
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
				doc, err := store.GetDocument(ctx, tx, id)
				if err != nil {
					return err
				}
				return store.UpdateDocumentArchived(ctx, tx, id, doc.Metadata, now())
			}); err != nil {
				return err
			}
		}
		count = len(ids)
		if count > 0 {
			r.log.Info("archived documents", "count", count)
		}
		return nil
	})
	return count, err
}
