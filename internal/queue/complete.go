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

// Outcome carries completeJobAndDocument's "kind, payload" (§4.3) as a
// typed value: a convert job's terminal result for both the job row and
// its owning document row, written in one transaction.
type Outcome struct {
	Completed    bool
	Result       []byte
	Content      string
	Metadata     map[string]any
	ErrorMessage string
}

// CompleteJobAndDocument implements §4.3's completeJobAndDocument: the
// job and its owning document transition together, so readers never
// observe one terminal without the other (Testable Property 10).
func (r *repo) CompleteJobAndDocument(ctx context.Context, jobID, documentID string, outcome Outcome) error {
	return retry.Op(ctx, r.log, "CompleteJobAndDocument", func(ctx context.Context) error {
		return r.store.Transaction(ctx, func(tx *sql.Tx) error {
			at := now()
			if outcome.Completed {
				if err := store.CompleteJob(ctx, tx, jobID, entity.JobCompleted, outcome.Result, nil, at); err != nil {
					return err
				}
				return store.UpdateDocumentCompleted(ctx, tx, documentID, outcome.Content, outcome.Metadata, at)
			}
			errMsg := outcome.ErrorMessage
			if err := store.CompleteJob(ctx, tx, jobID, entity.JobFailed, nil, &errMsg, at); err != nil {
				return err
			}
			return store.UpdateDocumentFailed(ctx, tx, documentID, errMsg, at)
		})
	})
}

// CompleteArchiveJob marks an archive job's success: the document
// becomes archived with its rewritten blob keys attached, and the
// owning job completes, in one transaction.
func (r *repo) CompleteArchiveJob(ctx context.Context, jobID, documentID string, metadata map[string]any) error {
	return retry.Op(ctx, r.log, "CompleteArchiveJob", func(ctx context.Context) error {
		return r.store.Transaction(ctx, func(tx *sql.Tx) error {
			at := now()
			if err := store.CompleteJob(ctx, tx, jobID, entity.JobCompleted, nil, nil, at); err != nil {
				return err
			}
			return store.UpdateDocumentArchived(ctx, tx, documentID, metadata, at)
		})
	})
}

// FailJob implements §4.3's failJob: retry with exponential backoff if
// attempts remain, else terminate. The retry/terminal decision uses the
// already-incremented attempts recorded at claim time.
func (r *repo) FailJob(ctx context.Context, jobID, errMsg string) error {
	return retry.Op(ctx, r.log, "FailJob", func(ctx context.Context) error {
		return r.store.Transaction(ctx, func(tx *sql.Tx) error {
			job, err := store.GetJob(ctx, tx, jobID)
			if err != nil {
				return err
			}
			at := now()
			if job.Attempts < job.MaxAttempts {
				scheduledAt := at.Add(jobRetryBackoff(job.Attempts))
				r.log.Warn("job failed, scheduling retry",
					"job_id", jobID, "attempts", job.Attempts, "max_attempts", job.MaxAttempts,
					"scheduled_at", scheduledAt, "error", errMsg)
				return store.RescheduleJob(ctx, tx, jobID, errMsg, scheduledAt)
			}
			r.log.Error("job failed permanently", "job_id", jobID, "attempts", job.Attempts, "error", errMsg)
			return store.TerminateJobFailed(ctx, tx, jobID, errMsg, at)
		})
	})
}

// FailDocumentBestEffort sets a document to failed and recomputes its
// batch's progress, swallowing any error (§4.4 step 9, §7's propagation
// policy: "those failures are logged and swallowed — the primary
// terminal write is authoritative"). The primary terminal write here is
// the job's own failJob call, made separately by the caller.
func (r *repo) FailDocumentBestEffort(ctx context.Context, documentID string, batchID *string, errMsg string) {
	if err := retry.Op(ctx, r.log, "FailDocumentBestEffort", func(ctx context.Context) error {
		return store.UpdateDocumentFailed(ctx, r.store.DB(), documentID, errMsg, now())
	}); err != nil {
		r.log.Warn("best-effort document failure write did not commit", "document_id", documentID, "error", err)
	}
	if batchID == nil {
		return
	}
	if err := r.UpdateBatchProgress(ctx, *batchID); err != nil {
		r.log.Warn("best-effort batch progress recompute did not commit", "batch_id", *batchID, "error", err)
	}
}

// FailJobTerminal forces a job permanently failed regardless of
// remaining attempts — §7's carve-out for a convert job whose document
// no longer exists, which is terminal immediately rather than subject to
// the normal retry decision.
func (r *repo) FailJobTerminal(ctx context.Context, jobID, errMsg string) error {
	return retry.Op(ctx, r.log, "FailJobTerminal", func(ctx context.Context) error {
		return store.TerminateJobFailed(ctx, r.store.DB(), jobID, errMsg, now())
	})
}

// jobRetryBackoff is failJob's backoff(n) = 2^n × 60s (§4.3).
func jobRetryBackoff(attempts int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempts))) * jobRetryBackoffBase
}

func (r *repo) RecordUsage(ctx context.Context, u *entity.Usage) error {
	return retry.Op(ctx, r.log, "RecordUsage", func(ctx context.Context) error {
		return store.InsertUsage(ctx, r.store.DB(), u)
	})
}
