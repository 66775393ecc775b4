package queue

import (
	"context"
	"database/sql"

	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/retry"
	"github.com/joseph-ayodele/docmark/internal/store"
)

// ClaimNextJob implements §4.3's claimNextJob: atomically select the
// single highest-priority ready job and transition it to processing,
// re-checking within the same transaction that no other worker won the
// race first. Returns (nil, nil) if there is no candidate — not an error.
func (r *repo) ClaimNextJob(ctx context.Context, workerID string) (*entity.Job, error) {
	var claimed *entity.Job
	err := retry.Op(ctx, r.log, "ClaimNextJob", func(ctx context.Context) error {
		return r.store.Transaction(ctx, func(tx *sql.Tx) error {
			at := now()
			candidateID, err := store.SelectClaimCandidate(ctx, tx, at)
			if err == sql.ErrNoRows {
				claimed = nil
				return nil
			}
			if err != nil {
				return err
			}

			affected, err := store.ClaimCandidate(ctx, tx, candidateID, workerID, at)
			if err != nil {
				return err
			}
			if affected == 0 {
				// Another worker claimed this row between the select and
				// our update; report none rather than retry within this
				// attempt — the next dispatch tick will find the next
				// candidate.
				claimed = nil
				return nil
			}

			job, err := store.GetJob(ctx, tx, candidateID)
			if err != nil {
				return err
			}
			if job.Type == entity.JobTypeConvert {
				// Archive jobs run against a document that is already
				// DocumentCompleted (§4.4's archive invariant); only a
				// convert job's document still has the pending->processing
				// leg of the §3 status DAG ahead of it.
				if err := store.UpdateDocumentProcessing(ctx, tx, job.DocumentID); err != nil {
					return err
				}
			}
			claimed = job
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if claimed != nil {
		r.log.Info("job claimed", "job_id", claimed.ID, "worker_id", workerID, "attempts", claimed.Attempts)
	}
	return claimed, nil
}
