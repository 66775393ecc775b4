package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joseph-ayodele/docmark/internal/apperr"
	"github.com/joseph-ayodele/docmark/internal/entity"
)

// InsertJob writes a new job row in status=pending.
func InsertJob(ctx context.Context, q Querier, j *entity.Job) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO jobs (
			id, document_id, type, status, priority, attempts, max_attempts,
			payload, result, error_message, worker_id, scheduled_at,
			started_at, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.DocumentID, j.Type, j.Status, j.Priority, j.Attempts, j.MaxAttempts,
		j.Payload, j.Result, j.ErrorMessage, j.WorkerID, j.ScheduledAt,
		j.StartedAt, j.CompletedAt, j.CreatedAt,
	)
	return err
}

// GetJob reads a job by id.
func GetJob(ctx context.Context, q Querier, id string) (*entity.Job, error) {
	row := q.QueryRowContext(ctx, jobSelectColumns+`FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound(fmt.Sprintf("job %s not found", id))
	}
	return job, err
}

const jobSelectColumns = `
	SELECT id, document_id, type, status, priority, attempts, max_attempts,
		payload, result, error_message, worker_id, scheduled_at,
		started_at, completed_at, created_at
`

func scanJob(row rowScanner) (*entity.Job, error) {
	var j entity.Job
	if err := row.Scan(
		&j.ID, &j.DocumentID, &j.Type, &j.Status, &j.Priority, &j.Attempts, &j.MaxAttempts,
		&j.Payload, &j.Result, &j.ErrorMessage, &j.WorkerID, &j.ScheduledAt,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

// HasReadyJob reports whether any pending job has scheduled_at <= now —
// the Dispatcher's dispatch-tick check (§4.5).
func HasReadyJob(ctx context.Context, q Querier, now time.Time) (bool, error) {
	var exists int
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM jobs WHERE status = ? AND scheduled_at <= ?)`,
		entity.JobPending, now,
	).Scan(&exists)
	return exists == 1, err
}

// SelectClaimCandidate returns the id of the single highest-priority
// pending job with scheduled_at <= now, tie-broken by ascending
// scheduled_at then by rowid (insertion order) — step 1 of claimNextJob
// (§4.3). Returns sql.ErrNoRows if no candidate exists.
func SelectClaimCandidate(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM jobs
		WHERE status = ? AND scheduled_at <= ?
		ORDER BY priority DESC, scheduled_at ASC, rowid ASC
		LIMIT 1`,
		entity.JobPending, now,
	).Scan(&id)
	return id, err
}

// ClaimCandidate performs steps 2–3 of claimNextJob: transition the
// candidate row to processing, stamping worker id and started-at and
// incrementing attempts, but only if it is still pending (guards against
// a race between the select and this update). Returns the number of rows
// affected — 0 means another worker won the race.
func ClaimCandidate(ctx context.Context, tx *sql.Tx, id, workerID string, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?, worker_id = ?, started_at = ?, attempts = attempts + 1
		WHERE id = ? AND status = ?`,
		entity.JobProcessing, workerID, now, id, entity.JobPending,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CompleteJob sets a job's terminal outcome. Called in the same
// transaction as the document's terminal write.
func CompleteJob(ctx context.Context, tx *sql.Tx, id string, status entity.JobStatus, result []byte, errMsg *string, completedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, result = ?, error_message = ?, completed_at = ?
		WHERE id = ?`,
		status, result, errMsg, completedAt, id,
	)
	return err
}

// RescheduleJob resets a job to pending with a future scheduled_at and a
// recorded error — the "retry" branch of failJob (§4.3).
func RescheduleJob(ctx context.Context, q Querier, id, errMsg string, scheduledAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error_message = ?, scheduled_at = ?
		WHERE id = ?`,
		entity.JobPending, errMsg, scheduledAt, id,
	)
	return err
}

// TerminateJobFailed sets a job permanently failed — the "terminal"
// branch of failJob when attempts have been exhausted.
func TerminateJobFailed(ctx context.Context, q Querier, id, errMsg string, completedAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?`,
		entity.JobFailed, errMsg, completedAt, id,
	)
	return err
}

// OrphanRow is a processing job stuck past the orphan threshold.
type OrphanRow struct {
	JobID       string
	DocumentID  string
	Attempts    int
	MaxAttempts int
}

// SelectOrphanedJobs returns processing jobs whose started_at predates
// the cutoff — candidates for cleanupOrphanedJobs' to-fail/to-reset split.
func SelectOrphanedJobs(ctx context.Context, q Querier, cutoff time.Time) ([]OrphanRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, document_id, attempts, max_attempts FROM jobs
		WHERE status = ? AND started_at IS NOT NULL AND started_at < ?`,
		entity.JobProcessing, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrphanRow
	for rows.Next() {
		var o OrphanRow
		if err := rows.Scan(&o.JobID, &o.DocumentID, &o.Attempts, &o.MaxAttempts); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// FailOrphanedJob terminates an orphan whose attempts are exhausted.
func FailOrphanedJob(ctx context.Context, q Querier, id, errMsg string, completedAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, completed_at = ?, worker_id = NULL, error_message = ?
		WHERE id = ?`,
		entity.JobFailed, completedAt, errMsg, id,
	)
	return err
}

// ResetOrphanedJob returns an orphan with remaining attempts to pending,
// clearing worker_id/started_at and scheduling it after a recovery delay.
func ResetOrphanedJob(ctx context.Context, q Querier, id string, scheduledAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, worker_id = NULL, started_at = NULL, scheduled_at = ?
		WHERE id = ?`,
		entity.JobPending, scheduledAt, id,
	)
	return err
}
