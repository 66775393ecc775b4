// Package worker implements the Worker (§4.4): a single-threaded
// cooperative execution unit that pulls one job at a time, executes the
// job-type handler, and reports terminal outcome. The run-loop and
// signal-channel shape are grounded on the teacher's atlas-queue
// reference (internal/worker/worker.go's Start/runJob split), adapted
// from a continuous-poll loop to the level-triggered signal model §4.5
// calls for.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docmark/internal/blob"
	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/ocrprovider"
	"github.com/joseph-ayodele/docmark/internal/queue"
)

// terminalError marks a handler failure that must bypass the normal
// retry decision and fail the job immediately — §7's carve-out for a
// convert job whose document no longer exists.
type terminalError struct{ cause error }

func (e *terminalError) Error() string { return e.cause.Error() }
func (e *terminalError) Unwrap() error { return e.cause }

func terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{cause: err}
}

// Signal is one of the two message kinds the Dispatcher sends a worker
// (§5): "go drain" (check the queue now) or "please stop" (begin
// shutdown).
type Signal int

const (
	SignalDispatch Signal = iota
	SignalStop
)

// Config carries the design constants §4.4/§6.3 name.
type Config struct {
	LargeFileThreshold int64
	TempDir            string
}

// Worker owns exactly one in-flight job at a time (§4.4). Multiple
// Workers run in parallel, each with its own execution context.
type Worker struct {
	ID       string
	queue    queue.Repository
	blobs    blob.Store
	ocr      ocrprovider.Provider
	log      *slog.Logger
	cfg      Config
	signalCh chan Signal
	draining atomic.Bool
	done     chan struct{}
}

// New builds a Worker. Its signal channel has capacity 1: it only ever
// needs to hold the latest pending signal — sends are non-blocking and
// idempotent (§4.5's "the signal is idempotent").
func New(id string, repo queue.Repository, blobs blob.Store, ocr ocrprovider.Provider, cfg Config, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	if cfg.LargeFileThreshold <= 0 {
		cfg.LargeFileThreshold = 10 * 1024 * 1024
	}
	return &Worker{
		ID:       id,
		queue:    repo,
		blobs:    blobs,
		ocr:      ocr,
		log:      log.With("worker_id", id),
		cfg:      cfg,
		signalCh: make(chan Signal, 1),
		done:     make(chan struct{}),
	}
}

// Signal delivers s to the worker without blocking. A full channel means
// a signal is already pending, which is sufficient — delivery is
// level-triggered, not edge-triggered (§4.5). SignalStop also sets the
// draining flag directly, so it takes effect even when a dispatch signal
// already fills the channel or the worker is inside drainQueue.
func (w *Worker) Signal(s Signal) {
	if s == SignalStop {
		w.draining.Store(true)
	}
	select {
	case w.signalCh <- s:
	default:
	}
}

// Done closes once Run has returned, letting the Dispatcher observe
// exit without a second channel.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run is the worker's run-loop (§4.4): while not draining, claim jobs
// until the queue is empty, then suspend until signaled or the next
// tick. It returns when SignalStop is received or ctx is canceled.
func (w *Worker) Run(ctx context.Context, tick time.Duration) {
	defer close(w.done)
	w.log.Info("worker starting")

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		if w.draining.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case sig := <-w.signalCh:
			if sig == SignalStop {
				w.draining.Store(true)
				return
			}
			w.drainQueue(ctx)
		case <-ticker.C:
			w.drainQueue(ctx)
		}
	}
}

// drainQueue claims and executes jobs until none remain or a stop signal
// arrives. Cancellation is observed between claims — the only point in
// this loop that is also a suspension point (§4.4).
func (w *Worker) drainQueue(ctx context.Context) {
	for {
		if ctx.Err() != nil || w.draining.Load() {
			return
		}
		job, err := w.queue.ClaimNextJob(ctx, w.ID)
		if err != nil {
			w.log.Error("claim failed", "error", err)
			return
		}
		if job == nil {
			return
		}
		w.execute(ctx, job.ID)
	}
}

// execute re-fetches and dispatches a claimed job by type, recovering
// from any panic in the handler so it never leaks out of the run-loop
// (§4.4's "fatal panics ... must not leak").
func (w *Worker) execute(ctx context.Context, jobID string) {
	job, err := w.queue.GetJob(ctx, jobID)
	if err != nil {
		w.log.Error("failed to reload claimed job", "job_id", jobID, "error", err)
		return
	}

	// Each job execution gets its own request id so its handler's log
	// lines and any downstream RPCs it triggers can be correlated (§4.4).
	ctx = common.WithRequestID(ctx, uuid.NewString())
	log := w.log.With("request_id", common.RequestIDFromContext(ctx), "job_id", job.ID, "document_id", job.DocumentID, "type", job.Type, "attempt", job.Attempts)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("job handler panicked", "panic", rec)
			if err := w.queue.FailJob(ctx, job.ID, fmt.Sprintf("internal error: %v", rec)); err != nil {
				log.Error("failed to record panic as job failure", "error", err)
			}
		}
	}()

	var handlerErr error
	switch job.Type {
	case "convert":
		handlerErr = w.handleConvert(ctx, job)
	case "archive":
		handlerErr = w.handleArchive(ctx, job)
	default:
		handlerErr = fmt.Errorf("unknown job type %q", job.Type)
	}

	if handlerErr == nil {
		log.Info("job handled")
		return
	}

	log.Warn("job handler returned error", "error", handlerErr)
	var term *terminalError
	if errors.As(handlerErr, &term) {
		if err := w.queue.FailJobTerminal(ctx, job.ID, term.Error()); err != nil {
			log.Error("failed to record terminal job failure", "error", err)
		}
		return
	}
	if err := w.queue.FailJob(ctx, job.ID, handlerErr.Error()); err != nil {
		log.Error("failed to record job failure", "error", err)
	}
}
