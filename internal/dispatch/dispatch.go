// Package dispatch implements the Dispatcher (§4.5): the process-wide
// supervisor owning the worker pool, the periodic dispatch tick, the
// periodic orphan-cleanup tick, and graceful shutdown. Its Shutdown
// wait/timeout race is grounded on the teacher's
// internal/core/async/processor_queue.go (wg.Wait raced against a
// context timeout).
package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/docmark/internal/blob"
	"github.com/joseph-ayodele/docmark/internal/ocrprovider"
	"github.com/joseph-ayodele/docmark/internal/queue"
	"github.com/joseph-ayodele/docmark/internal/worker"
)

// Config carries the pool-wide settings §6.3 names.
type Config struct {
	WorkerCount               int
	DispatchInterval          time.Duration
	CleanupInterval           time.Duration
	OrphanThreshold           time.Duration
	WorkerStartStagger        time.Duration
	GracefulShutdownPerWorker time.Duration
	LargeFileThreshold        int64
	TempDir                   string
}

func (c *Config) applyDefaults() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = 5 * time.Second
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 60 * time.Second
	}
	if c.OrphanThreshold <= 0 {
		c.OrphanThreshold = 5 * time.Minute
	}
	if c.WorkerStartStagger <= 0 {
		c.WorkerStartStagger = 100 * time.Millisecond
	}
	if c.GracefulShutdownPerWorker <= 0 {
		c.GracefulShutdownPerWorker = 5 * time.Second
	}
}

// Dispatcher is the process-wide supervisor (§4.5).
type Dispatcher struct {
	queue   queue.Repository
	cfg     Config
	log     *slog.Logger
	workers []*worker.Worker

	draining      atomic.Bool
	cancelWorkers context.CancelFunc
	workersDone   chan struct{}

	// StoreCloser, if set, is invoked at the end of Stop, once every
	// worker has exited or the shutdown budget has run out and the worker
	// context has been canceled — "Close the store last" (§4.5). Workers
	// still inside a job at that point are not waited for further.
	StoreCloser func() error
}

// New builds a Dispatcher and its worker pool. blobs and ocr are shared,
// stateless collaborators handed to every worker — §5's "no shared
// in-process mutable caches between workers" refers to worker-owned
// state, not these read-only collaborators.
func New(repo queue.Repository, blobs blob.Store, ocr ocrprovider.Provider, cfg Config, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	cfg.applyDefaults()

	d := &Dispatcher{queue: repo, cfg: cfg, log: log}
	for i := 0; i < cfg.WorkerCount; i++ {
		id := workerID(i)
		w := worker.New(id, repo, blobs, ocr, worker.Config{
			LargeFileThreshold: cfg.LargeFileThreshold,
			TempDir:            cfg.TempDir,
		}, log)
		d.workers = append(d.workers, w)
	}
	return d
}

func workerID(i int) string {
	const letters = "0123456789abcdefghijklmnopqrstuvwxyz"
	return "worker-" + string(letters[i%len(letters)]) + "-" + string(rune('a'+i/len(letters)))
}

// Start implements §4.5's start(pool size): stagger worker construction,
// begin the dispatch and cleanup timers, and run an initial dispatch
// immediately.
func (d *Dispatcher) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	d.cancelWorkers = cancel

	done := make(chan struct{})
	d.workersDone = done

	go func() {
		defer close(done)
		for i, w := range d.workers {
			if i > 0 {
				time.Sleep(d.cfg.WorkerStartStagger)
			}
			go w.Run(workerCtx, d.cfg.DispatchInterval)
		}
		for _, w := range d.workers {
			<-w.Done()
		}
	}()

	go d.dispatchLoop(ctx)
	go d.cleanupLoop(ctx)

	d.log.Info("dispatcher started", "worker_count", d.cfg.WorkerCount,
		"dispatch_interval", d.cfg.DispatchInterval, "cleanup_interval", d.cfg.CleanupInterval)

	// "Run an initial dispatch immediately."
	d.dispatchTick(ctx)
}

func (d *Dispatcher) dispatchLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.DispatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.draining.Load() {
				return
			}
			d.dispatchTick(ctx)
		}
	}
}

// dispatchTick implements §4.5 step 2: level-triggered — a signal means
// "check the queue", so a missed tick is harmless.
func (d *Dispatcher) dispatchTick(ctx context.Context) {
	ready, err := d.queue.HasReadyJob(ctx)
	if err != nil {
		d.log.Error("dispatch tick failed to query ready jobs", "error", err)
		return
	}
	if !ready {
		return
	}
	for _, w := range d.workers {
		w.Signal(worker.SignalDispatch)
	}
}

func (d *Dispatcher) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.draining.Load() {
				return
			}
			processed, err := d.queue.CleanupOrphanedJobs(ctx, d.cfg.OrphanThreshold)
			if err != nil {
				d.log.Error("orphan cleanup failed", "error", err)
				return
			}
			if processed > 0 {
				d.log.Info("orphan cleanup recovered jobs", "count", processed)
			}
		}
	}
}

// Stop implements §4.5's stop(): mark draining, signal every worker to
// stop, wait up to GracefulShutdownPerWorker per worker, then force-exit
// by canceling the worker context. The store closes last, if StoreCloser
// is set.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.draining.Store(true)
	for _, w := range d.workers {
		w.Signal(worker.SignalStop)
	}

	budget := time.Duration(len(d.workers)) * d.cfg.GracefulShutdownPerWorker
	waitCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	select {
	case <-d.workersDone:
		d.log.Info("all workers drained")
	case <-waitCtx.Done():
		d.log.Warn("graceful shutdown budget exceeded, force-terminating workers")
	}
	if d.cancelWorkers != nil {
		d.cancelWorkers()
	}

	if d.StoreCloser != nil {
		if err := d.StoreCloser(); err != nil {
			d.log.Error("store close failed", "error", err)
		}
	}
	d.log.Info("dispatcher stopped")
}
