// Command engined is the conversion engine's process entrypoint: it wires
// the Store, Queue Repository, blob/OCR reference collaborators, the
// Dispatcher, and the optional read-only control surface, then runs
// until an interrupt signal arrives. Grounded on the teacher's
// cmd/receiptsd/main.go (grpc server lifecycle, signal.NotifyContext)
// and cmd/receipt-batch/main.go (slog JSON logger, common.LoadConfig).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/docmark/internal/blob"
	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/control"
	"github.com/joseph-ayodele/docmark/internal/dispatch"
	"github.com/joseph-ayodele/docmark/internal/ocrprovider"
	"github.com/joseph-ayodele/docmark/internal/queue"
	"github.com/joseph-ayodele/docmark/internal/store"
)

func main() {
	var (
		enableControl = flag.Bool("control", false, "serve the read-only gRPC control surface")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*enableControl, logger); err != nil {
		logger.Error("engine exited with error", "error", err)
		os.Exit(1)
	}
}

func run(enableControl bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	repo := queue.New(st, logger)

	blobDir := filepath.Join(filepath.Dir(cfg.Store.Path), "blobs")
	blobStore, err := blob.NewFSStore(blobDir, logger)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	ocrClient := ocrprovider.NewClient(ocrprovider.Config{
		BaseURL:     os.Getenv("OCR_BASE_URL"),
		APIKey:      os.Getenv("OCR_API_KEY"),
		Model:       envOr("OCR_MODEL", "docmark-ocr-v1"),
		Temperature: 0,
		Timeout:     60 * time.Second,
	}, logger)

	tempDir := filepath.Join(filepath.Dir(cfg.Store.Path), "tmp")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	d := dispatch.New(repo, blobStore, ocrClient, dispatch.Config{
		WorkerCount:               cfg.Worker.Count,
		DispatchInterval:          cfg.Dispatch.DispatchInterval,
		CleanupInterval:           cfg.Dispatch.CleanupInterval,
		OrphanThreshold:           cfg.Dispatch.OrphanThreshold,
		WorkerStartStagger:        cfg.Worker.StartStagger,
		GracefulShutdownPerWorker: cfg.Worker.GracefulShutdownPerWorker,
		LargeFileThreshold:        cfg.Worker.LargeFileThreshold,
		TempDir:                   tempDir,
	}, logger)

	// Close the store last (§4.5's "stop(): ... Close the store last").
	d.StoreCloser = st.Close

	d.Start(ctx)

	var controlServer *control.Server
	if enableControl {
		controlServer, err = control.Listen(cfg.Control.Addr, repo, logger)
		if err != nil {
			return fmt.Errorf("start control surface: %w", err)
		}
		go func() {
			if err := controlServer.Serve(); err != nil {
				logger.Error("control surface stopped serving", "error", err)
			}
		}()
	}

	logger.Info("engine started", "worker_count", cfg.Worker.Count, "control_enabled", enableControl)

	<-ctx.Done()
	logger.Info("shutting down")

	if controlServer != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		controlServer.Stop(stopCtx)
		cancel()
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	d.Stop(stopCtx)

	logger.Info("engine stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
