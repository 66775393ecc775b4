// Command enginectl is a small local CLI for submitting documents to the
// queue and inspecting batch outcomes, in the style of the teacher's
// cmd/receipt-batch/main.go: flag-parsed, opens the store directly
// rather than going through a network API, and writes an XLSX report
// when asked.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docmark/internal/blob"
	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/jobpayload"
	"github.com/joseph-ayodele/docmark/internal/queue"
	"github.com/joseph-ayodele/docmark/internal/report"
	"github.com/joseph-ayodele/docmark/internal/store"
)

func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dbPath      = flag.String("db", "", "path to the store (defaults to STORE_PATH)")
		dir         = flag.String("dir", "", "directory of documents to submit")
		userID      = flag.String("user", "local", "submitting user id")
		reportBatch = flag.String("report", "", "generate an XLSX report for this batch id")
		out         = flag.String("out", "", "output XLSX path for --report (defaults to <batch-id>.xlsx)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dir == "" && *reportBatch == "" {
		printError("Error: one of --dir or --report is required\n")
		os.Exit(1)
	}

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		printError("Error: open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	repo := queue.New(st, logger)

	if *reportBatch != "" {
		if err := writeReport(ctx, repo, logger, *reportBatch, *out); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := submitDir(ctx, repo, logger, *dir, *userID); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func writeReport(ctx context.Context, repo queue.Repository, logger *slog.Logger, batchID, out string) error {
	if out == "" {
		out = batchID + ".xlsx"
	}
	svc := report.NewService(repo, logger)
	data, err := svc.GenerateBatchReport(ctx, batchID)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func submitDir(ctx context.Context, repo queue.Repository, logger *slog.Logger, dir, userID string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found in %s", dir)
	}
	return submitFiles(ctx, repo, logger, files, userID)
}

func submitFiles(ctx context.Context, repo queue.Repository, logger *slog.Logger, files []string, userID string) error {
	blobStore, err := blob.NewFSStore("./data/blobs", logger)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	var batchID *string
	if len(files) > 1 {
		id, err := repo.CreateBatch(ctx, queue.CreateBatchParams{
			UserID:         userID,
			TotalDocuments: len(files),
		})
		if err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		batchID = &id
		fmt.Printf("created batch %s (%d documents)\n", id, len(files))
	}

	for _, path := range files {
		if err := submitOne(ctx, repo, blobStore, userID, batchID, path); err != nil {
			logger.Error("submit failed", "path", path, "error", err)
			continue
		}
	}
	return nil
}

func submitOne(ctx context.Context, repo queue.Repository, blobStore blob.Store, userID string, batchID *string, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	filename := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	blobKey := "documents/" + uuid.NewString() + "-" + filename
	if err := blobStore.Put(ctx, blobKey, data, blob.PutOptions{MimeType: mimeType}); err != nil {
		return fmt.Errorf("put blob: %w", err)
	}

	docID, err := repo.CreateDocument(ctx, queue.CreateDocumentParams{
		FileName: filename,
		MimeType: mimeType,
		FileSize: int64(len(data)),
		BlobKey:  blobKey,
		UserID:   userID,
		BatchID:  batchID,
	})
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	payload, err := jobpayload.ConvertPayload{BlobKey: blobKey, MimeType: mimeType, Filename: filename}.Marshal()
	if err != nil {
		return fmt.Errorf("build convert payload: %w", err)
	}

	jobID, err := repo.CreateJob(ctx, queue.CreateJobParams{
		DocumentID: docID,
		Type:       entity.JobTypeConvert,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	fmt.Printf("submitted %s -> document %s, job %s\n", filename, docID, jobID)
	return nil
}
