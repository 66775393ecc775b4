package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docmark/internal/common"
	"github.com/joseph-ayodele/docmark/internal/queue"
	"github.com/joseph-ayodele/docmark/internal/store"
)

func newTestService(t *testing.T) (*Service, queue.Repository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docmark.db")
	st, err := store.Open(context.Background(), common.StoreConfig{Path: path}, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	repo := queue.New(st, nil)
	return NewService(repo, nil), repo
}

func seedBatchWithDocuments(t *testing.T, repo queue.Repository) string {
	t.Helper()
	ctx := context.Background()

	batchID, err := repo.CreateBatch(ctx, queue.CreateBatchParams{
		UserID:         "user-1",
		APIKeyID:       "key-1",
		TotalDocuments: 2,
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	ok, err := repo.CreateDocument(ctx, queue.CreateDocumentParams{
		FileName: "invoice-ok.pdf",
		MimeType: "application/pdf",
		FileSize: 10,
		BlobKey:  "documents/invoice-ok.pdf",
		UserID:   "user-1",
		APIKeyID: "key-1",
		BatchID:  &batchID,
	})
	if err != nil {
		t.Fatalf("CreateDocument ok: %v", err)
	}
	failed, err := repo.CreateDocument(ctx, queue.CreateDocumentParams{
		FileName: "invoice-bad.pdf",
		MimeType: "application/pdf",
		FileSize: 10,
		BlobKey:  "documents/invoice-bad.pdf",
		UserID:   "user-1",
		APIKeyID: "key-1",
		BatchID:  &batchID,
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	if err := repo.CompleteJobAndDocument(ctx, "n/a", ok, queue.Outcome{
		Completed: true,
		Content:   "# Invoice\n\ntotal: $10",
	}); err != nil {
		t.Fatalf("CompleteJobAndDocument: %v", err)
	}
	repo.FailDocumentBestEffort(ctx, failed, &batchID, "ocr provider timed out")

	return batchID
}

func TestGenerateBatchReportListsEveryDocument(t *testing.T) {
	svc, repo := newTestService(t)
	batchID := seedBatchWithDocuments(t, repo)

	data, err := svc.GenerateBatchReport(context.Background(), batchID)
	if err != nil {
		t.Fatalf("GenerateBatchReport: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty xlsx bytes")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// header + 2 documents
	if len(rows) != 3 {
		t.Fatalf("expected 1 header row + 2 document rows, got %d", len(rows))
	}
	if rows[0][0] != "Document ID" {
		t.Fatalf("expected header row, got %v", rows[0])
	}
}

func TestGenerateBatchReportWritesSummarySheet(t *testing.T) {
	svc, repo := newTestService(t)
	batchID := seedBatchWithDocuments(t, repo)

	data, err := svc.GenerateBatchReport(context.Background(), batchID)
	if err != nil {
		t.Fatalf("GenerateBatchReport: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Summary")
	if err != nil {
		t.Fatalf("GetRows Summary: %v", err)
	}
	found := false
	for _, r := range rows {
		if len(r) >= 2 && r[0] == "Batch ID" && r[1] == batchID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the Summary sheet to contain the batch ID, got rows %v", rows)
	}
}

func TestGenerateBatchReportMissingBatchReturnsError(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.GenerateBatchReport(context.Background(), "does-not-exist"); err == nil {
		t.Fatalf("expected an error for an unknown batch")
	}
}
