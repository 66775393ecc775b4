package worker

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/jobpayload"
	"github.com/joseph-ayodele/docmark/internal/queue"
)

const (
	usageOperationConvert = "convert"
	marginRatePct         = 30
	centsPerPage          = 1.0
	tokensPerPage         = 1000.0
)

// handleConvert implements §4.4's convert handler. Any returned error is
// routed by the caller to failJob; this function is responsible only for
// the document-side best-effort cleanup the spec calls out in step 9.
func (w *Worker) handleConvert(ctx context.Context, job *entity.Job) error {
	doc, err := w.queue.GetDocument(ctx, job.DocumentID)
	if err != nil {
		// A missing document is terminal regardless of attempts (§7).
		return terminal(fmt.Errorf("load document %s: %w", job.DocumentID, err))
	}
	if doc.BlobKey == "" {
		failErr := fmt.Errorf("document %s has no blob key", doc.ID)
		w.queue.FailDocumentBestEffort(ctx, doc.ID, doc.BatchID, failErr.Error())
		return failErr
	}

	payload, err := jobpayload.DecodeConvertPayload(job.Payload)
	if err != nil {
		failErr := fmt.Errorf("decode convert payload: %w", err)
		w.queue.FailDocumentBestEffort(ctx, doc.ID, doc.BatchID, failErr.Error())
		return failErr
	}

	stat, err := w.blobs.Stat(ctx, doc.BlobKey)
	if err != nil {
		failErr := fmt.Errorf("stat blob %s: %w", doc.BlobKey, err)
		w.queue.FailDocumentBestEffort(ctx, doc.ID, doc.BatchID, failErr.Error())
		return failErr
	}

	data, usedTemp, tempPath, err := w.fetchBlob(ctx, doc.BlobKey, doc.ID, stat.Size)
	if tempPath != "" {
		defer os.Remove(tempPath)
	}
	if err != nil {
		failErr := fmt.Errorf("fetch blob %s: %w", doc.BlobKey, err)
		w.queue.FailDocumentBestEffort(ctx, doc.ID, doc.BatchID, failErr.Error())
		return failErr
	}

	start := time.Now()
	result, err := w.ocr.Convert(ctx, data, payload.MimeType, payload.Filename)
	if err != nil {
		failErr := fmt.Errorf("ocr convert: %w", err)
		w.queue.FailDocumentBestEffort(ctx, doc.ID, doc.BatchID, failErr.Error())
		return failErr
	}
	processingTimeMS := time.Since(start).Milliseconds()

	metadata := map[string]any{
		"model":              result.Model,
		"extracted_pages":    len(result.Pages),
		"processing_time_ms": processingTimeMS,
		"blob_size":          stat.Size,
		"used_temp_file":     usedTemp,
	}

	if err := jobpayload.ValidateDocumentMetadata(metadata); err != nil {
		failErr := fmt.Errorf("document metadata: %w", err)
		w.queue.FailDocumentBestEffort(ctx, doc.ID, doc.BatchID, failErr.Error())
		return failErr
	}

	if err := w.queue.CompleteJobAndDocument(ctx, job.ID, doc.ID, queue.Outcome{
		Completed: true,
		Result:    []byte(result.Markdown()),
		Content:   result.Markdown(),
		Metadata:  metadata,
	}); err != nil {
		return fmt.Errorf("commit conversion result: %w", err)
	}

	if err := w.queue.RecordUsage(ctx, usageRow(doc.ID, result.Tokens.Prompt, result.Tokens.Completion, result.Tokens.Total)); err != nil {
		w.log.Warn("usage record did not commit", "document_id", doc.ID, "error", err)
	}

	if doc.BatchID != nil {
		if err := w.queue.UpdateBatchProgress(ctx, *doc.BatchID); err != nil {
			w.log.Warn("batch progress recompute did not commit", "batch_id", *doc.BatchID, "error", err)
		}
	}

	return nil
}

// fetchBlob implements §4.4 step 3: stream to a worker-local temp path
// above the large-file threshold, else read directly into memory.
func (w *Worker) fetchBlob(ctx context.Context, key, documentID string, size int64) (data []byte, usedTemp bool, tempPath string, err error) {
	if size <= w.cfg.LargeFileThreshold {
		data, err = w.blobs.Get(ctx, key)
		return data, false, "", err
	}

	tempPath = filepath.Join(w.cfg.TempDir, fmt.Sprintf("%s-%d.tmp", documentID, time.Now().UnixMilli()))
	if err := w.blobs.GetStream(ctx, key, tempPath); err != nil {
		return nil, true, tempPath, err
	}
	data, err = os.ReadFile(tempPath)
	return data, true, tempPath, err
}

// usageRow implements §4.4 step 7's cost model (SPEC_FULL.md Open
// Question 1): base cost is 1 cent per estimated page, estimated pages
// is ceil(total tokens / 1000), margin is a flat 30%.
func usageRow(documentID string, promptTokens, completionTokens, totalTokens int) *entity.Usage {
	estimatedPages := math.Ceil(float64(totalTokens) / tokensPerPage)
	baseCostCents := int(math.Ceil(estimatedPages * centsPerPage))
	totalCostCents := int(math.Ceil(float64(baseCostCents) * 1.3))

	return &entity.Usage{
		ID:             uuid.NewString(),
		DocumentID:     documentID,
		Operation:      usageOperationConvert,
		InputTokens:    promptTokens,
		OutputTokens:   completionTokens,
		BaseCostCents:  baseCostCents,
		MarginRatePct:  marginRatePct,
		TotalCostCents: totalCostCents,
		CreatedAt:      time.Now().UTC(),
	}
}
