// Package report generates an XLSX completion report for a batch — a
// domain-stack enrichment of the async pipeline, grounded on the
// teacher's internal/export/service.go (itself wired through
// cmd/receipt-batch/main.go after a batch finishes processing).
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docmark/internal/entity"
	"github.com/joseph-ayodele/docmark/internal/queue"
)

// Service is a tiny facade over the Queue Repository that produces XLSX
// bytes summarizing a batch's outcome.
type Service struct {
	queue  queue.Repository
	logger *slog.Logger
}

func NewService(q queue.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{queue: q, logger: logger}
}

const sheetName = "Batch Report"

// GenerateBatchReport returns an XLSX workbook (as bytes) listing every
// document in batchID with its id, file name, final status, submitted and
// completed times, and error text. Page/token usage and processing time
// are not included.
func (s *Service) GenerateBatchReport(ctx context.Context, batchID string) ([]byte, error) {
	start := time.Now()

	batch, err := s.queue.GetBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	docs, err := s.queue.GetBatchDocuments(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch documents: %w", err)
	}

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.logger.Debug("no default sheet to delete", "error", err)
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document ID",
		"File Name",
		"Status",
		"Submitted",
		"Completed",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, d.ID)
		write(2, d.FileName)
		write(3, string(d.Status))
		write(4, d.CreatedAt.Format(time.RFC3339))
		if d.ProcessedAt != nil {
			write(5, d.ProcessedAt.Format(time.RFC3339))
		} else {
			write(5, "")
		}
		errMsg := ""
		if d.ErrorMessage != nil {
			errMsg = *d.ErrorMessage
		}
		write(6, truncate(errMsg, 200))
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 32)
	_ = f.SetColWidth(sheetName, "C", "C", 14)
	_ = f.SetColWidth(sheetName, "D", "E", 22)
	_ = f.SetColWidth(sheetName, "F", "F", 60)

	if err := s.writeSummarySheet(f, batch, docs); err != nil {
		return nil, fmt.Errorf("write summary sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("report.batch.xlsx.ok",
		"batch_id", batchID,
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSummarySheet(f *excelize.File, batch *entity.Batch, docs []*entity.Document) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][2]any{
		{"Batch ID", batch.ID},
		{"Status", string(batch.Status)},
		{"Total Documents", batch.TotalDocuments},
		{"Completed", batch.CompletedDocuments},
		{"Failed", batch.FailedDocuments},
		{"Created", batch.CreatedAt.Format(time.RFC3339)},
	}
	if batch.CompletedAt != nil {
		rows = append(rows, [2]any{"Completed At", batch.CompletedAt.Format(time.RFC3339)})
	}

	for i, r := range rows {
		rowNum := i + 1
		labelCell, _ := excelize.CoordinatesToCellName(1, rowNum)
		valueCell, _ := excelize.CoordinatesToCellName(2, rowNum)
		_ = f.SetCellValue(sheet, labelCell, r[0])
		_ = f.SetCellValue(sheet, valueCell, r[1])
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
