package store

import (
	"context"
	"testing"
	"time"

	"github.com/joseph-ayodele/docmark/internal/entity"
)

func TestInsertUsageWritesOneRowPerConversion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := newTestDocument("doc-1")
	if err := InsertDocument(ctx, s.DB(), d); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}

	u := &entity.Usage{
		ID:             "usage-1",
		DocumentID:     d.ID,
		Operation:      "convert",
		InputTokens:    1200,
		OutputTokens:   400,
		BaseCostCents:  2,
		MarginRatePct:  30,
		TotalCostCents: 3,
		CreatedAt:      time.Now().UTC(),
	}
	if err := InsertUsage(ctx, s.DB(), u); err != nil {
		t.Fatalf("InsertUsage: %v", err)
	}

	var count int
	if err := s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_records WHERE document_id = ?`, d.ID).Scan(&count); err != nil {
		t.Fatalf("count usage_records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 usage row, got %d", count)
	}
}
