package store

import (
	"context"

	"github.com/joseph-ayodele/docmark/internal/entity"
)

// InsertUsage writes one usage row per successful conversion (§3).
func InsertUsage(ctx context.Context, q Querier, u *entity.Usage) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO usage_records (
			id, document_id, operation, input_tokens, output_tokens,
			base_cost_cents, margin_rate_pct, total_cost_cents, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.DocumentID, u.Operation, u.InputTokens, u.OutputTokens,
		u.BaseCostCents, u.MarginRatePct, u.TotalCostCents, u.CreatedAt,
	)
	return err
}
