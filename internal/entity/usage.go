package entity

import "time"

// Usage records the token accounting and billed cost for one successful
// conversion. One row per completed convert job.
type Usage struct {
	ID             string
	DocumentID     string
	Operation      string
	InputTokens    int
	OutputTokens   int
	BaseCostCents  int
	MarginRatePct  int
	TotalCostCents int
	CreatedAt      time.Time
}
