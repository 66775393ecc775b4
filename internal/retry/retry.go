// Package retry implements the bounded-retry wrapper described in §4.2:
// writes against the embedded store are retried with exponential backoff
// when the store reports a transient busy/locked condition, and any other
// error propagates immediately.
package retry

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docmark/internal/apperr"
)

// Delays is the §4.2 backoff schedule: 100, 200, 400, 800, 1600ms. Op sleeps
// Delays[n-1] before attempt n+1, so with MaxAttempts = 5 only the first
// four entries (100–800ms) are used.
var Delays = []time.Duration{
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
	1600 * time.Millisecond,
}

// MaxAttempts is the fixed claim-retry budget from §6.3.
const MaxAttempts = 5

// IsBusyErr classifies an error as a transient busy/locked condition
// reported by the embedded store, worth retrying. modernc.org/sqlite
// surfaces these as driver errors whose text names the SQLite result
// code; we match on that rather than a type assertion so the retry
// package has no compile-time dependency on the driver.
func IsBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "sqlite_locked") ||
		strings.Contains(msg, "database is locked")
}

// Op wraps a write-side operation with bounded exponential backoff. name
// identifies the operation for the OperationBusy error and for logging.
// Only errors classified by IsBusyErr are retried; every other error
// propagates on the first attempt (property 8, §8).
func Op(ctx context.Context, logger *slog.Logger, name string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := Delays[attempt-1]
			logger.Warn("retrying busy operation", "op", name, "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsBusyErr(lastErr) {
			return lastErr
		}
	}

	logger.Error("operation busy, retry budget exhausted", "op", name, "attempts", MaxAttempts)
	return apperr.Busy(name, lastErr)
}
