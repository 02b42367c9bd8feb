// ABOUTME: Retry utilities with exponential backoff for network-facing calls
// ABOUTME: Shared by the Google clients, insight generators, and sync orchestrator
package util

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/harper/review-rescue/internal/errs"
)

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	// Exponential: 2^attempt * base
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	// Cap at 30 seconds
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// Retry runs fn up to maxAttempts times, backing off between attempts.
// Only errors marked retryable (see errs.IsRetryable) are retried; any
// other error, or context cancellation, ends the loop immediately.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(CalculateBackoff(baseDelay, attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errs.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
