package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"farepay_app/internal/models"
)

// WaitOutcome is the waiter-local terminal resolution of a polling run. Note
// that timed_out is not a transaction status: the record may still transition
// later via a webhook the waiter no longer observes.
type WaitOutcome string

const (
	WaitOutcomeSuccess   WaitOutcome = "success"
	WaitOutcomeCancelled WaitOutcome = "cancelled"
	WaitOutcomeFailed    WaitOutcome = "failed"
	WaitOutcomeTimedOut  WaitOutcome = "timed_out"
)

// PollTimeoutError reports an exhausted polling budget while the transaction
// was still pending
type PollTimeoutError struct {
	Reference string
	Attempts  int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("payment %s still pending after %d status checks; please contact support", e.Reference, e.Attempts)
}

// ReconciliationWaiter polls transaction status until a terminal state or the
// attempt budget runs out. It owns its ticker and stops it deterministically
// when the run ends or the context is cancelled. One waiter per initiation.
type ReconciliationWaiter struct {
	Interval    time.Duration
	MaxAttempts int

	ReadStatus func(ctx context.Context, reference string) (models.TransactionStatus, error)
	// OnSuccess is the caller's downstream effect; it fires once, before the
	// waiter resolves positively.
	OnSuccess func(ctx context.Context, reference string) error
}

// Wait runs the polling loop. A transient read error consumes an attempt
// without aborting the loop. Context cancellation stops the run immediately
// with the context's error.
func (w *ReconciliationWaiter) Wait(ctx context.Context, reference string) (WaitOutcome, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := w.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultPollMaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := w.ReadStatus(ctx, reference)
		if err != nil {
			log.Printf("Status read %d/%d for %s failed: %v", attempt, maxAttempts, reference, err)
		} else {
			switch status {
			case models.TransactionStatusSuccess:
				if w.OnSuccess != nil {
					if err := w.OnSuccess(ctx, reference); err != nil {
						log.Printf("Downstream effect for %s failed: %v", reference, err)
					}
				}
				return WaitOutcomeSuccess, nil
			case models.TransactionStatusCancelled:
				return WaitOutcomeCancelled, nil
			case models.TransactionStatusFailed:
				return WaitOutcomeFailed, nil
			}
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}

	return WaitOutcomeTimedOut, &PollTimeoutError{Reference: reference, Attempts: maxAttempts}
}
