// Package retry provides a small exponential-backoff helper shared by the
// HTTP and arbitration clients. It is deliberately transport-agnostic: the
// operation decides what counts as a retryable failure by returning an error.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy controls how many times an operation is attempted and how long to
// wait between attempts. The delay doubles after each failure and carries up
// to 25% random jitter so concurrent workers do not retry in lockstep.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
	}
}

// Do runs op until it succeeds, the attempts are exhausted, or the context
// is cancelled. The attempt number passed to op is 1-based. On exhaustion
// the last error is returned wrapped with the attempt count.
func (p *Policy) Do(ctx context.Context, op func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := delay
		if wait > 0 {
			jitter := time.Duration(rand.Int63n(int64(wait)/4 + 1))
			wait += jitter
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
