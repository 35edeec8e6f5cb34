// Package service orchestrates the bridge workflow: request creation,
// desktop launch, response waiting, and change application. Everything here
// is sequential and blocking; the only interruption points are the watcher
// cancel flag and context cancellation.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kazumasakawahara/claude-bridge/internal/core"
	"github.com/kazumasakawahara/claude-bridge/internal/logging"
)

// Backoff retries an operation with exponentially growing delays. Each
// failure is classified first: a critical severity aborts immediately,
// skipping the remaining attempts.
type Backoff struct {
	MaxRetries   int
	InitialDelay time.Duration
	Factor       float64

	logger *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewBackoff creates a backoff runner.
func NewBackoff(maxRetries int, initialDelay time.Duration, factor float64, logger *logging.Logger) *Backoff {
	return &Backoff{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		Factor:       factor,
		logger:       logger.WithComponent("backoff"),
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Execute runs fn until it succeeds, a failure classifies as critical, the
// context is cancelled, or MaxRetries attempts are exhausted. Exhaustion
// returns a RetryExhaustedError wrapping the last failure.
func (b *Backoff) Execute(ctx context.Context, opContext string, fn func() error) error {
	delay := b.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= b.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		severity := core.Classify(err, opContext)
		if severity == core.SeverityCritical {
			b.logger.Error("critical failure, skipping remaining retries",
				"context", opContext, "attempt", attempt, "error", err)
			return err
		}
		if attempt == b.MaxRetries {
			break
		}

		b.logger.Warn("attempt failed, backing off",
			"context", opContext,
			"attempt", attempt,
			"severity", severity,
			"delay", delay,
			"error", err)
		if sErr := b.sleep(ctx, delay); sErr != nil {
			return sErr
		}
		delay = time.Duration(float64(delay) * b.Factor)
	}

	b.logger.Error("retries exhausted",
		"context", opContext, "attempts", b.MaxRetries, "error", lastErr)
	return &RetryExhaustedError{Attempts: b.MaxRetries, LastErr: lastErr}
}

// RetryExhaustedError indicates all retry attempts failed.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}
