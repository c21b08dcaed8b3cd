// internal/core/services/retry.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// RetryPolicy bounds the retries of a unit of work that lost a lock or serialization race
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// withRetry runs fn again only when it fails with domain.ErrConcurrentModification
func withRetry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
		if attempt >= policy.MaxRetries {
			return fmt.Errorf("%s gave up after %d attempts: %w", op, attempt+1, err)
		}

		logger.WarnContext(ctx, "retrying after concurrent modification",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		timer := time.NewTimer(policy.Backoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s aborted while retrying: %w", op, ctx.Err())
		case <-timer.C:
		}
	}
}
