package helpers

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConnect runs fn with capped exponential backoff. Every failure is
// retried until attempts run out or ctx ends.
func RetryConnect(ctx context.Context, attempts uint64, base time.Duration, fn func(ctx context.Context) error) error {
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(10*time.Second, b)
	b = retry.WithMaxRetries(attempts, b)
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
