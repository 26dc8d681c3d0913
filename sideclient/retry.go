package sideclient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lanmouse/lanmouse/sidetypes"
)

// Retry calls fn up to attempts times, sleeping backoff between attempts and
// doubling it each time. Every attempt goes through a fresh connection since
// the transport never reuses one. Error responses with a 4xx status are
// final and not retried.
func Retry(ctx context.Context, attempts int, initial time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initial
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	var last error
	err := backoff.Retry(func() error {
		last = fn(ctx)
		if last != nil && !retryable(last) {
			return backoff.Permanent(last)
		}
		return last
	}, b)
	if err != nil && last != nil && ctx.Err() != nil && !errors.Is(err, last) {
		// Keep the failure that was being retried when ctx ended.
		return errors.Join(last, ctx.Err())
	}
	return err
}

func retryable(err error) bool {
	var apiErr sidetypes.ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return !errors.Is(err, context.Canceled)
}
