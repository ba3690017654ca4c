package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retrying wraps a Provider with bounded exponential backoff. Provider
// errors are treated as transient (rate limits and timeouts dominate);
// context cancellation is not retried.
type Retrying struct {
	inner       Provider
	maxRetries  uint64
	initBackoff time.Duration
}

func NewRetrying(inner Provider, maxRetries uint64, initBackoff time.Duration) *Retrying {
	if maxRetries == 0 {
		maxRetries = 3
	}
	if initBackoff <= 0 {
		initBackoff = 500 * time.Millisecond
	}
	return &Retrying{inner: inner, maxRetries: maxRetries, initBackoff: initBackoff}
}

func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.initBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := r.inner.Embed(ctx, text)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return retry.RetryableError(err)
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Retrying) Close() error { return r.inner.Close() }
