package lessonapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// RetryTransport is a decorator that re-issues a failed call exactly once
// when the failure is classified as retryable, after a fixed backoff delay.
//
// The retry budget is local to each Do invocation, so concurrent calls each
// get their own single retry. A second failure is surfaced as-is: bounded,
// predictable latency is preferred over resilience to prolonged outages.
type RetryTransport struct {
	inner   Transport
	backoff time.Duration
}

// WithRetry wraps a Transport with single-retry logic.
func WithRetry(t Transport, backoff time.Duration) Transport {
	return &RetryTransport{inner: t, backoff: backoff}
}

func (r *RetryTransport) Do(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	raw, err := r.inner.Do(ctx, endpoint, payload)
	if err == nil {
		return raw, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.Retryable() {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.backoff):
	}

	return r.inner.Do(ctx, endpoint, payload)
}
