package lessonapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport is a decorator that records every backend call with its
// latency and outcome. Logging never affects the result.
type LoggingTransport struct {
	inner Transport
	log   *zap.Logger
}

// WithLogging wraps a Transport with structured request logging.
func WithLogging(t Transport, log *zap.Logger) Transport {
	return &LoggingTransport{inner: t, log: log}
}

func (l *LoggingTransport) Do(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	start := time.Now()
	raw, err := l.inner.Do(ctx, endpoint, payload)
	latency := time.Since(start)

	if err != nil {
		fields := []zap.Field{
			zap.String("endpoint", endpoint),
			zap.Duration("latency", latency),
			zap.Error(err),
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			fields = append(fields,
				zap.String("kind", string(apiErr.Kind)),
				zap.Int("status", apiErr.Status),
				zap.Bool("retryable", apiErr.Retryable()),
			)
		}
		l.log.Warn("backend call failed", fields...)
		return nil, err
	}

	l.log.Debug("backend call",
		zap.String("endpoint", endpoint),
		zap.Duration("latency", latency),
		zap.Int("response_bytes", len(raw)),
	)
	return raw, nil
}
