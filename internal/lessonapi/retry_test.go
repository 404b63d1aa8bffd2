package lessonapi

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

const testBackoff = 1 * time.Millisecond

func retryableErr() *APIError {
	return Classify(Outcome{Status: 503})
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockTransport(
		MockResponse{Body: json.RawMessage(`{"ok":true}`)},
	)
	tr := WithRetry(mock, testBackoff)

	raw, err := tr.Do(context.Background(), "lesson-content", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", raw)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_RetryableThenSuccess(t *testing.T) {
	mock := NewMockTransport(
		MockResponse{Err: retryableErr()},
		MockResponse{Body: json.RawMessage(`{"ok":true}`)},
	)
	tr := WithRetry(mock, testBackoff)

	raw, err := tr.Do(context.Background(), "lesson-content", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", raw)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_AtMostTwoAttempts(t *testing.T) {
	// Every attempt fails retryably; the third canned success must never
	// be reached.
	mock := NewMockTransport(
		MockResponse{Err: retryableErr()},
		MockResponse{Err: retryableErr()},
		MockResponse{Body: json.RawMessage(`{"ok":true}`)},
	)
	tr := WithRetry(mock, testBackoff)

	_, err := tr.Do(context.Background(), "lesson-content", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindServer {
		t.Fatalf("expected classified server error, got %v", err)
	}
}

func TestRetry_NonRetryableNotRetried(t *testing.T) {
	mock := NewMockTransport(
		MockResponse{Err: Classify(Outcome{Status: 404})},
		MockResponse{Body: json.RawMessage(`{"ok":true}`)},
	)
	tr := WithRetry(mock, testBackoff)

	_, err := tr.Do(context.Background(), "lesson-content", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.CallCount())
	}
}

func TestRetry_IndependentBudgetsPerCall(t *testing.T) {
	// Two sequential calls each get their own single retry.
	mock := NewMockTransport(
		MockResponse{Err: retryableErr()},
		MockResponse{Body: json.RawMessage(`{"first":true}`)},
		MockResponse{Err: retryableErr()},
		MockResponse{Body: json.RawMessage(`{"second":true}`)},
	)
	tr := WithRetry(mock, testBackoff)

	if _, err := tr.Do(context.Background(), "a", nil); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := tr.Do(context.Background(), "b", nil); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if mock.CallCount() != 4 {
		t.Fatalf("expected 4 underlying calls, got %d", mock.CallCount())
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockTransport(
		MockResponse{Err: retryableErr()},
		MockResponse{Body: json.RawMessage(`{"ok":true}`)},
	)
	tr := WithRetry(mock, 1*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Do(ctx, "lesson-content", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.CallCount())
	}
}
