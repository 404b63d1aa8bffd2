package lessonapi

import (
	"errors"
	"testing"
)

func TestClassify_NoResponseIsRetryableNetworkError(t *testing.T) {
	e := Classify(Outcome{Err: errors.New("connection refused")})
	if e.Kind != KindNetwork {
		t.Fatalf("expected network_error, got %q", e.Kind)
	}
	if !e.Retryable() {
		t.Fatal("expected retryable")
	}
}

func TestClassify_StatusTable(t *testing.T) {
	tests := []struct {
		status    int
		wantKind  ErrorKind
		retryable bool
	}{
		{408, KindTimeout, true},
		{429, KindRateLimited, true},
		{500, KindServer, true},
		{502, KindServer, true},
		{599, KindServer, true},
		{400, KindClient, false},
		{401, KindClient, false},
		{403, KindClient, false},
		{404, KindClient, false},
		{418, KindUnknown, false},
		{302, KindUnknown, false},
	}

	for _, tt := range tests {
		e := Classify(Outcome{Status: tt.status})
		if e.Kind != tt.wantKind {
			t.Errorf("status %d: expected kind %q, got %q", tt.status, tt.wantKind, e.Kind)
		}
		if e.Retryable() != tt.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v", tt.status, tt.retryable, e.Retryable())
		}
		if e.Message == "" {
			t.Errorf("status %d: expected a human-readable message", tt.status)
		}
	}
}

func TestClassify_ClientMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{401, "Session expired - Please log in again"},
		{403, "Access denied - You do not have permission"},
		{404, "Resource not found"},
	}
	for _, tt := range tests {
		if got := Classify(Outcome{Status: tt.status}).Message; got != tt.want {
			t.Errorf("status %d: expected %q, got %q", tt.status, tt.want, got)
		}
	}
}

func TestClassify_UnknownUsesServerMessage(t *testing.T) {
	e := Classify(Outcome{Status: 418, ServerMessage: "teapot refuses"})
	if e.Message != "teapot refuses" {
		t.Fatalf("expected server message to pass through, got %q", e.Message)
	}
}
