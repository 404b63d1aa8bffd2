package lessonapi

import "fmt"

// ErrorKind is the user-facing category of a failed backend request.
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network_error"
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server_error"
	KindClient      ErrorKind = "client_error"
	KindProtocol    ErrorKind = "protocol_error"
	KindUnknown     ErrorKind = "unknown"
)

// APIError is a classified backend request failure. Instances are produced
// by Classify (wire failures) and by the Service (protocol failures); the
// retryable verdict is assigned there and never re-derived by callers.
type APIError struct {
	Kind    ErrorKind
	Status  int    // HTTP status, 0 when no response was received
	Message string // human-readable, safe to display
	Err     error  // underlying cause, may be nil

	retryable bool
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether exactly one automatic re-attempt is permitted
// for this failure.
func (e *APIError) Retryable() bool { return e.retryable }

// protocolError builds the non-retryable error for a malformed success
// envelope, guarding against the backend changing its contract silently.
func protocolError(err error) *APIError {
	return &APIError{
		Kind:    KindProtocol,
		Message: "The server returned an unexpected response",
		Err:     err,
	}
}
