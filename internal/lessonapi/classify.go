package lessonapi

import "net/http"

// Outcome captures the result of a single HTTP attempt against the backend.
type Outcome struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Err is the transport-level error when no response arrived.
	Err error

	// ServerMessage is the message field from the response body, if the
	// backend supplied one.
	ServerMessage string
}

// Classify maps a failed request outcome to its retryability verdict and
// user-facing kind. This table is the single source of truth for retry
// policy; nothing else in the codebase decides what is retryable.
//
// Rules, in order:
//  1. no response → NetworkError, retryable
//  2. 408 → Timeout, retryable
//  3. 429 → RateLimited, retryable
//  4. 5xx → ServerError, retryable
//  5. 400/401/403/404 → ClientError with a fixed message, not retryable
//  6. anything else → Unknown, not retryable
func Classify(o Outcome) *APIError {
	if o.Err != nil {
		return &APIError{
			Kind:      KindNetwork,
			Message:   "Network error - Please check your internet connection",
			Err:       o.Err,
			retryable: true,
		}
	}

	switch {
	case o.Status == http.StatusRequestTimeout:
		return &APIError{
			Kind:      KindTimeout,
			Status:    o.Status,
			Message:   "Request timed out - Please try again",
			retryable: true,
		}
	case o.Status == http.StatusTooManyRequests:
		return &APIError{
			Kind:      KindRateLimited,
			Status:    o.Status,
			Message:   "Too many requests - Please try again later",
			retryable: true,
		}
	case o.Status >= 500 && o.Status <= 599:
		return &APIError{
			Kind:      KindServer,
			Status:    o.Status,
			Message:   "Server error - Please try again later",
			retryable: true,
		}
	}

	switch o.Status {
	case http.StatusBadRequest:
		return clientError(o.Status, "Invalid request - Please check your input")
	case http.StatusUnauthorized:
		return clientError(o.Status, "Session expired - Please log in again")
	case http.StatusForbidden:
		return clientError(o.Status, "Access denied - You do not have permission")
	case http.StatusNotFound:
		return clientError(o.Status, "Resource not found")
	}

	msg := o.ServerMessage
	if msg == "" {
		msg = "An unexpected error occurred"
	}
	return &APIError{
		Kind:    KindUnknown,
		Status:  o.Status,
		Message: msg,
	}
}

func clientError(status int, msg string) *APIError {
	return &APIError{
		Kind:    KindClient,
		Status:  status,
		Message: msg,
	}
}
