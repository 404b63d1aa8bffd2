package lessonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Transport executes one logical backend operation. Implementations return
// the raw response body on success and an *APIError on failure.
type Transport interface {
	Do(ctx context.Context, endpoint string, payload any) (json.RawMessage, error)
}

// HTTPTransport is the base Transport over net/http. All backend operations
// are POSTs of a JSON payload to a path under the base URL.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport creates a transport with the configured base URL and
// per-call timeout.
func NewHTTPTransport(cfg Config) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (t *HTTPTransport) Do(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for %s: %w", endpoint, err)
	}

	url := t.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, Classify(Outcome{Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Classify(Outcome{Err: err})
	}

	if resp.StatusCode >= 400 {
		return nil, Classify(Outcome{
			Status:        resp.StatusCode,
			ServerMessage: serverMessage(raw),
		})
	}

	return raw, nil
}

// serverMessage extracts the backend's message field from an error body,
// returning "" when the body is not the standard envelope.
func serverMessage(raw []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Message
}
