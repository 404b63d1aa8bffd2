package lessonapi

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockTransport.
type MockResponse struct {
	Body json.RawMessage
	Err  error
}

// MockCall records one Do invocation.
type MockCall struct {
	Endpoint string
	Payload  any
}

// MockTransport is a deterministic Transport for testing. It returns canned
// responses in FIFO order and records all calls.
type MockTransport struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []MockCall
}

// NewMockTransport creates a MockTransport with the given canned responses.
func NewMockTransport(responses ...MockResponse) *MockTransport {
	return &MockTransport{responses: responses}
}

// Do returns the next canned response, or a network-classified error if the
// queue is empty.
func (m *MockTransport) Do(_ context.Context, endpoint string, payload any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Endpoint: endpoint, Payload: payload})

	if len(m.responses) == 0 {
		return nil, Classify(Outcome{Err: errNoResponses})
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Body, nil
}

// AddResponse appends a canned response to the queue.
func (m *MockTransport) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Do calls made.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastEndpoint returns the endpoint of the most recent call, or "".
func (m *MockTransport) LastEndpoint() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return ""
	}
	return m.Calls[len(m.Calls)-1].Endpoint
}

var errNoResponses = errEmptyQueue{}

type errEmptyQueue struct{}

func (errEmptyQueue) Error() string { return "mock transport: no responses queued" }
