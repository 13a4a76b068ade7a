package llm

import (
	"context"
	"fmt"
	"sync"

	"donna/internal/agent/ports"
)

// MockClient is a scripted LLMClient for tests. Responses are returned in
// order; running past the script is an error so tests fail loudly on
// unexpected extra completions.
type MockClient struct {
	mu        sync.Mutex
	responses []*ports.CompletionResponse
	Requests  []ports.CompletionRequest
}

// NewMockClient builds a mock that replays the given responses.
func NewMockClient(responses ...*ports.CompletionResponse) *MockClient {
	return &MockClient{responses: responses}
}

// Enqueue appends another scripted response.
func (m *MockClient) Enqueue(resp *ports.CompletionResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

func (m *MockClient) Complete(_ context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock llm: no scripted response for request %d", len(m.Requests))
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *MockClient) Model() string { return "mock-model" }

// TextResponse builds a plain-content scripted response.
func TextResponse(content string) *ports.CompletionResponse {
	return &ports.CompletionResponse{Content: content, StopReason: "stop"}
}

// ToolCallResponse builds a scripted response proposing one tool call.
func ToolCallResponse(id, name string, args map[string]any) *ports.CompletionResponse {
	if args == nil {
		args = map[string]any{}
	}
	return &ports.CompletionResponse{
		StopReason: "tool_calls",
		ToolCalls:  []ports.ToolCall{{ID: id, Name: name, Arguments: args}},
	}
}
