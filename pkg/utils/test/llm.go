package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/engram/pkg/llm"
)

// MockLLM scripts completion responses for tests. Responses are returned in
// order; prompts are recorded for assertions.
type MockLLM struct {
	mu sync.Mutex

	// Responses is consumed front to back; the last response repeats once
	// the list is exhausted.
	Responses []string

	// Prompts accumulates every prompt passed to the caller.
	Prompts []string

	// Fail causes every call to return an error.
	Fail bool

	calls int
}

func NewMockLLM(responses ...string) *MockLLM {
	return &MockLLM{Responses: responses}
}

// Caller returns a llm.CallFunc backed by this mock.
func (m *MockLLM) Caller() llm.CallFunc {
	return func(_ context.Context, prompt string) (string, error) {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.Prompts = append(m.Prompts, prompt)
		if m.Fail {
			return "", fmt.Errorf("mock llm failure")
		}
		if len(m.Responses) == 0 {
			return "{}", nil
		}

		idx := m.calls
		if idx >= len(m.Responses) {
			idx = len(m.Responses) - 1
		}
		m.calls++
		return m.Responses[idx], nil
	}
}
