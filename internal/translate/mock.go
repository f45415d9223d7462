package translate

import (
	"context"
	"sync/atomic"
)

// MockCompleter is a scripted Completer for tests: it echoes a fixed prefix
// plus the user content, or fails with Err when set.
type MockCompleter struct {
	Prefix string
	Err    error
	calls  atomic.Int64
}

// Complete returns Prefix + last user message content, or Err.
func (m *MockCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return "", m.Err
	}
	var user string
	for _, msg := range messages {
		if msg.Role == "user" {
			user = msg.Content
		}
	}
	return m.Prefix + user, nil
}

// Calls returns how many times Complete has been invoked.
func (m *MockCompleter) Calls() int64 { return m.calls.Load() }
