// internal/app/relay/memory.go
package relay

import (
	"context"
	"sync"
)

// Memory records every Request instead of delivering it. FailOn makes the
// n-th call (1-based) return an error, which tests use to break one stage.
type Memory struct {
	mu     sync.Mutex
	sent   []Request
	fail   map[int]error
	calls  int
	onSend func(Request)
}

// NewMemory returns an empty Memory relay.
func NewMemory() *Memory {
	return &Memory{fail: map[int]error{}}
}

// FailOn makes call n return err.
func (m *Memory) FailOn(n int, err error) *Memory {
	m.mu.Lock()
	m.fail[n] = err
	m.mu.Unlock()
	return m
}

// OnSend registers fn to run inside every Send before it returns.
func (m *Memory) OnSend(fn func(Request)) *Memory {
	m.mu.Lock()
	m.onSend = fn
	m.mu.Unlock()
	return m
}

func (m *Memory) Send(ctx context.Context, req Request) error {
	m.mu.Lock()
	m.calls++
	n := m.calls
	err := m.fail[n]
	fn := m.onSend
	m.mu.Unlock()

	if fn != nil {
		fn(req)
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		params[k] = v
	}
	req.Params = params

	m.mu.Lock()
	m.sent = append(m.sent, req)
	m.mu.Unlock()
	return nil
}

// Sent returns the delivered requests in order.
func (m *Memory) Sent() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.sent))
	copy(out, m.sent)
	return out
}

// Calls is the number of Send calls, delivered or failed.
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
