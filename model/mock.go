package model

import (
	"context"
	"sync"

	"github.com/hupe1980/bleater/core"
)

type mockTurn struct {
	resp *Response
	err  error
}

type mockDecision struct {
	raw string
	err error
}

// MockModel is a scripted in-memory Backend useful for tests and examples.
// Queued responses and decisions are consumed in order; once a queue is
// empty Converse answers with plain text and Decide with a schema violation.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	turns     []mockTurn
	decisions []mockDecision

	requests  []Request
	decideLog [][]core.Message
}

// NewMockModel constructs an empty MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock"}}
}

// AddResponse queues a free-form response.
func (m *MockModel) AddResponse(resp Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, mockTurn{resp: &resp})
	return m
}

// AddToolCalls queues a response consisting only of tool calls.
func (m *MockModel) AddToolCalls(calls ...core.ToolCall) *MockModel {
	return m.AddResponse(Response{ToolCalls: calls, FinishReason: "tool_calls"})
}

// AddConverseError queues a Converse failure.
func (m *MockModel) AddConverseError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, mockTurn{err: err})
	return m
}

// AddDecision queues raw structured output. It is parsed by the schema
// passed to Decide, exactly like a real adapter parses model text.
func (m *MockModel) AddDecision(raw string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, mockDecision{raw: raw})
	return m
}

// AddAction queues a well-formed decision for the given action.
func (m *MockModel) AddAction(a core.Action) *MockModel {
	raw, err := core.EncodeDecision(a)
	if err != nil {
		return m.AddDecisionError(err)
	}
	return m.AddDecision(string(raw))
}

// AddDecisionError queues a Decide transport failure.
func (m *MockModel) AddDecisionError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, mockDecision{err: err})
	return m
}

// Converse implements Backend.
func (m *MockModel) Converse(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	req.Messages = core.CloneMessages(req.Messages)
	m.requests = append(m.requests, req)

	if len(m.turns) == 0 {
		return &Response{Content: "Mock response", FinishReason: "stop"}, nil
	}
	turn := m.turns[0]
	m.turns = m.turns[1:]
	if turn.err != nil {
		return nil, turn.err
	}
	resp := *turn.resp
	return &resp, nil
}

// Decide implements Backend.
func (m *MockModel) Decide(ctx context.Context, history []core.Message, schema Schema) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.decideLog = append(m.decideLog, core.CloneMessages(history))
	var next mockDecision
	if len(m.decisions) > 0 {
		next = m.decisions[0]
		m.decisions = m.decisions[1:]
	}
	m.mu.Unlock()

	if next.err != nil {
		return nil, next.err
	}
	return ParseDecision(schema, []byte(next.raw))
}

// Info implements Backend.
func (m *MockModel) Info() Info { return m.info }

// Requests returns the recorded Converse requests.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// DecideHistories returns the histories passed to Decide.
func (m *MockModel) DecideHistories() [][]core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]core.Message, len(m.decideLog))
	copy(out, m.decideLog)
	return out
}
