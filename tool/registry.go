package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/model"
	"github.com/samber/lo"
)

var (
	// ErrRegistryFrozen is returned when registering on a frozen registry.
	ErrRegistryFrozen = errors.New("tool registry is frozen")
	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("duplicate tool")
)

// Registry maps tool names to tools for one persona. It is populated once the
// persona's identity is known and frozen afterwards.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	frozen bool
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tools in order. It fails without side effects if the registry
// is frozen or any name is empty or already taken.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}

	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return fmt.Errorf("tool has no name")
		}
		if _, ok := r.tools[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		seen[name] = struct{}{}
	}

	for _, t := range tools {
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}

	return nil
}

// Resolve returns the tool registered under exactly name (case-sensitive).
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownTool, name)
	}
	return t, nil
}

// Freeze rejects all further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Definitions declares every tool to a backend, in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(name string, _ int) model.ToolDefinition {
		t := r.tools[name]
		return model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	})
}

// Invoke resolves and runs a tool call. Unknown names fail with
// core.ErrUnknownTool. Tool failures, including panics, are returned as
// *core.ToolInvocationError.
func (r *Registry) Invoke(ctx context.Context, call core.ToolCall) (result any, err error) {
	t, err := r.Resolve(call.Name)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &core.ToolInvocationError{Tool: call.Name, Err: panicError(rec)}
		}
	}()

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	result, err = t.Call(ctx, args)
	if err != nil {
		return nil, &core.ToolInvocationError{Tool: call.Name, Err: err}
	}

	return result, nil
}

// ResultText renders a tool result for a tool message. Strings pass through;
// everything else is JSON encoded.
func ResultText(result any) string {
	switch v := result.(type) {
	case nil:
		return "ok"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(b)
}

// PanicError is a recovered tool panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func panicError(rec any) error {
	return &PanicError{Value: rec, Stack: debug.Stack()}
}
