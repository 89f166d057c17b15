package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a fatal construction-time misconfiguration.
	ErrConfiguration = errors.New("configuration error")
	// ErrRegistrationConflict is returned when the platform refuses an identity.
	ErrRegistrationConflict = errors.New("registration conflict")
	// ErrSchemaViolation is returned when structured output does not match its schema.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrUnknownTool is returned when a tool call names no registered tool.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolInvocation is returned when a resolved tool fails while running.
	ErrToolInvocation = errors.New("tool invocation failed")
)

// ConfigurationError describes a missing or invalid setting of a component.
type ConfigurationError struct {
	Component string // e.g. "openai", "gemini"
	Field     string // e.g. "Model"
	Message   string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s: %s", ErrConfiguration, e.Component, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s is required", ErrConfiguration, e.Component, e.Field)
}

// Unwrap allows errors.Is(err, ErrConfiguration).
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError reports a required field that was not supplied.
func NewConfigurationError(component, field string) *ConfigurationError {
	return &ConfigurationError{Component: component, Field: field}
}

// SchemaViolationError carries the raw backend output that failed to parse.
type SchemaViolationError struct {
	Schema string
	Raw    string
	Err    error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSchemaViolation, e.Schema, e.Err)
}

// Is matches ErrSchemaViolation.
func (e *SchemaViolationError) Is(target error) bool { return target == ErrSchemaViolation }

// Unwrap exposes the underlying parse error.
func (e *SchemaViolationError) Unwrap() error { return e.Err }

// ToolInvocationError wraps a failure raised while a tool was running,
// including recovered panics.
type ToolInvocationError struct {
	Tool string
	Err  error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

// Is matches ErrToolInvocation.
func (e *ToolInvocationError) Is(target error) bool { return target == ErrToolInvocation }

// Unwrap exposes the tool's own error.
func (e *ToolInvocationError) Unwrap() error { return e.Err }
