package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy_Is(t *testing.T) {
	cfgErr := NewConfigurationError("openai", "Model")
	assert.ErrorIs(t, cfgErr, ErrConfiguration)
	assert.Contains(t, cfgErr.Error(), "Model is required")

	parseErr := errors.New("bad json")
	sv := &SchemaViolationError{Schema: "action", Raw: "{", Err: parseErr}
	assert.ErrorIs(t, sv, ErrSchemaViolation)
	assert.ErrorIs(t, sv, parseErr)

	wrapped := fmt.Errorf("round 2: %w", sv)
	var target *SchemaViolationError
	assert.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "{", target.Raw)

	ti := &ToolInvocationError{Tool: "submit_post", Err: errors.New("boom")}
	assert.ErrorIs(t, ti, ErrToolInvocation)
	assert.Equal(t, "tool submit_post failed: boom", ti.Error())
}
