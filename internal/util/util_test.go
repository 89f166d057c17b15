package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	A string `json:"a" jsonschema:"description=Field A"`
	B *int   `json:"b,omitempty"`
	C int    `json:"c"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleArgs{})

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.NotContains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Equal(t, "Field A", props["a"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["c"].(map[string]any)["type"])

	assert.ElementsMatch(t, []string{"a", "c"}, RequiredFields(schema))
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []string{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"x": 5.0, "extra": true}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")
}

func TestRenderTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("t", `Hi {{ .Name | upper }} {{ truncate 3 .Bio }} {{ default "none" .Missing }}`)
	require.NoError(t, err)

	out, err := RenderTemplate(tmpl, map[string]any{"Name": "barb", "Bio": "journalist"})
	require.NoError(t, err)
	assert.Equal(t, "Hi BARB jou… none", out)
}
