package model

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/internal/util"
)

var errNoParser = errors.New("schema has no parser")

// ActionSchemaName is the schema name sent to backends for persona decisions.
const ActionSchemaName = "persona_action"

// ActionSchema derives the decision schema from the Action variant set: an
// object with a single "action" property that is any one of the variants,
// discriminated by "type". FinishSession is offered only when allowFinish is set.
func ActionSchema(allowFinish bool) Schema {
	variants := []any{
		util.CreateSchema(core.SubmitPost{}),
		util.CreateSchema(core.SubmitReply{}),
		util.CreateSchema(core.ViewThread{}),
	}
	if allowFinish {
		variants = append(variants, util.CreateSchema(core.FinishSession{}))
	}

	return Schema{
		Name:        ActionSchemaName,
		Description: "The single action to take on the social platform this round",
		JSON: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{"anyOf": variants},
			},
			"required":             []string{"action"},
			"additionalProperties": false,
		},
		Parse: func(raw []byte) (any, error) {
			action, err := core.ParseDecision(raw)
			if err != nil {
				return nil, err
			}
			if !allowFinish && action.Type() == core.ActionFinishSession {
				return nil, fmt.Errorf("action %q is not allowed", core.ActionFinishSession)
			}
			return action, nil
		},
	}
}
