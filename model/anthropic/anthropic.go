// Package anthropic provides a model.Backend for the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/internal/util"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
	Logger      logging.Logger
}

// Model wraps the Anthropic Messages API behind model.Backend.
type Model struct {
	client *anthropic.Client
	opts   Options
}

var _ model.Backend = (*Model)(nil)

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
		Logger:      logging.NoOpLogger{},
	}
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	return newModel(&client, opts)
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newModel(client, opts)
}

func newModel(client *anthropic.Client, opts Options) (*Model, error) {
	if opts.Model == "" {
		return nil, core.NewConfigurationError("anthropic", "Model")
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Model{client: client, opts: opts}, nil
}

// Converse implements model.Backend.
func (m *Model) Converse(ctx context.Context, req model.Request) (*model.Response, error) {
	params := m.buildParams(req.Messages)
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := m.send(ctx, "converse", params)
	if err != nil {
		return nil, err
	}

	out := &model.Response{
		FinishReason: string(resp.StopReason),
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			args, err := model.UnmarshalArgs(inputJSON(toolBlock.Input))
			if err != nil {
				m.opts.Logger.Warn("model.tool_call.bad_arguments", "provider", "anthropic", "tool", toolBlock.Name, "error", err.Error())
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        model.CallID(toolBlock.ID),
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}
	out.Content = text.String()

	return out, nil
}

// Decide implements model.Backend. The schema is offered as the only tool and
// the model is forced to call it; the tool input is the decision.
func (m *Model) Decide(ctx context.Context, history []core.Message, schema model.Schema) (any, error) {
	params := m.buildParams(history)
	params.Tools = buildTools([]model.ToolDefinition{{
		Name:        schema.Name,
		Description: schema.Description,
		Parameters:  schema.JSON,
	}})
	params.ToolChoice = anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: schema.Name},
	}

	resp, err := m.send(ctx, "decide", params)
	if err != nil {
		return nil, err
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		toolBlock := block.AsToolUse()
		if toolBlock.Name == schema.Name {
			return model.ParseDecision(schema, []byte(inputJSON(toolBlock.Input)))
		}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}
	return model.ParseDecision(schema, []byte(text.String()))
}

// Info returns metadata describing this adapter.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic"}
}

func (m *Model) send(ctx context.Context, mode string, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	if b, err := json.Marshal(params); err == nil {
		m.opts.Logger.Debug("model.request", "provider", "anthropic", "mode", mode, "model", string(m.opts.Model), "payload", string(b))
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	m.opts.Logger.Debug("model.response", "provider", "anthropic", "mode", mode, "payload", resp.RawJSON())

	return resp, nil
}

func (m *Model) buildParams(history []core.Message) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(history),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}
	if system := extractSystem(history); len(system) > 0 {
		params.System = system
	}
	return params
}

func extractSystem(history []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range history {
		if msg.Role == core.RoleSystem {
			if text := msg.Text(); text != "" {
				blocks = append(blocks, anthropic.TextBlockParam{Text: text})
			}
		}
	}
	return blocks
}

// buildMessages converts the history into alternating user and assistant
// turns. Tool results travel as tool_result blocks of a user turn; adjacent
// user turns are merged.
func buildMessages(history []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	appendUser := func(blocks ...anthropic.ContentBlockParamUnion) {
		if n := len(messages); n > 0 && messages[n-1].Role == anthropic.MessageParamRoleUser {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			return
		}
		messages = append(messages, anthropic.NewUserMessage(blocks...))
	}

	for _, msg := range history {
		switch msg.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text := msg.Text(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, call := range msg.ToolCalls {
				args := call.Arguments
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, args, call.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		case core.RoleTool:
			appendUser(anthropic.NewToolResultBlock(msg.ToolCallID, msg.Text(), msg.IsError))
		default:
			if text := msg.Text(); text != "" {
				appendUser(anthropic.NewTextBlock(text))
			}
		}
	}

	return messages
}

// buildTools converts tool definitions to Anthropic tool format.
func buildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if def.Parameters != nil {
			if properties, ok := def.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			inputSchema.Required = util.RequiredFields(def.Parameters)
		}

		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Name)
		if def.Description != "" {
			tools[i].OfTool.Description = anthropic.String(def.Description)
		}
	}
	return tools
}

func inputJSON(input any) string {
	if input == nil {
		return ""
	}
	if raw, ok := input.(json.RawMessage); ok {
		return string(raw)
	}
	b, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return string(b)
}
