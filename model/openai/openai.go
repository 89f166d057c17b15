// Package openai provides the local-engine implementation of model.Backend.
// It speaks the OpenAI Chat Completions API, which self-hosted engines such as
// Ollama, vLLM or llama.cpp serve under /v1, and adapts bleater's normalized
// messages into the SDK's message format and back.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultBaseURL points at a local Ollama instance.
	DefaultBaseURL = "http://127.0.0.1:11434/v1/"
	// DefaultNumCtx is the context window requested from the engine.
	DefaultNumCtx = 16384
	// localAPIKey is sent when none is configured; local engines ignore it.
	localAPIKey = "ollama"
)

// Options configure the local-engine adapter.
type Options struct {
	Model       string
	BaseURL     string
	APIKey      string
	NumCtx      int // context window size, sent as options.num_ctx; 0 disables
	Temperature float64
	Logger      logging.Logger
}

// Model wraps an OpenAI-compatible chat completion service behind model.Backend.
type Model struct {
	client *openai.Client
	opts   Options
}

var _ model.Backend = (*Model)(nil)

func defaultOptions() Options {
	return Options{
		BaseURL:     DefaultBaseURL,
		NumCtx:      DefaultNumCtx,
		Temperature: 0.7,
		Logger:      logging.NoOpLogger{},
	}
}

// NewModel creates a local-engine model with its own client. It fails with
// core.ErrConfiguration when no model identifier is configured.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = localAPIKey
	}
	client := openai.NewClient(option.WithBaseURL(opts.BaseURL), option.WithAPIKey(apiKey))

	return newModel(&client, opts)
}

// NewModelFromClient creates a local-engine model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newModel(client, opts)
}

func newModel(client *openai.Client, opts Options) (*Model, error) {
	if opts.Model == "" {
		return nil, core.NewConfigurationError("openai", "Model")
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Model{client: client, opts: opts}, nil
}

// Converse implements model.Backend.
func (m *Model) Converse(ctx context.Context, req model.Request) (*model.Response, error) {
	params := m.buildParams(req.Messages)
	params.Tools = buildTools(req.Tools)

	resp, err := m.complete(ctx, "converse", params)
	if err != nil {
		return nil, err
	}

	ch0 := resp.Choices[0]
	out := &model.Response{
		Content:      ch0.Message.Content,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	for _, tc := range ch0.Message.ToolCalls {
		args, err := model.UnmarshalArgs(tc.Function.Arguments)
		if err != nil {
			m.opts.Logger.Warn("model.tool_call.bad_arguments", "provider", "openai", "tool", tc.Function.Name, "error", err.Error())
		}
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:        model.CallID(tc.ID),
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return out, nil
}

// Decide implements model.Backend. The decision schema is sent as a strict
// json_schema response format and the returned text is parsed against it.
func (m *Model) Decide(ctx context.Context, history []core.Message, schema model.Schema) (any, error) {
	params := m.buildParams(history)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        schema.Name,
				Description: openai.String(schema.Description),
				Schema:      schema.JSON,
				Strict:      openai.Bool(true),
			},
		},
	}

	resp, err := m.complete(ctx, "decide", params)
	if err != nil {
		return nil, err
	}

	return model.ParseDecision(schema, []byte(resp.Choices[0].Message.Content))
}

// Info returns metadata describing this adapter.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai"}
}

func (m *Model) complete(ctx context.Context, mode string, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	m.logPayload("model.request", mode, params)

	resp, err := m.client.Chat.Completions.New(ctx, params, m.requestOptions()...)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	m.opts.Logger.Debug("model.response", "provider", "openai", "mode", mode, "payload", resp.RawJSON())

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}

	return resp, nil
}

// requestOptions adds engine specific body fields the SDK has no params for.
func (m *Model) requestOptions() []option.RequestOption {
	if m.opts.NumCtx <= 0 {
		return nil
	}
	return []option.RequestOption{
		option.WithJSONSet("options", map[string]any{"num_ctx": m.opts.NumCtx}),
	}
}

func (m *Model) logPayload(msg, mode string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	m.opts.Logger.Debug(msg, "provider", "openai", "mode", mode, "model", m.opts.Model, "payload", string(b))
}

// buildParams converts the history into chat completion parameters.
func (m *Model) buildParams(history []core.Message) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Messages:    buildMessages(history),
		Model:       m.opts.Model,
		Temperature: openai.Float(m.opts.Temperature),
	}
}

// buildMessages maps roles one to one. Assistant messages carry their tool
// calls and tool messages reference the call they answer.
func buildMessages(history []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		text := msg.Text()
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(text))
		case core.RoleAssistant:
			if !msg.HasToolCalls() {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: buildToolCalls(msg.ToolCalls),
			}
			if text != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(text),
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(text, msg.ToolCallID))
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}
	return messages
}

func buildToolCalls(calls []core.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	out := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
	for i, call := range calls {
		out[i] = openai.ChatCompletionMessageToolCallParam{
			ID:   call.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: model.MarshalArgs(call.Arguments),
			},
		}
	}
	return out
}

// buildTools converts tool definitions into function tools.
func buildTools(defs []model.ToolDefinition) []openai.ChatCompletionToolParam {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, def := range defs {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  def.Parameters,
			},
		}
	}
	return tools
}
