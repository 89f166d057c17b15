// Package gemini provides the cloud-engine implementation of model.Backend on
// top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/model"
	"google.golang.org/genai"
)

// Options configure the cloud-engine adapter.
type Options struct {
	Model       string
	APIKey      string
	BaseURL     string // overrides the API endpoint, mostly for tests
	Temperature float32
	Logger      logging.Logger
}

// Model wraps the Gemini GenerateContent API behind model.Backend.
type Model struct {
	client *genai.Client
	opts   Options
}

var _ model.Backend = (*Model)(nil)

func defaultOptions() Options {
	return Options{
		Temperature: 0.7,
		Logger:      logging.NoOpLogger{},
	}
}

// NewModel creates a cloud-engine model with its own client. Both the model
// identifier and the API key are required.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Model == "" {
		return nil, core.NewConfigurationError("gemini", "Model")
	}
	if opts.APIKey == "" {
		return nil, core.NewConfigurationError("gemini", "APIKey")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return newModel(client, opts)
}

// NewModelFromClient creates a cloud-engine model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return newModel(client, opts)
}

func newModel(client *genai.Client, opts Options) (*Model, error) {
	if opts.Model == "" {
		return nil, core.NewConfigurationError("gemini", "Model")
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Model{client: client, opts: opts}, nil
}

// Converse implements model.Backend.
func (m *Model) Converse(ctx context.Context, req model.Request) (*model.Response, error) {
	system, contents := buildContents(req.Messages)
	config := m.baseConfig(system)
	if tools := buildTools(req.Tools); tools != nil {
		config.Tools = tools
	}

	resp, err := m.generate(ctx, "converse", contents, config)
	if err != nil {
		return nil, err
	}

	out := &model.Response{}
	cand := resp.Candidates[0]
	out.FinishReason = string(cand.FinishReason)
	if cand.Content != nil {
		var text strings.Builder
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if fc := part.FunctionCall; fc != nil {
				args := fc.Args
				if args == nil {
					args = map[string]any{}
				}
				out.ToolCalls = append(out.ToolCalls, core.ToolCall{
					ID:        model.CallID(fc.ID),
					Name:      fc.Name,
					Arguments: args,
				})
			}
		}
		out.Content = text.String()
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	return out, nil
}

// Decide implements model.Backend. The schema is sent as the response JSON
// schema with an application/json MIME type.
func (m *Model) Decide(ctx context.Context, history []core.Message, schema model.Schema) (any, error) {
	system, contents := buildContents(history)
	config := m.baseConfig(system)
	config.ResponseMIMEType = "application/json"
	config.ResponseJsonSchema = schema.JSON

	resp, err := m.generate(ctx, "decide", contents, config)
	if err != nil {
		return nil, err
	}

	return model.ParseDecision(schema, []byte(resp.Text()))
}

// Info returns metadata describing this adapter.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}

func (m *Model) baseConfig(system string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(m.opts.Temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return config
}

func (m *Model) generate(ctx context.Context, mode string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.logPayload("model.request", mode, map[string]any{"contents": contents, "config": config})

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	m.logPayload("model.response", mode, resp)

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini api error: no candidates returned")
	}

	return resp, nil
}

func (m *Model) logPayload(msg, mode string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	m.opts.Logger.Debug(msg, "provider", "gemini", "mode", mode, "model", m.opts.Model, "payload", string(b))
}

// buildContents splits the history into the system instruction and the
// content list. System messages are joined with blank lines. Consecutive tool
// messages collapse into a single user turn of function responses.
func buildContents(history []core.Message) (string, []*genai.Content) {
	var (
		system   []string
		contents []*genai.Content
		pending  []*genai.Part
	)

	flush := func() {
		if len(pending) > 0 {
			contents = append(contents, genai.NewContentFromParts(pending, genai.RoleUser))
			pending = nil
		}
	}

	for _, msg := range history {
		if msg.Role != core.RoleTool {
			flush()
		}

		switch msg.Role {
		case core.RoleSystem:
			if text := msg.Text(); text != "" {
				system = append(system, text)
			}
		case core.RoleAssistant:
			var parts []*genai.Part
			if text := msg.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, call := range msg.ToolCalls {
				part := genai.NewPartFromFunctionCall(call.Name, call.Arguments)
				part.FunctionCall.ID = call.ID
				parts = append(parts, part)
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case core.RoleTool:
			response := map[string]any{"output": msg.Text()}
			if msg.IsError {
				response = map[string]any{"error": msg.Text()}
			}
			part := genai.NewPartFromFunctionResponse(msg.ToolName, response)
			part.FunctionResponse.ID = msg.ToolCallID
			pending = append(pending, part)
		default:
			if text := msg.Text(); text != "" {
				contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
			}
		}
	}
	flush()

	return strings.Join(system, "\n\n"), contents
}

// buildTools declares every tool as a function with a raw JSON schema.
func buildTools(defs []model.ToolDefinition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(defs))
	for i, def := range defs {
		decls[i] = &genai.FunctionDeclaration{
			Name:                 def.Name,
			Description:          def.Description,
			ParametersJsonSchema: def.Parameters,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}
