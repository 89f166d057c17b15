package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/model"
	"github.com/hupe1980/bleater/platform"
	"github.com/hupe1980/bleater/tool"
)

// SystemData is the data the system prompt template is rendered with.
type SystemData struct {
	Name              string
	Description       string
	Feed              []platform.Post
	Notifications     []platform.Notification
	ActionsPerSession int
	Mode              string
	AllowFinish       bool
}

// UserData is the data the per-round prompt template is rendered with.
type UserData struct {
	Name  string
	Round int
	Total int
}

func (p *Persona) renderSystem(ctx context.Context) (string, error) {
	feed, err := p.platform.RecentFeed(ctx)
	if err != nil {
		p.logger.Warn("persona.context.feed_error", "error", err.Error())
		feed = nil
	}

	notifications, err := p.platform.Notifications(ctx, p.userID)
	if err != nil {
		p.logger.Warn("persona.context.notifications_error", "error", err.Error())
		notifications = nil
	}

	text, err := p.opts.SystemPrompt.Render(SystemData{
		Name:              p.name,
		Description:       p.description,
		Feed:              feed,
		Notifications:     notifications,
		ActionsPerSession: p.opts.ActionsPerSession,
		Mode:              string(p.opts.Mode),
		AllowFinish:       p.opts.AllowFinish,
	})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}

	return text, nil
}

func (p *Persona) appendUserPrompt(round int) error {
	text, err := p.opts.UserPrompt.Render(UserData{
		Name:  p.name,
		Round: round,
		Total: p.opts.ActionsPerSession,
	})
	if err != nil {
		return fmt.Errorf("render user prompt: %w", err)
	}
	p.history = append(p.history, core.NewUserMessage(text))
	return nil
}

// converseRound runs one free-form round. A backend failure truncates the
// history back to where the round started.
func (p *Persona) converseRound(ctx context.Context, backend model.Backend, round int, report *SessionReport) error {
	mark := len(p.history)
	if err := p.appendUserPrompt(round); err != nil {
		return err
	}

	resp, err := backend.Converse(ctx, model.Request{
		Messages: core.CloneMessages(p.history),
		Tools:    p.registry.Definitions(),
	})
	if err != nil {
		p.history = p.history[:mark]
		return fmt.Errorf("round %d: converse: %w", round, err)
	}

	calls := make([]core.ToolCall, len(resp.ToolCalls))
	for i, call := range resp.ToolCalls {
		call.ID = model.CallID(call.ID)
		calls[i] = call
	}
	p.history = append(p.history, core.NewAssistantMessage(resp.Content, calls...))

	if resp.Content != "" {
		p.logger.Debug("persona.round.text", "round", round, "content", resp.Content)
	}

	for _, call := range calls {
		p.dispatch(ctx, call, report)
	}

	return nil
}

// decideRound runs one structured round: a single decided action is recorded
// as an assistant message mirroring it as a tool call, then dispatched.
func (p *Persona) decideRound(ctx context.Context, backend model.Backend, round int, report *SessionReport) error {
	mark := len(p.history)
	if err := p.appendUserPrompt(round); err != nil {
		return err
	}

	schema := model.ActionSchema(p.opts.AllowFinish)
	value, err := backend.Decide(ctx, core.CloneMessages(p.history), schema)
	if err != nil {
		p.history = p.history[:mark]
		return fmt.Errorf("round %d: decide: %w", round, err)
	}

	action, ok := value.(core.Action)
	if !ok {
		p.history = p.history[:mark]
		return fmt.Errorf("round %d: decide: %w", round, &core.SchemaViolationError{
			Schema: schema.Name,
			Raw:    fmt.Sprintf("%v", value),
			Err:    fmt.Errorf("decision of type %T is not an action", value),
		})
	}

	raw, err := core.EncodeDecision(action)
	if err != nil {
		p.history = p.history[:mark]
		return fmt.Errorf("round %d: encode decision: %w", round, err)
	}

	call := core.AsToolCall(model.CallID(""), action)
	msg := core.NewAssistantMessage(string(raw), call)
	msg.Value = action
	p.history = append(p.history, msg)

	p.logger.Debug("persona.round.decision", "round", round, "action", string(action.Type()))
	p.dispatch(ctx, call, report)

	return nil
}

// dispatch runs one tool call and appends exactly one tool message for it.
// Tool failures are reported to the model, not to the caller.
func (p *Persona) dispatch(ctx context.Context, call core.ToolCall, report *SessionReport) {
	report.ToolCalls++

	result, err := p.registry.Invoke(ctx, call)
	if err != nil {
		report.ToolErrors++
		level := p.logger.Warn
		if errors.Is(err, core.ErrUnknownTool) {
			level = p.logger.Info
		}
		level("tool.call.error", "tool", call.Name, "call_id", call.ID, "error", err.Error())
		p.history = append(p.history, core.NewToolErrorMessage(call, err))
		return
	}

	text := tool.ResultText(result)
	p.logger.Debug("tool.call.result", "tool", call.Name, "call_id", call.ID, "result", text)
	p.history = append(p.history, core.NewToolResultMessage(call, text))
}
