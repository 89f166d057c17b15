package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ActionType discriminates the Action variants. Each value doubles as the
// name of the registry tool that carries the action out.
type ActionType string

const (
	// ActionSubmitPost starts a new thread.
	ActionSubmitPost ActionType = "submit_post"
	// ActionSubmitReply answers an existing post.
	ActionSubmitReply ActionType = "submit_reply"
	// ActionViewThread reads a thread.
	ActionViewThread ActionType = "view_thread"
	// ActionFinishSession ends the session early.
	ActionFinishSession ActionType = "finish_session"
)

// Action is the single decision a structured-mode backend emits per round.
// The variant set is closed: SubmitPost, SubmitReply, ViewThread and the
// optional FinishSession.
type Action interface {
	// Type returns the variant discriminator.
	Type() ActionType
	// Arguments returns the action fields keyed by their wire names.
	Arguments() map[string]any

	isAction()
}

// SubmitPost starts a new thread.
type SubmitPost struct {
	Kind    ActionType `json:"type" jsonschema:"enum=submit_post"`
	Content string     `json:"content" jsonschema:"description=Text of the new post"`
}

// NewSubmitPost constructs a SubmitPost action.
func NewSubmitPost(content string) SubmitPost {
	return SubmitPost{Kind: ActionSubmitPost, Content: content}
}

// Type implements Action.
func (SubmitPost) Type() ActionType { return ActionSubmitPost }

// Arguments implements Action.
func (a SubmitPost) Arguments() map[string]any { return map[string]any{"content": a.Content} }

func (SubmitPost) isAction() {}

// SubmitReply answers an existing post.
type SubmitReply struct {
	Kind           ActionType `json:"type" jsonschema:"enum=submit_reply"`
	OriginalPostID string     `json:"original_post_id" jsonschema:"description=ID of the post being answered"`
	Content        string     `json:"content" jsonschema:"description=Text of the reply"`
}

// NewSubmitReply constructs a SubmitReply action.
func NewSubmitReply(originalPostID, content string) SubmitReply {
	return SubmitReply{Kind: ActionSubmitReply, OriginalPostID: originalPostID, Content: content}
}

// Type implements Action.
func (SubmitReply) Type() ActionType { return ActionSubmitReply }

// Arguments implements Action.
func (a SubmitReply) Arguments() map[string]any {
	return map[string]any{"original_post_id": a.OriginalPostID, "content": a.Content}
}

func (SubmitReply) isAction() {}

// ViewThread reads a post together with its replies.
type ViewThread struct {
	Kind           ActionType `json:"type" jsonschema:"enum=view_thread"`
	OriginalPostID string     `json:"original_post_id" jsonschema:"description=ID of the thread root post"`
}

// NewViewThread constructs a ViewThread action.
func NewViewThread(originalPostID string) ViewThread {
	return ViewThread{Kind: ActionViewThread, OriginalPostID: originalPostID}
}

// Type implements Action.
func (ViewThread) Type() ActionType { return ActionViewThread }

// Arguments implements Action.
func (a ViewThread) Arguments() map[string]any {
	return map[string]any{"original_post_id": a.OriginalPostID}
}

func (ViewThread) isAction() {}

// FinishSession ends the current session before its action budget is spent.
type FinishSession struct {
	Kind ActionType `json:"type" jsonschema:"enum=finish_session"`
}

// NewFinishSession constructs a FinishSession action.
func NewFinishSession() FinishSession { return FinishSession{Kind: ActionFinishSession} }

// Type implements Action.
func (FinishSession) Type() ActionType { return ActionFinishSession }

// Arguments implements Action. FinishSession has no fields.
func (FinishSession) Arguments() map[string]any { return map[string]any{} }

func (FinishSession) isAction() {}

// AsToolCall mirrors an action as the tool call that dispatches it.
func AsToolCall(id string, a Action) ToolCall {
	return ToolCall{ID: id, Name: string(a.Type()), Arguments: a.Arguments()}
}

// EncodeDecision renders an action in its wire envelope:
//
//	{"action": {"type": "submit_reply", "original_post_id": "p1", "content": "ok"}}
func EncodeDecision(a Action) ([]byte, error) {
	if a == nil {
		return nil, errors.New("nil action")
	}
	body := a.Arguments()
	body["type"] = a.Type()
	return json.Marshal(map[string]any{"action": body})
}

// ParseDecision decodes the wire envelope produced by a structured backend.
// Missing or empty required fields are rejected so a decision is always
// dispatchable once parsed.
func ParseDecision(raw []byte) (Action, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty decision")
	}

	var envelope struct {
		Action json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}
	if len(envelope.Action) == 0 || string(envelope.Action) == "null" {
		return nil, errors.New("decision has no action")
	}

	var probe struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(envelope.Action, &probe); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch probe.Type {
	case ActionSubmitPost:
		var a SubmitPost
		if err := json.Unmarshal(envelope.Action, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
		}
		if err := requireField("content", a.Content); err != nil {
			return nil, err
		}
		return a, nil
	case ActionSubmitReply:
		var a SubmitReply
		if err := json.Unmarshal(envelope.Action, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
		}
		if err := requireField("original_post_id", a.OriginalPostID); err != nil {
			return nil, err
		}
		if err := requireField("content", a.Content); err != nil {
			return nil, err
		}
		return a, nil
	case ActionViewThread:
		var a ViewThread
		if err := json.Unmarshal(envelope.Action, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
		}
		if err := requireField("original_post_id", a.OriginalPostID); err != nil {
			return nil, err
		}
		return a, nil
	case ActionFinishSession:
		return NewFinishSession(), nil
	case "":
		return nil, errors.New("action has no type")
	default:
		return nil, fmt.Errorf("unknown action type %q", probe.Type)
	}
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("field %q is required", name)
	}
	return nil
}
