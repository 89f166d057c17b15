package core

import "fmt"

// TranscriptError describes the first ordering rule a history breaks.
type TranscriptError struct {
	Index  int
	Reason string
}

func (e *TranscriptError) Error() string {
	return fmt.Sprintf("invalid transcript at message %d: %s", e.Index, e.Reason)
}

// ValidateTranscript checks the ordering rules backends depend on:
//
//   - the history starts with exactly one system message
//   - every assistant message proposing N tool calls is immediately followed
//     by N tool messages answering those calls in order
//   - tool messages never appear anywhere else
func ValidateTranscript(history []Message) error {
	if len(history) == 0 {
		return &TranscriptError{Index: 0, Reason: "empty history"}
	}
	if history[0].Role != RoleSystem {
		return &TranscriptError{Index: 0, Reason: "first message is not a system message"}
	}

	for i := 1; i < len(history); i++ {
		msg := history[i]
		switch msg.Role {
		case RoleSystem:
			return &TranscriptError{Index: i, Reason: "additional system message"}
		case RoleTool:
			return &TranscriptError{Index: i, Reason: "tool message without preceding tool call"}
		case RoleAssistant:
			for j, call := range msg.ToolCalls {
				k := i + 1 + j
				if k >= len(history) {
					return &TranscriptError{Index: k, Reason: fmt.Sprintf("missing tool message for call %q", call.Name)}
				}
				reply := history[k]
				if reply.Role != RoleTool {
					return &TranscriptError{Index: k, Reason: fmt.Sprintf("expected tool message for call %q, got %s", call.Name, reply.Role)}
				}
				if reply.ToolCallID != call.ID || reply.ToolName != call.Name {
					return &TranscriptError{Index: k, Reason: fmt.Sprintf("tool message answers %q/%q, expected %q/%q", reply.ToolName, reply.ToolCallID, call.Name, call.ID)}
				}
			}
			i += len(msg.ToolCalls)
		}
	}

	return nil
}
