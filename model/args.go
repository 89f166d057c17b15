package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CallID returns id, or a fresh identifier when the backend supplied none.
// Every tool call needs an ID so its tool message can be paired with it.
func CallID(id string) string {
	if id != "" {
		return id
	}
	return "call_" + uuid.NewString()
}

// MarshalArgs renders tool arguments as the JSON text some SDKs expect.
func MarshalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// UnmarshalArgs decodes JSON tool arguments. Invalid or empty input yields an
// empty map so the tool's own validation reports the missing fields.
func UnmarshalArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
