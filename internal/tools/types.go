// Package tools defines the tool interface, the registry that dispatches
// model-requested invocations, and the native tool implementations.
package tools

import (
	"context"
	"encoding/json"
)

// Call represents a tool invocation requested by the model.
type Call struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string, opaque until validated
}

// Result is the output of a tool execution, sent back to the model.
type Result struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`

	// FollowUpExpected marks a result that resolved an identifier a
	// subsequent tool call is expected to consume. The agent loop may
	// grant extra iterations when it sees this.
	FollowUpExpected bool `json:"-"`
}

// Definition describes a tool to the model.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Args holds a tool call's arguments after parsing and schema validation.
type Args map[string]any

// String returns the string value for key, or "" when absent or not a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the integer value for key, or def when absent or not numeric.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// Bool returns the boolean value for key, or false when absent.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Decode deserializes the arguments into a concrete struct via JSON.
func (a Args) Decode(v any) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Tool is the interface all native tools implement. Execute receives
// arguments already validated against the tool's declared schema.
type Tool interface {
	// Name returns the tool's unique identifier.
	Name() string
	// Description returns a human-readable description for the model.
	Description() string
	// Parameters returns the JSON Schema for the tool's parameters.
	Parameters() json.RawMessage
	// Execute runs the tool and returns a result.
	Execute(ctx context.Context, args Args) (Result, error)
}
