package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// mockTool is a simple Tool implementation for testing.
type mockTool struct {
	name   string
	schema json.RawMessage
	result Result
	err    error
	called int
	seen   Args
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Description() string { return "mock tool" }
func (m *mockTool) Parameters() json.RawMessage {
	if m.schema != nil {
		return m.schema
	}
	return json.RawMessage(`{}`)
}
func (m *mockTool) Execute(_ context.Context, args Args) (Result, error) {
	m.called++
	m.seen = args
	return m.result, m.err
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(nil)

	tool := &mockTool{name: "TestTool"}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := r.Register(tool); err == nil {
		t.Fatal("Register() should fail on duplicate")
	}

	if err := r.Register(&mockTool{name: ""}); err == nil {
		t.Fatal("Register() should fail on empty name")
	}
}

func TestRegistry_Definitions_Sorted(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&mockTool{name: "zeta"})
	r.Register(&mockTool{name: "alpha"})
	r.Register(&mockTool{name: "mid"})

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("Definitions() returned %d, want 3", len(defs))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("Definitions()[%d] = %q, want %q", i, d.Name, want[i])
		}
	}
}

func TestRegistry_Execute_UnknownTool(t *testing.T) {
	r := NewRegistry(nil)

	result := r.Execute(context.Background(), Call{ID: "c1", Name: "NoSuchTool", Arguments: `{}`})
	if !result.IsError {
		t.Error("result.IsError should be true for unknown tool")
	}
	if result.ToolCallID != "c1" {
		t.Errorf("ToolCallID = %q, want c1", result.ToolCallID)
	}
}

func TestRegistry_Execute_MalformedArguments(t *testing.T) {
	tool := &mockTool{name: "TestTool"}
	r := NewRegistry(nil)
	r.Register(tool)

	result := r.Execute(context.Background(), Call{ID: "c1", Name: "TestTool", Arguments: `{not json`})
	if !result.IsError {
		t.Error("result.IsError should be true for malformed arguments")
	}
	if tool.called != 0 {
		t.Error("tool should not execute on malformed arguments")
	}
}

func TestRegistry_Execute_SchemaValidation(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"limit": {"type": "integer"}
		},
		"required": ["query"]
	}`)

	tests := []struct {
		name      string
		arguments string
		wantErr   bool
	}{
		{"valid", `{"query": "find x", "limit": 3}`, false},
		{"missing required", `{"limit": 3}`, true},
		{"wrong type", `{"query": 42}`, true},
		{"non-integer number", `{"query": "x", "limit": 1.5}`, true},
		{"extra field passes", `{"query": "x", "unknown": true}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &mockTool{name: "Search", schema: schema, result: Result{Content: "ok"}}
			r := NewRegistry(nil)
			r.Register(tool)

			result := r.Execute(context.Background(), Call{ID: "c1", Name: "Search", Arguments: tt.arguments})
			if result.IsError != tt.wantErr {
				t.Errorf("IsError = %v, want %v (content: %s)", result.IsError, tt.wantErr, result.Content)
			}
			if !tt.wantErr && tool.called != 1 {
				t.Errorf("tool.called = %d, want 1", tool.called)
			}
		})
	}
}

func TestRegistry_Execute_ToolErrorBecomesResult(t *testing.T) {
	tool := &mockTool{name: "Flaky", err: errors.New("backend unreachable")}
	r := NewRegistry(nil)
	r.Register(tool)

	result := r.Execute(context.Background(), Call{ID: "c1", Name: "Flaky", Arguments: `{}`})
	if !result.IsError {
		t.Error("result.IsError should be true when tool returns an error")
	}
	if !strings.HasPrefix(result.Content, "error: ") {
		t.Errorf("Content = %q, want error-prefixed string", result.Content)
	}
}

func TestRegistry_Execute_SetsCallCorrelation(t *testing.T) {
	tool := &mockTool{name: "Echo", result: Result{Content: "hi"}}
	r := NewRegistry(nil)
	r.Register(tool)

	result := r.Execute(context.Background(), Call{ID: "call-42", Name: "Echo", Arguments: `{"a":"b"}`})
	if result.ToolCallID != "call-42" {
		t.Errorf("ToolCallID = %q, want call-42", result.ToolCallID)
	}
	if result.Name != "Echo" {
		t.Errorf("Name = %q, want Echo", result.Name)
	}
	if tool.seen.String("a") != "b" {
		t.Errorf("tool received args %+v, want a=b", tool.seen)
	}
}
