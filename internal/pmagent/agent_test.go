package pmagent

import (
	"context"
	"strings"
	"testing"

	"github.com/mfigueredo/taskbutler/internal/openproject"
	"github.com/mfigueredo/taskbutler/internal/provider/openrouter"
	"github.com/mfigueredo/taskbutler/internal/tools"
)

// scriptedProvider returns canned responses in order; the last one repeats.
type scriptedProvider struct {
	responses []*openrouter.ChatResponse
	calls     int
	requests  []openrouter.ChatRequest
}

func (p *scriptedProvider) ChatCompletion(_ context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	p.requests = append(p.requests, req)
	p.calls++
	idx := p.calls - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return p.responses[idx], nil
}

func textResponse(text string) *openrouter.ChatResponse {
	return &openrouter.ChatResponse{
		Choices: []openrouter.Choice{{Message: openrouter.Message{Role: "assistant", Content: text}}},
	}
}

func toolResponse(callID, name, args string) *openrouter.ChatResponse {
	return &openrouter.ChatResponse{
		Choices: []openrouter.Choice{{Message: openrouter.Message{
			Role: "assistant",
			ToolCalls: []openrouter.ToolCall{{
				ID:       callID,
				Type:     "function",
				Function: openrouter.FunctionCall{Name: name, Arguments: args},
			}},
		}}},
	}
}

func TestAgentTool_PlainTextAddsProvenanceFooter(t *testing.T) {
	p := &scriptedProvider{responses: []*openrouter.ChatResponse{textResponse("There are 2 projects.")}}
	tool := NewAgentTool(p, &stubAPI{}, "test/model", 8)

	result, err := tool.Execute(context.Background(), tools.Args{"task": "list projects"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(result.Content, "There are 2 projects.") {
		t.Errorf("Content = %q", result.Content)
	}
	if !strings.Contains(result.Content, "project agent: 1 iterations, 0 tool calls") {
		t.Errorf("Content = %q, want provenance footer", result.Content)
	}
	if p.calls != 1 {
		t.Errorf("provider calls = %d, want 1: plain text must end the nested loop", p.calls)
	}
}

func TestAgentTool_RunsInnerToolsInvisibly(t *testing.T) {
	api := &stubAPI{projects: []openproject.Project{
		{ID: 1, Identifier: "infra", Name: "Infrastructure"},
		{ID: 2, Identifier: "web", Name: "Website"},
	}}
	p := &scriptedProvider{responses: []*openrouter.ChatResponse{
		toolResponse("c1", "list_projects", `{}`),
		textResponse("Infrastructure and Website."),
	}}
	tool := NewAgentTool(p, api, "test/model", 8)

	result, err := tool.Execute(context.Background(), tools.Args{"task": "what projects exist?"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	// The inner tool ran, but the outer world sees only one text result.
	if !strings.Contains(result.Content, "project agent: 2 iterations, 1 tool calls") {
		t.Errorf("Content = %q, want footer counting the inner call", result.Content)
	}
	if result.IsError {
		t.Errorf("result = %+v", result)
	}
}

func TestAgentTool_ScopedRegistryExcludesItself(t *testing.T) {
	p := &scriptedProvider{responses: []*openrouter.ChatResponse{textResponse("ok")}}
	tool := NewAgentTool(p, &stubAPI{}, "test/model", 8)

	if _, err := tool.Execute(context.Background(), tools.Args{"task": "anything"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, def := range p.requests[0].Tools {
		if def.Function.Name == tool.Name() {
			t.Fatal("nested registry must not contain the agent tool itself")
		}
	}
	if len(p.requests[0].Tools) == 0 {
		t.Fatal("nested registry must offer the project tools")
	}
}

func TestAgentTool_EmptyTask(t *testing.T) {
	tool := NewAgentTool(&scriptedProvider{}, &stubAPI{}, "test/model", 8)
	result, err := tool.Execute(context.Background(), tools.Args{"task": "  "})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Error("empty task should produce an error result")
	}
}
