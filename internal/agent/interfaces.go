package agent

import (
	"context"

	"github.com/mfigueredo/taskbutler/internal/provider/openrouter"
	"github.com/mfigueredo/taskbutler/internal/tools"
)

// LLMProvider makes chat completion calls to a language model.
// The openrouter client satisfies this interface.
type LLMProvider interface {
	ChatCompletion(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
}

// ToolExecutor dispatches tool calls and lists available tools.
// The tools.Registry satisfies this interface.
type ToolExecutor interface {
	Execute(ctx context.Context, call tools.Call) tools.Result
	Definitions() []tools.Definition
}
