// Package agent implements the bounded agent loop: prompt → LLM → tool calls
// → execute → repeat, until the model produces a plain-text answer or the
// iteration budget runs out. It is wired through consumer-defined interfaces
// (LLMProvider, ToolExecutor), making it independently testable.
package agent

import (
	"github.com/mfigueredo/taskbutler/internal/provider/openrouter"
	"github.com/mfigueredo/taskbutler/internal/tools"
)

// Task represents work for one loop invocation. Either Description (a plain
// task, optionally with Context appended in the same user message) or
// Messages (a pre-assembled conversation window) seeds the loop.
type Task struct {
	Description string
	Context     string
	Messages    []openrouter.Message
}

// Result represents the outcome of a loop run. Calls and Results hold the
// ordered tool activity across all turns, for the delivery layer to record.
type Result struct {
	Response  string
	TurnsUsed int
	Calls     []tools.Call
	Results   []tools.Result
	Usage     openrouter.TokenUsage
}

// Config configures a loop instance.
type Config struct {
	Model        string // OpenRouter model ID
	MaxTurns     int    // iteration budget before the summary phase
	SystemPrompt string
}
