package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfigueredo/taskbutler/internal/provider/openrouter"
	"github.com/mfigueredo/taskbutler/internal/tools"
)

const (
	// summaryExtraTurns is how many iterations the loop allows after forcing
	// the model to summarize instead of calling more tools.
	summaryExtraTurns = 2

	// followUpExtraTurns is the one-time budget extension granted when a tool
	// result signals that a follow-up call is expected (e.g. a search that
	// resolved an identifier a listing call will consume).
	followUpExtraTurns = 2
)

const summaryPrompt = "You have used up your tool budget. Do not request any more tools. " +
	"Write a final answer summarizing what you found so far."

const exhaustedNotice = "I ran out of steps before finishing this task. The results gathered so far are above."

// Loop executes the agent cycle: request a completion, execute any requested
// tools in the order the model issued them, feed results back, repeat.
// The same struct powers the outer conversation pipeline and nested agents —
// different config and registry, same loop.
type Loop struct {
	provider LLMProvider
	executor ToolExecutor
	config   Config
	logger   *slog.Logger
}

// LoopOption configures optional Loop parameters.
type LoopOption func(*Loop)

// WithLogger sets the structured logger for the loop.
func WithLogger(l *slog.Logger) LoopOption {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// NewLoop creates an agent loop with the given dependencies.
func NewLoop(provider LLMProvider, executor ToolExecutor, config Config, opts ...LoopOption) *Loop {
	l := &Loop{
		provider: provider,
		executor: executor,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes the loop until the model returns plain text, the budget (plus
// any extensions) is exhausted, or the provider fails. The returned Result
// always carries non-empty text unless the error is non-nil.
//
// Tool failures never abort the run: the executor converts them into error
// results the model sees on the next turn. Only a provider failure
// propagates, and the caller maps it to a user-facing message.
func (l *Loop) Run(ctx context.Context, task Task) (*Result, error) {
	log := l.logger.With("model", l.config.Model)

	messages := l.seedMessages(task)
	budget := l.config.MaxTurns
	summaryForced := false
	extended := false

	result := &Result{}

	for turn := 0; ; turn++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if turn >= budget {
			if summaryForced {
				// The summary phase ran out too. Return what we have.
				log.Warn("budget exhausted after summary phase", "turns", turn)
				result.Response = exhaustedNotice
				result.TurnsUsed = turn
				return result, nil
			}
			summaryForced = true
			budget = turn + summaryExtraTurns
			messages = append(messages, openrouter.Message{Role: "user", Content: summaryPrompt})
			log.Info("forcing final summary", "turn", turn, "extended_budget", budget)
		}

		req := openrouter.ChatRequest{
			Model:    l.config.Model,
			Messages: messages,
		}
		// The summary phase offers no tools, so the model cannot keep calling.
		if !summaryForced {
			req.Tools = toWireDefinitions(l.executor.Definitions())
		}

		log.Debug("llm call", "turn", turn, "messages", len(messages))

		resp, err := l.provider.ChatCompletion(ctx, req)
		if err != nil {
			result.TurnsUsed = turn
			return result, fmt.Errorf("llm call failed on turn %d: %w", turn, err)
		}

		result.Usage.PromptTokens += resp.Usage.PromptTokens
		result.Usage.CompletionTokens += resp.Usage.CompletionTokens
		result.Usage.TotalTokens += resp.Usage.TotalTokens

		msg := resp.Choices[0].Message

		// Text response with no tool calls → done.
		if len(msg.ToolCalls) == 0 {
			text := strings.TrimSpace(msg.Content)
			if text == "" {
				text = exhaustedNotice
			}
			result.Response = text
			result.TurnsUsed = turn + 1
			log.Info("text response", "turns", result.TurnsUsed, "tool_calls", len(result.Calls))
			return result, nil
		}

		// Tool-request turn: append the assistant message, then execute every
		// requested call sequentially in the order the model issued them.
		messages = append(messages, msg)

		followUp := false
		for _, tc := range msg.ToolCalls {
			call := tools.Call{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
			log.Info("tool execute", "tool", call.Name, "call_id", call.ID, "turn", turn)

			res := l.executor.Execute(ctx, call)
			if res.FollowUpExpected {
				followUp = true
			}

			result.Calls = append(result.Calls, call)
			result.Results = append(result.Results, res)
			messages = append(messages, openrouter.Message{
				Role:       "tool",
				Content:    res.Content,
				ToolCallID: res.ToolCallID,
			})
		}

		if followUp && !extended && !summaryForced {
			extended = true
			budget += followUpExtraTurns
			log.Info("follow-up expected, extending budget", "budget", budget)
		}
	}
}

// seedMessages builds the initial conversation for a run. A pre-assembled
// window wins over a plain task description; context is appended after the
// task within the same user message.
func (l *Loop) seedMessages(task Task) []openrouter.Message {
	messages := make([]openrouter.Message, 0, len(task.Messages)+2)
	messages = append(messages, openrouter.Message{
		Role:    "system",
		Content: l.config.SystemPrompt,
	})

	if len(task.Messages) > 0 {
		return append(messages, task.Messages...)
	}

	content := task.Description
	if task.Context != "" {
		content += "\n\n" + task.Context
	}
	return append(messages, openrouter.Message{Role: "user", Content: content})
}

// toWireDefinitions converts registry definitions to the wire envelope.
func toWireDefinitions(defs []tools.Definition) []openrouter.ToolDefinition {
	if len(defs) == 0 {
		return nil
	}
	wire := make([]openrouter.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		wire = append(wire, openrouter.FunctionTool(d.Name, d.Description, d.Parameters))
	}
	return wire
}
