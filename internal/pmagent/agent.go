package pmagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mfigueredo/taskbutler/internal/agent"
	"github.com/mfigueredo/taskbutler/internal/tools"
)

const systemPrompt = `You are a project management assistant working against an OpenProject instance.
Use the available tools to answer the task. When only a project name is known,
resolve it to its numeric ID with find_project before listing or creating work
packages. Answer concisely in plain text; include IDs so the user can refer
back to specific items.`

// AgentTool exposes the whole OpenProject tool set to the outer bot as one
// tool. Each invocation spins up a fresh registry scoped to the project
// tools and a fresh loop; the nested agent never sees the outer registry,
// so it cannot call itself.
type AgentTool struct {
	provider agent.LLMProvider
	api      API
	model    string
	maxTurns int
	logger   *slog.Logger
}

// AgentOption configures an AgentTool.
type AgentOption func(*AgentTool)

// WithLogger sets the structured logger for the nested agent.
func WithLogger(l *slog.Logger) AgentOption {
	return func(t *AgentTool) {
		t.logger = l
	}
}

// NewAgentTool creates the nested project-management agent tool.
func NewAgentTool(provider agent.LLMProvider, api API, model string, maxTurns int, opts ...AgentOption) *AgentTool {
	t := &AgentTool{
		provider: provider,
		api:      api,
		model:    model,
		maxTurns: maxTurns,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *AgentTool) Name() string { return "project_agent" }

func (t *AgentTool) Description() string {
	return "Delegate a project-management task to an agent with full OpenProject access: list projects, search, create and update work packages, look up types, statuses and users. Describe the task in plain words."
}

func (t *AgentTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"task": {
				"type": "string",
				"description": "The project-management task to carry out, in plain words"
			}
		},
		"required": ["task"]
	}`)
}

// Execute runs the nested loop to completion and wraps the final text with a
// short provenance footer so the outer answer shows what the delegation cost.
func (t *AgentTool) Execute(ctx context.Context, args tools.Args) (tools.Result, error) {
	task := strings.TrimSpace(args.String("task"))
	if task == "" {
		return tools.Result{Content: "task must not be empty", IsError: true}, nil
	}

	session := uuid.NewString()
	log := t.logger.With("session", session, "tool", t.Name())
	log.Info("nested agent start", "task", task)

	registry, err := t.buildRegistry(log)
	if err != nil {
		return tools.Result{}, fmt.Errorf("build nested registry: %w", err)
	}

	loop := agent.NewLoop(t.provider, registry, agent.Config{
		Model:        t.model,
		MaxTurns:     t.maxTurns,
		SystemPrompt: systemPrompt,
	}, agent.WithLogger(log))

	result, err := loop.Run(ctx, agent.Task{Description: task})
	if err != nil {
		log.Error("nested agent failed", "err", err)
		return tools.Result{}, fmt.Errorf("project agent: %w", err)
	}

	log.Info("nested agent done", "turns", result.TurnsUsed, "tool_calls", len(result.Calls))

	footer := fmt.Sprintf("\n\n(project agent: %d iterations, %d tool calls)", result.TurnsUsed, len(result.Calls))
	return tools.Result{Content: result.Response + footer}, nil
}

// buildRegistry populates a fresh registry with only the project tools.
func (t *AgentTool) buildRegistry(log *slog.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry(log)
	for _, tool := range []tools.Tool{
		NewListProjectsTool(t.api),
		NewFindProjectTool(t.api),
		NewListWorkPackagesTool(t.api),
		NewGetWorkPackageTool(t.api),
		NewCreateWorkPackageTool(t.api),
		NewUpdateWorkPackageTool(t.api),
		NewListTypesTool(t.api),
		NewListStatusesTool(t.api),
		NewListUsersTool(t.api),
	} {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
