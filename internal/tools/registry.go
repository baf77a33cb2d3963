package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds registered tools and dispatches model-requested calls.
// Arguments are parsed and validated at this boundary: a malformed or
// schema-violating call produces an error result, never a failed dispatch.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool. Returns an error if the name is empty or taken.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.logger.Debug("tool registered", "tool", name)
	return nil
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns the schema list for every registered tool, sorted by
// name so the request payload is stable across calls.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute dispatches one call. Every failure mode — unknown tool, argument
// parse failure, schema violation, execution error — comes back as an error
// result so the model can react; Execute itself never fails.
func (r *Registry) Execute(ctx context.Context, call Call) Result {
	t := r.Get(call.Name)
	if t == nil {
		return errorResult(call, fmt.Sprintf("unknown tool %q", call.Name))
	}

	args := Args{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return errorResult(call, fmt.Sprintf("invalid arguments: %s", err))
		}
	}

	if err := validateArgs(args, t.Parameters()); err != nil {
		return errorResult(call, fmt.Sprintf("invalid arguments: %s", err))
	}

	result, err := t.Execute(ctx, args)
	if err != nil {
		r.logger.Error("tool execute failed", "tool", call.Name, "call_id", call.ID, "err", err)
		return errorResult(call, fmt.Sprintf("error: %s", err))
	}

	result.ToolCallID = call.ID
	result.Name = call.Name
	return result
}

func errorResult(call Call, msg string) Result {
	return Result{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    msg,
		IsError:    true,
	}
}
