package pmagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mfigueredo/taskbutler/internal/tools"
)

// ListProjectsTool lists every project visible to the API key.
type ListProjectsTool struct {
	api API
}

func NewListProjectsTool(api API) *ListProjectsTool {
	return &ListProjectsTool{api: api}
}

func (t *ListProjectsTool) Name() string { return "list_projects" }

func (t *ListProjectsTool) Description() string {
	return "List all OpenProject projects with their IDs, identifiers and names."
}

func (t *ListProjectsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ListProjectsTool) Execute(ctx context.Context, _ tools.Args) (tools.Result, error) {
	projects, err := t.api.ListProjects(ctx)
	if err != nil {
		return tools.Result{}, err
	}
	if len(projects) == 0 {
		return tools.Result{Content: "No projects found."}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d projects:\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&b, "- #%d %s (%s)\n", p.ID, p.Name, p.Identifier)
	}
	return tools.Result{Content: b.String()}, nil
}

// FindProjectTool resolves a project name or identifier to its numeric ID.
// Its result marks a follow-up as expected: the model almost always feeds
// the resolved ID into a work-package tool next.
type FindProjectTool struct {
	api API
}

func NewFindProjectTool(api API) *FindProjectTool {
	return &FindProjectTool{api: api}
}

func (t *FindProjectTool) Name() string { return "find_project" }

func (t *FindProjectTool) Description() string {
	return "Find a project by name or identifier and return its numeric ID. Use this before listing or creating work packages when only the project name is known."
}

func (t *FindProjectTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {
				"type": "string",
				"description": "Project name or identifier to search for (case-insensitive substring match)"
			}
		},
		"required": ["query"]
	}`)
}

func (t *FindProjectTool) Execute(ctx context.Context, args tools.Args) (tools.Result, error) {
	query := strings.ToLower(strings.TrimSpace(args.String("query")))
	if query == "" {
		return tools.Result{Content: "query must not be empty", IsError: true}, nil
	}

	projects, err := t.api.ListProjects(ctx)
	if err != nil {
		return tools.Result{}, err
	}

	var matches []string
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Identifier), query) {
			matches = append(matches, fmt.Sprintf("#%d %s (%s)", p.ID, p.Name, p.Identifier))
		}
	}

	switch len(matches) {
	case 0:
		return tools.Result{Content: fmt.Sprintf("no project matches %q", query), IsError: true}, nil
	case 1:
		return tools.Result{
			Content:          "found project " + matches[0],
			FollowUpExpected: true,
		}, nil
	default:
		return tools.Result{
			Content:          fmt.Sprintf("%d projects match %q:\n%s", len(matches), query, strings.Join(matches, "\n")),
			FollowUpExpected: true,
		}, nil
	}
}
