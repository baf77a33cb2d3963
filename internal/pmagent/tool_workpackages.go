package pmagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mfigueredo/taskbutler/internal/openproject"
	"github.com/mfigueredo/taskbutler/internal/tools"
)

const defaultPageSize = 20

// ListWorkPackagesTool lists work packages, optionally scoped to a project,
// filtered by subject text, or restricted to open statuses.
type ListWorkPackagesTool struct {
	api API
}

func NewListWorkPackagesTool(api API) *ListWorkPackagesTool {
	return &ListWorkPackagesTool{api: api}
}

func (t *ListWorkPackagesTool) Name() string { return "list_work_packages" }

func (t *ListWorkPackagesTool) Description() string {
	return "List work packages (tasks, bugs, features). Filter by project ID, subject text, or open-only status."
}

func (t *ListWorkPackagesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"project_id": {
				"type": "integer",
				"description": "Numeric project ID to scope the listing to"
			},
			"subject": {
				"type": "string",
				"description": "Only work packages whose subject contains this text"
			},
			"open_only": {
				"type": "boolean",
				"description": "Only work packages in an open status"
			}
		}
	}`)
}

func (t *ListWorkPackagesTool) Execute(ctx context.Context, args tools.Args) (tools.Result, error) {
	var filters []openproject.Filter
	if id := args.Int("project_id", 0); id > 0 {
		filters = append(filters, openproject.ProjectFilter(strconv.Itoa(id)))
	}
	if subject := args.String("subject"); subject != "" {
		filters = append(filters, openproject.SubjectFilter(subject))
	}
	if args.Bool("open_only") {
		filters = append(filters, openproject.OpenFilter())
	}

	wps, err := t.api.ListWorkPackages(ctx, filters, defaultPageSize)
	if err != nil {
		return tools.Result{}, err
	}
	if len(wps) == 0 {
		return tools.Result{Content: "No work packages found."}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d work packages:\n", len(wps))
	for _, wp := range wps {
		b.WriteString(formatWorkPackageLine(wp))
	}
	return tools.Result{Content: b.String()}, nil
}

// GetWorkPackageTool fetches one work package by ID, including its description.
type GetWorkPackageTool struct {
	api API
}

func NewGetWorkPackageTool(api API) *GetWorkPackageTool {
	return &GetWorkPackageTool{api: api}
}

func (t *GetWorkPackageTool) Name() string { return "get_work_package" }

func (t *GetWorkPackageTool) Description() string {
	return "Fetch one work package by its numeric ID, including the full description."
}

func (t *GetWorkPackageTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {
				"type": "integer",
				"description": "Work package ID"
			}
		},
		"required": ["id"]
	}`)
}

func (t *GetWorkPackageTool) Execute(ctx context.Context, args tools.Args) (tools.Result, error) {
	id := args.Int("id", 0)
	if id <= 0 {
		return tools.Result{Content: "id must be a positive integer", IsError: true}, nil
	}

	wp, err := t.api.GetWorkPackage(ctx, id)
	if err != nil {
		return tools.Result{}, err
	}

	var b strings.Builder
	b.WriteString(formatWorkPackageLine(*wp))
	if desc := strings.TrimSpace(wp.Description.Raw); desc != "" {
		b.WriteString("description:\n" + desc + "\n")
	}
	return tools.Result{Content: b.String()}, nil
}

// CreateWorkPackageTool creates a work package in a project.
type CreateWorkPackageTool struct {
	api API
}

func NewCreateWorkPackageTool(api API) *CreateWorkPackageTool {
	return &CreateWorkPackageTool{api: api}
}

func (t *CreateWorkPackageTool) Name() string { return "create_work_package" }

func (t *CreateWorkPackageTool) Description() string {
	return "Create a work package in a project. Requires the numeric project ID and a subject; description and type ID are optional."
}

func (t *CreateWorkPackageTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"project_id": {
				"type": "integer",
				"description": "Numeric project ID"
			},
			"subject": {
				"type": "string",
				"description": "Short title of the work package"
			},
			"description": {
				"type": "string",
				"description": "Longer markdown description"
			},
			"type_id": {
				"type": "integer",
				"description": "Work package type ID (see list_types); omit for the project default"
			}
		},
		"required": ["project_id", "subject"]
	}`)
}

func (t *CreateWorkPackageTool) Execute(ctx context.Context, args tools.Args) (tools.Result, error) {
	projectID := args.Int("project_id", 0)
	subject := strings.TrimSpace(args.String("subject"))
	if projectID <= 0 || subject == "" {
		return tools.Result{Content: "project_id and subject are required", IsError: true}, nil
	}

	wp, err := t.api.CreateWorkPackage(ctx, projectID, subject, args.String("description"), args.Int("type_id", 0))
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: fmt.Sprintf("created work package #%d: %s", wp.ID, wp.Subject)}, nil
}

// UpdateWorkPackageTool updates the subject, description or status of a
// work package.
type UpdateWorkPackageTool struct {
	api API
}

func NewUpdateWorkPackageTool(api API) *UpdateWorkPackageTool {
	return &UpdateWorkPackageTool{api: api}
}

func (t *UpdateWorkPackageTool) Name() string { return "update_work_package" }

func (t *UpdateWorkPackageTool) Description() string {
	return "Update a work package's subject, description, or status. Only the provided fields change."
}

func (t *UpdateWorkPackageTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {
				"type": "integer",
				"description": "Work package ID"
			},
			"subject": {
				"type": "string",
				"description": "New subject"
			},
			"description": {
				"type": "string",
				"description": "New markdown description"
			},
			"status_id": {
				"type": "integer",
				"description": "New status ID (see list_statuses)"
			}
		},
		"required": ["id"]
	}`)
}

func (t *UpdateWorkPackageTool) Execute(ctx context.Context, args tools.Args) (tools.Result, error) {
	id := args.Int("id", 0)
	if id <= 0 {
		return tools.Result{Content: "id must be a positive integer", IsError: true}, nil
	}

	var update openproject.WorkPackageUpdate
	if subject := args.String("subject"); subject != "" {
		update.Subject = &subject
	}
	if desc := args.String("description"); desc != "" {
		update.Description = &desc
	}
	if status := args.Int("status_id", 0); status > 0 {
		update.StatusID = &status
	}
	if update.Subject == nil && update.Description == nil && update.StatusID == nil {
		return tools.Result{Content: "nothing to update: pass subject, description or status_id", IsError: true}, nil
	}

	wp, err := t.api.UpdateWorkPackage(ctx, id, update)
	if err != nil {
		return tools.Result{}, err
	}
	return tools.Result{Content: fmt.Sprintf("updated work package #%d: %s", wp.ID, wp.Subject)}, nil
}

func formatWorkPackageLine(wp openproject.WorkPackage) string {
	line := fmt.Sprintf("- #%d %s", wp.ID, wp.Subject)
	if wp.Links.Status != nil && wp.Links.Status.Title != "" {
		line += " [" + wp.Links.Status.Title + "]"
	}
	if wp.Links.Assignee != nil && wp.Links.Assignee.Title != "" {
		line += " (assigned: " + wp.Links.Assignee.Title + ")"
	}
	return line + "\n"
}
