package pmagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mfigueredo/taskbutler/internal/tools"
)

// ListTypesTool lists work package types (Task, Bug, Milestone, ...).
type ListTypesTool struct {
	api API
}

func NewListTypesTool(api API) *ListTypesTool {
	return &ListTypesTool{api: api}
}

func (t *ListTypesTool) Name() string { return "list_types" }

func (t *ListTypesTool) Description() string {
	return "List the available work package types with their IDs."
}

func (t *ListTypesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ListTypesTool) Execute(ctx context.Context, _ tools.Args) (tools.Result, error) {
	types, err := t.api.ListTypes(ctx)
	if err != nil {
		return tools.Result{}, err
	}
	var b strings.Builder
	for _, tp := range types {
		fmt.Fprintf(&b, "- #%d %s\n", tp.ID, tp.Name)
	}
	if b.Len() == 0 {
		return tools.Result{Content: "No types defined."}, nil
	}
	return tools.Result{Content: b.String()}, nil
}

// ListStatusesTool lists work package statuses and whether they count as
// closed.
type ListStatusesTool struct {
	api API
}

func NewListStatusesTool(api API) *ListStatusesTool {
	return &ListStatusesTool{api: api}
}

func (t *ListStatusesTool) Name() string { return "list_statuses" }

func (t *ListStatusesTool) Description() string {
	return "List the available work package statuses with their IDs, marking closed ones."
}

func (t *ListStatusesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ListStatusesTool) Execute(ctx context.Context, _ tools.Args) (tools.Result, error) {
	statuses, err := t.api.ListStatuses(ctx)
	if err != nil {
		return tools.Result{}, err
	}
	var b strings.Builder
	for _, s := range statuses {
		marker := ""
		if s.IsClosed {
			marker = " (closed)"
		}
		fmt.Fprintf(&b, "- #%d %s%s\n", s.ID, s.Name, marker)
	}
	if b.Len() == 0 {
		return tools.Result{Content: "No statuses defined."}, nil
	}
	return tools.Result{Content: b.String()}, nil
}

// ListUsersTool lists the instance's users.
type ListUsersTool struct {
	api API
}

func NewListUsersTool(api API) *ListUsersTool {
	return &ListUsersTool{api: api}
}

func (t *ListUsersTool) Name() string { return "list_users" }

func (t *ListUsersTool) Description() string {
	return "List OpenProject users with their IDs and logins."
}

func (t *ListUsersTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ListUsersTool) Execute(ctx context.Context, _ tools.Args) (tools.Result, error) {
	users, err := t.api.ListUsers(ctx)
	if err != nil {
		return tools.Result{}, err
	}
	var b strings.Builder
	for _, u := range users {
		fmt.Fprintf(&b, "- #%d %s (%s)\n", u.ID, u.Name, u.Login)
	}
	if b.Len() == 0 {
		return tools.Result{Content: "No users found."}, nil
	}
	return tools.Result{Content: b.String()}, nil
}
