// Package pmagent exposes OpenProject to the bot as a single nested-agent
// tool. The outer model delegates a project-management task in plain words;
// the nested agent runs its own tool loop over the OpenProject CRUD tools
// and returns the final text.
package pmagent

import (
	"context"

	"github.com/mfigueredo/taskbutler/internal/openproject"
)

// API is the slice of the OpenProject client the tools consume.
type API interface {
	ListProjects(ctx context.Context) ([]openproject.Project, error)
	ListWorkPackages(ctx context.Context, filters []openproject.Filter, pageSize int) ([]openproject.WorkPackage, error)
	GetWorkPackage(ctx context.Context, id int) (*openproject.WorkPackage, error)
	CreateWorkPackage(ctx context.Context, projectID int, subject, description string, typeID int) (*openproject.WorkPackage, error)
	UpdateWorkPackage(ctx context.Context, id int, update openproject.WorkPackageUpdate) (*openproject.WorkPackage, error)
	ListTypes(ctx context.Context) ([]openproject.Type, error)
	ListStatuses(ctx context.Context) ([]openproject.Status, error)
	ListUsers(ctx context.Context) ([]openproject.User, error)
}
