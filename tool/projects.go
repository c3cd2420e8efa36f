package tool

import (
	"context"

	"github.com/tonyzorin/youtrack-mcp/api"
)

// ProjectTools exposes project lookups.
type ProjectTools struct {
	projects *api.Projects
}

// NewProjectTools creates project tools.
func NewProjectTools(service *api.Service) *ProjectTools {
	return &ProjectTools{projects: service.Projects}
}

func (t *ProjectTools) Name() string       { return "ProjectTools" }
func (t *ProjectTools) Category() Category { return CategoryProject }

func (t *ProjectTools) Definitions() []*Definition {
	projectID := required("project_id", "Project short name, name or internal id")
	return []*Definition{
		{Name: "get_projects", Description: "List projects", Params: []*Param{
			typed(optional("include_archived", "Include archived projects"), "boolean"),
		}, Handler: t.handleList},
		{Name: "get_project", Description: "Get a project", Params: []*Param{projectID}, Handler: t.handleGet},
		{Name: "get_project_by_name", Description: "Find a project by name or short name", Params: []*Param{
			required("project_name", "Project name or short name"),
		}, Handler: t.handleByName},
		{Name: "get_project_issues", Description: "List issues of a project", Params: []*Param{
			projectID,
			typed(optional("limit", "Maximum number of issues"), "integer"),
		}, Handler: t.handleIssues},
		{Name: "get_project_custom_fields", Description: "List the custom fields bound to a project", Params: []*Param{projectID}, Handler: t.handleCustomFields},
	}
}

func (t *ProjectTools) handleList(ctx context.Context, args Args) (interface{}, error) {
	return t.projects.List(ctx, args.Bool("include_archived", false))
}

func (t *ProjectTools) handleGet(ctx context.Context, args Args) (interface{}, error) {
	return t.projects.Get(ctx, args.String("project_id"))
}

func (t *ProjectTools) handleByName(ctx context.Context, args Args) (interface{}, error) {
	project, err := t.projects.Resolve(ctx, args.String("project_name"))
	if err != nil {
		return nil, err
	}
	return t.projects.Get(ctx, project.ID)
}

func (t *ProjectTools) handleIssues(ctx context.Context, args Args) (interface{}, error) {
	return t.projects.Issues(ctx, args.String("project_id"), args.Int("limit", api.DefaultSearchLimit))
}

func (t *ProjectTools) handleCustomFields(ctx context.Context, args Args) (interface{}, error) {
	return t.projects.CustomFields(ctx, args.String("project_id"))
}
