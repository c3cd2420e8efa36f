package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

const projectListKey = "projects:all"

// Projects performs project operations and resolves project references.
type Projects struct {
	client *tracker.Client
	issues *Issues
	cache  *cache.Cache
}

func projectPath(id string, parts ...string) string {
	path := "admin/projects/" + url.PathEscape(id)
	for _, part := range parts {
		path += "/" + part
	}
	return path
}

// List returns projects, optionally including archived ones.
func (s *Projects) List(ctx context.Context, includeArchived bool) ([]*Project, error) {
	values := fieldsQuery(ProjectFields)
	if !includeArchived {
		values.Set("$filter", "archived eq false")
	}
	var projects []*Project
	if err := s.client.Get(ctx, "admin/projects", values, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Get returns a project by internal id, short name or name.
func (s *Projects) Get(ctx context.Context, ref string) (*Project, error) {
	resolved, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	project := &Project{}
	if err = s.client.Get(ctx, projectPath(resolved.ID), fieldsQuery(ProjectFields), project); err != nil {
		return nil, err
	}
	return project, nil
}

// Resolve maps a reference to a project. Internal ids are returned as is;
// otherwise the short name is matched exactly, then the name case-insensitively,
// then a case-insensitive substring of the name or short name.
func (s *Projects) Resolve(ctx context.Context, ref string) (*Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, tracker.BadInput("project is required")
	}
	if IsInternalID(ref) {
		return &Project{ID: ref}, nil
	}
	projects, cached, err := s.lookupList(ctx)
	if err != nil {
		return nil, err
	}
	if project := matchProject(projects, ref); project != nil {
		return project, nil
	}
	if cached {
		s.cache.Delete(projectListKey)
		if projects, _, err = s.lookupList(ctx); err != nil {
			return nil, err
		}
		if project := matchProject(projects, ref); project != nil {
			return project, nil
		}
	}
	return nil, tracker.NotFound("project %q not found", ref)
}

func matchProject(projects []*Project, ref string) *Project {
	for _, project := range projects {
		if project.ShortName == ref {
			return project
		}
	}
	for _, project := range projects {
		if strings.EqualFold(project.Name, ref) {
			return project
		}
	}
	lower := strings.ToLower(ref)
	for _, project := range projects {
		if strings.Contains(strings.ToLower(project.Name), lower) || strings.Contains(strings.ToLower(project.ShortName), lower) {
			return project
		}
	}
	return nil
}

// lookupList returns the project list and whether it came from the cache.
func (s *Projects) lookupList(ctx context.Context) ([]*Project, bool, error) {
	if cached, ok := s.cache.Get(projectListKey); ok {
		return cached.([]*Project), true, nil
	}
	var projects []*Project
	if err := s.client.Get(ctx, "admin/projects", fieldsQuery(ProjectLookupFields), &projects); err != nil {
		return nil, false, err
	}
	s.cache.SetDefault(projectListKey, projects)
	return projects, false, nil
}

// ShortName returns the project's short name, fetching it for internal ids.
func (s *Projects) ShortName(ctx context.Context, ref string) (string, error) {
	resolved, err := s.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if resolved.ShortName != "" {
		return resolved.ShortName, nil
	}
	project := &Project{}
	if err = s.client.Get(ctx, projectPath(resolved.ID), fieldsQuery(ProjectLookupFields), project); err != nil {
		return "", err
	}
	return project.ShortName, nil
}

// Issues lists a project's issues.
func (s *Projects) Issues(ctx context.Context, ref string, limit int) ([]*Issue, error) {
	shortName, err := s.ShortName(ctx, ref)
	if err != nil {
		return nil, err
	}
	query := (&Filter{Project: shortName}).Query()
	return s.issues.Search(ctx, query, &SearchOptions{Limit: limit})
}

// CustomFields lists the custom field bindings of a project.
func (s *Projects) CustomFields(ctx context.Context, ref string) ([]*ProjectCustomField, error) {
	resolved, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	var fields []*ProjectCustomField
	if err = s.client.Get(ctx, projectPath(resolved.ID, "customFields"), fieldsQuery(ProjectSchemaFields), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Bundles lists a project's field bindings with their value bundle ids;
// projectID must be an internal id.
func (s *Projects) Bundles(ctx context.Context, projectID string) ([]*ProjectCustomField, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, tracker.BadInput("project id is required")
	}
	var bindings []*ProjectCustomField
	if err := s.client.Get(ctx, projectPath(projectID, "customFields"), fieldsQuery(ProjectBundleFields), &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}
