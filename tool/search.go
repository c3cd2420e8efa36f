package tool

import (
	"context"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/api"
)

// SearchTools exposes query, filter and custom field searches.
type SearchTools struct {
	issues *api.Issues
}

// NewSearchTools creates search tools.
func NewSearchTools(service *api.Service) *SearchTools {
	return &SearchTools{issues: service.Issues}
}

func (t *SearchTools) Name() string       { return "SearchTools" }
func (t *SearchTools) Category() Category { return CategoryIssue }

func (t *SearchTools) Definitions() []*Definition {
	limit := typed(optional("limit", "Maximum number of issues"), "integer")
	sortBy := optional("sort_by", "Field to sort by, e.g. created")
	sortOrder := optional("sort_order", "asc or desc")
	return []*Definition{
		{Name: "search_issues", Description: "Search issues with a tracker query", Params: []*Param{
			required("query", "Tracker query, e.g. project: DEMO #Unresolved"),
			limit, sortBy, sortOrder,
		}, Handler: t.handleSearch},
		{Name: "advanced_search", Description: "Search issues with a tracker query and sorting", Params: []*Param{
			required("query", "Tracker query"),
			limit, sortBy, sortOrder,
		}, Handler: t.handleSearch},
		{Name: "filter_issues", Description: "Search issues with structured filters", Params: []*Param{
			optional("project", "Project short name"),
			optional("author", "Reporter login"),
			optional("assignee", "Assignee login or Unassigned"),
			optional("state", "State name"),
			optional("priority", "Priority name"),
			optional("text", "Text in summary or description"),
			optional("created_after", "Date, YYYY-MM-DD"),
			optional("created_before", "Date, YYYY-MM-DD"),
			optional("updated_after", "Date, YYYY-MM-DD"),
			optional("updated_before", "Date, YYYY-MM-DD"),
			limit,
		}, Handler: t.handleFilter},
		{Name: "search_with_custom_fields", Description: "Search issues by custom field values", Params: []*Param{
			optional("query", "Additional tracker query"),
			typed(required("custom_fields", "Object mapping field names to a value or a list of values"), "object"),
			limit,
		}, Handler: t.handleCustomFields},
	}
}

func (t *SearchTools) handleSearch(ctx context.Context, args Args) (interface{}, error) {
	return t.issues.Search(ctx, args.String("query"), &api.SearchOptions{
		Limit:     args.Int("limit", api.DefaultSearchLimit),
		SortBy:    args.String("sort_by"),
		SortOrder: args.String("sort_order"),
	})
}

func (t *SearchTools) handleFilter(ctx context.Context, args Args) (interface{}, error) {
	filter := &api.Filter{
		Project:       args.String("project"),
		Reporter:      args.String("author"),
		Assignee:      args.String("assignee"),
		State:         args.String("state"),
		Priority:      args.String("priority"),
		Text:          args.String("text"),
		CreatedAfter:  args.String("created_after"),
		CreatedBefore: args.String("created_before"),
		UpdatedAfter:  args.String("updated_after"),
		UpdatedBefore: args.String("updated_before"),
	}
	return t.issues.Search(ctx, filter.Query(), &api.SearchOptions{Limit: args.Int("limit", api.DefaultSearchLimit)})
}

func (t *SearchTools) handleCustomFields(ctx context.Context, args Args) (interface{}, error) {
	fields, err := args.Map("custom_fields")
	if err != nil {
		return nil, err
	}
	clauses := api.CustomFieldClauses(fields)
	if query := args.String("query"); query != "" {
		clauses = append([]string{query}, clauses...)
	}
	return t.issues.Search(ctx, strings.Join(clauses, " "), &api.SearchOptions{Limit: args.Int("limit", api.DefaultSearchLimit)})
}
