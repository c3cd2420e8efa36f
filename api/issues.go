package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// DefaultSearchLimit is the page size used when none is requested.
const DefaultSearchLimit = 10

// Issues performs issue operations.
type Issues struct {
	client   *tracker.Client
	projects *Projects
}

// SearchOptions controls paging, sorting and projection of an issue search.
type SearchOptions struct {
	Limit     int
	Skip      int
	SortBy    string
	SortOrder string
	Fields    string
}

// CreateIssue describes a new issue; Project may be an internal id, short name or name.
type CreateIssue struct {
	Project     string
	Summary     string
	Description string
}

// UpdateIssue carries optional summary and description changes.
type UpdateIssue struct {
	Summary     *string
	Description *string
}

func issuePath(id string, parts ...string) string {
	path := "issues/" + url.PathEscape(id)
	for _, part := range parts {
		path += "/" + part
	}
	return path
}

func fieldsQuery(fields string) url.Values {
	return url.Values{"fields": {fields}}
}

// Get returns an issue by internal or readable id.
func (s *Issues) Get(ctx context.Context, id string) (*Issue, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	issue := &Issue{}
	if err := s.client.Get(ctx, issuePath(id), fieldsQuery(IssueFields), issue); err != nil {
		return nil, err
	}
	issue.ensureTitle(id)
	return issue, nil
}

// GetRaw returns the tracker's issue document without normalization.
func (s *Issues) GetRaw(ctx context.Context, id string) (interface{}, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	var raw interface{}
	if err := s.client.Get(ctx, issuePath(id), fieldsQuery(IssueFields), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Identify returns the internal and readable ids of an issue.
func (s *Issues) Identify(ctx context.Context, id string) (*Issue, error) {
	issue := &Issue{}
	if err := s.client.Get(ctx, issuePath(id), fieldsQuery(IssueIdentityFields), issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// Search runs a tracker query.
func (s *Issues) Search(ctx context.Context, query string, options *SearchOptions) ([]*Issue, error) {
	if options == nil {
		options = &SearchOptions{}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		query = MatchAll
	}
	limit := options.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	fields := options.Fields
	if fields == "" {
		fields = IssueFields
	}
	values := url.Values{
		"query":  {query},
		"$top":   {strconv.Itoa(limit)},
		"fields": {fields},
	}
	if options.Skip > 0 {
		values.Set("$skip", strconv.Itoa(options.Skip))
	}
	if options.SortBy != "" {
		values.Set("$sort", options.SortBy)
		if order := strings.ToLower(options.SortOrder); order == "asc" || order == "desc" {
			values.Set("$sortOrder", order)
		}
	}
	var issues []*Issue
	if err := s.client.Get(ctx, "issues", values, &issues); err != nil {
		return nil, err
	}
	for _, issue := range issues {
		issue.ensureTitle("")
	}
	return issues, nil
}

// Create creates an issue and returns its full record.
func (s *Issues) Create(ctx context.Context, request *CreateIssue) (*Issue, error) {
	if request == nil || strings.TrimSpace(request.Project) == "" {
		return nil, tracker.BadInput("project is required")
	}
	if strings.TrimSpace(request.Summary) == "" {
		return nil, tracker.BadInput("summary is required")
	}
	project, err := s.projects.Resolve(ctx, request.Project)
	if err != nil {
		return nil, err
	}
	body := struct {
		Project     map[string]string `json:"project"`
		Summary     string            `json:"summary"`
		Description string            `json:"description,omitempty"`
	}{
		Project:     map[string]string{"id": project.ID},
		Summary:     request.Summary,
		Description: request.Description,
	}
	created := &Issue{}
	if err = s.client.Post(ctx, "issues", fieldsQuery(IssueIdentityFields), body, created); err != nil {
		return nil, err
	}
	key := created.Key()
	if key == "" {
		return nil, &tracker.Error{Kind: tracker.KindUnknown, Endpoint: "issues", Message: "tracker did not return the created issue id"}
	}
	return s.Get(ctx, key)
}

// Update changes the summary and/or description of an issue.
func (s *Issues) Update(ctx context.Context, id string, request *UpdateIssue) (*Issue, error) {
	if strings.TrimSpace(id) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	if request == nil || (request.Summary == nil && request.Description == nil) {
		return nil, tracker.BadInput("nothing to update: provide summary or description")
	}
	body := map[string]interface{}{}
	if request.Summary != nil {
		body["summary"] = *request.Summary
	}
	if request.Description != nil {
		body["description"] = *request.Description
	}
	if err := s.client.Post(ctx, issuePath(id), fieldsQuery(IssueIdentityFields), body, nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateFields posts custom field entries directly on the issue.
func (s *Issues) UpdateFields(ctx context.Context, id string, fields ...interface{}) error {
	body := map[string]interface{}{"customFields": fields}
	return s.client.Post(ctx, issuePath(id), fieldsQuery(IssueIdentityFields), body, nil)
}

// AddComment appends a comment.
func (s *Issues) AddComment(ctx context.Context, id, text string) (*Comment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, tracker.BadInput("comment text is required")
	}
	comment := &Comment{}
	err := s.client.Post(ctx, issuePath(id, "comments"), fieldsQuery(CommentFields), map[string]string{"text": text}, comment)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Comments lists issue comments.
func (s *Issues) Comments(ctx context.Context, id string) ([]*Comment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	var comments []*Comment
	if err := s.client.Get(ctx, issuePath(id, "comments"), fieldsQuery(CommentFields), &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CustomFields lists issue custom fields with the given projection.
func (s *Issues) CustomFields(ctx context.Context, id, fields string) ([]*CustomField, error) {
	if strings.TrimSpace(id) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	if fields == "" {
		fields = IssueCustomFieldsAll
	}
	var result []*CustomField
	if err := s.client.Get(ctx, issuePath(id, "customFields"), fieldsQuery(fields), &result); err != nil {
		return nil, err
	}
	return result, nil
}
