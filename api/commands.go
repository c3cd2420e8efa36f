package api

import (
	"context"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Commands applies tracker commands to issues.
type Commands struct {
	client *tracker.Client
}

type commandIssue struct {
	ID string `json:"id"`
}

type commandRequest struct {
	Query   string         `json:"query"`
	Issues  []commandIssue `json:"issues"`
	Comment string         `json:"comment,omitempty"`
}

// Apply runs query against the given issues.
func (s *Commands) Apply(ctx context.Context, query string, issueIDs ...string) error {
	return s.ApplyWithComment(ctx, query, "", issueIDs...)
}

// ApplyWithComment runs query and attaches comment to the command.
func (s *Commands) ApplyWithComment(ctx context.Context, query, comment string, issueIDs ...string) error {
	if strings.TrimSpace(query) == "" {
		return tracker.BadInput("command query is required")
	}
	if len(issueIDs) == 0 {
		return tracker.BadInput("at least one issue is required")
	}
	request := &commandRequest{Query: query, Comment: comment}
	for _, id := range issueIDs {
		request.Issues = append(request.Issues, commandIssue{ID: id})
	}
	return s.client.Post(ctx, "commands", nil, request, nil)
}

// QuoteValue renders a command argument in double quotes.
func QuoteValue(value string) string {
	return quote(value)
}
