// Package resource exposes tracker entities as read-only youtrack:// resources.
package resource

import (
	"net/url"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Scheme is the resource URI scheme.
const Scheme = "youtrack"

const prefix = Scheme + "://"

// Kind identifies what a resource URI addresses.
type Kind string

const (
	KindProjects      Kind = "projects"
	KindProject       Kind = "project"
	KindProjectIssues Kind = "project-issues"
	KindIssues        Kind = "issues"
	KindIssue         Kind = "issue"
	KindIssueComments Kind = "issue-comments"
	KindUsers         Kind = "users"
	KindUser          Kind = "user"
	KindSearch        Kind = "search"
)

// URI is a parsed resource address.
type URI struct {
	Kind  Kind
	ID    string
	Query string
}

// Parse parses a youtrack:// URI.
//
//	youtrack://projects                → {Kind: projects}
//	youtrack://projects/DEMO/issues    → {Kind: project-issues, ID: DEMO}
//	youtrack://issues/DEMO-1/comments  → {Kind: issue-comments, ID: DEMO-1}
//	youtrack://search?query=%23Unresolved → {Kind: search, Query: #Unresolved}
func Parse(uri string) (*URI, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, prefix) {
		return nil, tracker.BadInput("unsupported resource URI %q: expected %v scheme", uri, prefix)
	}
	path := strings.TrimPrefix(uri, prefix)
	rawQuery := ""
	if index := strings.IndexByte(path, '?'); index != -1 {
		path, rawQuery = path[:index], path[index+1:]
	}
	path = strings.Trim(path, "/")
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if i > 0 && segment == "" {
			return nil, tracker.BadInput("empty identifier in resource URI %q", uri)
		}
		if unescaped, err := url.PathUnescape(segment); err == nil {
			segments[i] = unescaped
		}
	}
	invalid := tracker.BadInput("unknown resource URI %q", uri)
	switch segments[0] {
	case "projects":
		switch len(segments) {
		case 1:
			return &URI{Kind: KindProjects}, nil
		case 2:
			return &URI{Kind: KindProject, ID: segments[1]}, nil
		case 3:
			if segments[2] == "issues" {
				return &URI{Kind: KindProjectIssues, ID: segments[1]}, nil
			}
		}
	case "issues":
		switch len(segments) {
		case 1:
			return &URI{Kind: KindIssues}, nil
		case 2:
			return &URI{Kind: KindIssue, ID: segments[1]}, nil
		case 3:
			if segments[2] == "comments" {
				return &URI{Kind: KindIssueComments, ID: segments[1]}, nil
			}
		}
	case "users":
		switch len(segments) {
		case 1:
			return &URI{Kind: KindUsers}, nil
		case 2:
			return &URI{Kind: KindUser, ID: segments[1]}, nil
		}
	case "search":
		if len(segments) != 1 {
			return nil, invalid
		}
		values, err := url.ParseQuery(rawQuery)
		if err != nil {
			return nil, tracker.BadInput("invalid search URI %q: %v", uri, err)
		}
		query := strings.TrimSpace(values.Get("query"))
		if query == "" {
			return nil, tracker.BadInput("search URI %q requires a query parameter", uri)
		}
		return &URI{Kind: KindSearch, Query: query}, nil
	}
	return nil, invalid
}

// String renders the canonical form of u.
func (u *URI) String() string {
	switch u.Kind {
	case KindProjects:
		return prefix + "projects"
	case KindProject:
		return prefix + "projects/" + url.PathEscape(u.ID)
	case KindProjectIssues:
		return prefix + "projects/" + url.PathEscape(u.ID) + "/issues"
	case KindIssues:
		return prefix + "issues"
	case KindIssue:
		return prefix + "issues/" + url.PathEscape(u.ID)
	case KindIssueComments:
		return prefix + "issues/" + url.PathEscape(u.ID) + "/comments"
	case KindUsers:
		return prefix + "users"
	case KindUser:
		return prefix + "users/" + url.PathEscape(u.ID)
	case KindSearch:
		return prefix + "search?" + url.Values{"query": {u.Query}}.Encode()
	}
	return prefix
}
