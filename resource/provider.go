package resource

import (
	"context"
	"log/slog"

	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/format"
	"github.com/tonyzorin/youtrack-mcp/internal/collection"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// MimeType is the content type of every resource.
const MimeType = "application/json"

// readLimit bounds collection reads.
const readLimit = 50

// Descriptor describes a listed resource.
type Descriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType"`
}

// Content is a read resource.
type Content struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Provider lists and reads resources and tracks subscriptions for one server.
type Provider struct {
	service       *api.Service
	subscriptions *collection.Set[string]
	logger        *slog.Logger
}

// New creates a provider.
func New(service *api.Service, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{service: service, subscriptions: collection.NewSet[string](), logger: logger}
}

var collections = []*Descriptor{
	{URI: prefix + "projects", Name: "Projects", Description: "Active projects"},
	{URI: prefix + "issues", Name: "Issues", Description: "Recently updated issues"},
	{URI: prefix + "users", Name: "Users", Description: "Tracker users"},
}

// List returns the collection resources followed by one entry per project.
// A failing project lookup leaves only the collections.
func (p *Provider) List(ctx context.Context) []*Descriptor {
	result := make([]*Descriptor, 0, len(collections))
	for _, item := range collections {
		copied := *item
		copied.MimeType = MimeType
		result = append(result, &copied)
	}
	projects, err := p.service.Projects.List(ctx, false)
	if err != nil {
		p.logger.Warn("failed to list projects for resources", "error", err)
		return result
	}
	for _, project := range projects {
		key := project.ShortName
		if key == "" {
			key = project.ID
		}
		result = append(result, &Descriptor{
			URI:         (&URI{Kind: KindProject, ID: key}).String(),
			Name:        project.Name,
			Description: "Project " + key,
			MimeType:    MimeType,
		}, &Descriptor{
			URI:         (&URI{Kind: KindProjectIssues, ID: key}).String(),
			Name:        project.Name + " issues",
			Description: "Issues of project " + key,
			MimeType:    MimeType,
		})
	}
	return result
}

// Read fetches the entity addressed by uri and renders it as JSON.
func (p *Provider) Read(ctx context.Context, uri string) (*Content, error) {
	parsed, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	value, err := p.fetch(ctx, parsed)
	if err != nil {
		return nil, err
	}
	text, err := format.JSON(value)
	if err != nil {
		return nil, &tracker.Error{Kind: tracker.KindUnknown, Endpoint: uri, Message: "failed to encode resource " + uri, Cause: err}
	}
	return &Content{URI: uri, MimeType: MimeType, Text: text}, nil
}

func (p *Provider) fetch(ctx context.Context, uri *URI) (interface{}, error) {
	service := p.service
	switch uri.Kind {
	case KindProjects:
		return service.Projects.List(ctx, false)
	case KindProject:
		return service.Projects.Get(ctx, uri.ID)
	case KindProjectIssues:
		return service.Projects.Issues(ctx, uri.ID, readLimit)
	case KindIssues:
		return service.Issues.Search(ctx, api.MatchAll, &api.SearchOptions{Limit: readLimit, SortBy: "updated", SortOrder: "desc"})
	case KindIssue:
		return service.Issues.Get(ctx, uri.ID)
	case KindIssueComments:
		return service.Issues.Comments(ctx, uri.ID)
	case KindUsers:
		return service.Users.Search(ctx, "", readLimit)
	case KindUser:
		return service.Users.Get(ctx, uri.ID)
	case KindSearch:
		return service.Issues.Search(ctx, uri.Query, &api.SearchOptions{Limit: readLimit})
	}
	return nil, tracker.BadInput("unsupported resource %v", uri.String())
}

// Subscribe records interest in uri and reports whether it was new.
func (p *Provider) Subscribe(uri string) (bool, error) {
	parsed, err := Parse(uri)
	if err != nil {
		return false, err
	}
	return p.subscriptions.Add(parsed.String()), nil
}

// Unsubscribe drops uri and reports whether it was subscribed.
func (p *Provider) Unsubscribe(uri string) (bool, error) {
	parsed, err := Parse(uri)
	if err != nil {
		return false, err
	}
	return p.subscriptions.Remove(parsed.String()), nil
}

// Subscriptions returns the subscribed URIs in order.
func (p *Provider) Subscriptions() []string {
	return p.subscriptions.Keys()
}

// Close discards every subscription.
func (p *Provider) Close() {
	p.subscriptions.Clear()
}
