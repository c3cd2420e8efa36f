// Package api provides typed tracker resource clients.
//
// Each client assembles paths, query strings and field projections and
// decodes responses into records. All clients share one tracker.Client.
package api

import (
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

const (
	projectCacheTTL     = 5 * time.Minute
	projectCacheCleanup = 10 * time.Minute
)

// Service groups the resource clients.
type Service struct {
	Client      *tracker.Client
	Issues      *Issues
	Projects    *Projects
	Users       *Users
	Links       *Links
	Commands    *Commands
	Attachments *Attachments
}

// New creates resource clients sharing client.
func New(client *tracker.Client) *Service {
	projects := &Projects{client: client, cache: cache.New(projectCacheTTL, projectCacheCleanup)}
	issues := &Issues{client: client, projects: projects}
	projects.issues = issues
	commands := &Commands{client: client}
	return &Service{
		Client:      client,
		Issues:      issues,
		Projects:    projects,
		Users:       &Users{client: client},
		Links:       &Links{client: client, issues: issues, commands: commands},
		Commands:    commands,
		Attachments: &Attachments{client: client},
	}
}
