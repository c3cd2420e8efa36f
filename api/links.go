package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Link type names used by the fixed-type helpers.
const (
	LinkTypeDepend    = "Depend"
	LinkTypeRelates   = "Relates"
	LinkTypeDuplicate = "Duplicate"
)

// Links manages issue links.
type Links struct {
	client   *tracker.Client
	issues   *Issues
	commands *Commands
}

// Link is one linked issue relative to the queried issue.
type Link struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Direction     string `json:"direction,omitempty"`
	Verb          string `json:"verb,omitempty"`
	Source        string `json:"source"`
	Target        string `json:"target"`
	TargetID      string `json:"target_id,omitempty"`
	TargetSummary string `json:"target_summary,omitempty"`
}

type issueLink struct {
	ID        string    `json:"id"`
	Direction string    `json:"direction"`
	LinkType  *linkType `json:"linkType"`
	Issues    []*Issue  `json:"issues"`
}

type linkType struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SourceToTarget string `json:"sourceToTarget"`
	TargetToSource string `json:"targetToSource"`
	Directed       bool   `json:"directed"`
}

// List flattens the issue's link groups into one record per linked issue.
func (s *Links) List(ctx context.Context, issueID string) ([]*Link, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	var groups []*issueLink
	if err := s.client.Get(ctx, issuePath(issueID, "links"), fieldsQuery(LinkFields), &groups); err != nil {
		return nil, err
	}
	var links []*Link
	for _, group := range groups {
		for _, linked := range group.Issues {
			link := &Link{
				ID:            group.ID,
				Direction:     strings.ToLower(group.Direction),
				Source:        issueID,
				Target:        linked.Key(),
				TargetID:      linked.ID,
				TargetSummary: linked.Summary,
			}
			if group.LinkType != nil {
				link.Type = group.LinkType.Name
				link.Verb = group.LinkType.SourceToTarget
				if strings.EqualFold(group.Direction, "inward") && group.LinkType.TargetToSource != "" {
					link.Verb = group.LinkType.TargetToSource
				}
			}
			links = append(links, link)
		}
	}
	return links, nil
}

// Create links source to target with the named link type.
func (s *Links) Create(ctx context.Context, sourceID, targetID, typeName string) error {
	if strings.TrimSpace(sourceID) == "" || strings.TrimSpace(targetID) == "" {
		return tracker.BadInput("source and target issue ids are required")
	}
	if strings.TrimSpace(typeName) == "" {
		typeName = LinkTypeRelates
	}
	body := map[string]interface{}{
		"linkType": map[string]string{"name": typeName},
		"issues":   []map[string]string{issueRef(targetID)},
	}
	return s.client.Post(ctx, issuePath(sourceID, "links"), nil, body, nil)
}

// Delete removes target from the link group linkID of issue.
func (s *Links) Delete(ctx context.Context, issueID, linkID, targetID string) error {
	if strings.TrimSpace(issueID) == "" || strings.TrimSpace(linkID) == "" || strings.TrimSpace(targetID) == "" {
		return tracker.BadInput("issue id, link id and target issue id are required")
	}
	return s.client.Delete(ctx, issuePath(issueID, "links", url.PathEscape(linkID), "issues", url.PathEscape(targetID)), nil)
}

// DependsOn records that issueID depends on dependencyID.
func (s *Links) DependsOn(ctx context.Context, issueID, dependencyID string) error {
	return s.Create(ctx, issueID, dependencyID, LinkTypeDepend)
}

// RelatesTo links two related issues.
func (s *Links) RelatesTo(ctx context.Context, issueID, targetID string) error {
	return s.Create(ctx, issueID, targetID, LinkTypeRelates)
}

// Duplicates marks issueID as a duplicate of originalID.
func (s *Links) Duplicates(ctx context.Context, issueID, originalID string) error {
	return s.Create(ctx, issueID, originalID, LinkTypeDuplicate)
}

// RemoveDependency issues "remove depends on <readable id>" against the dependent issue's internal id.
func (s *Links) RemoveDependency(ctx context.Context, issueID, dependencyID string) error {
	if strings.TrimSpace(issueID) == "" || strings.TrimSpace(dependencyID) == "" {
		return tracker.BadInput("issue id and dependency issue id are required")
	}
	internalID := issueID
	if !IsInternalID(issueID) {
		issue, err := s.issues.Identify(ctx, issueID)
		if err != nil {
			return err
		}
		internalID = issue.ID
	}
	readableID := dependencyID
	if IsInternalID(dependencyID) {
		dependency, err := s.issues.Identify(ctx, dependencyID)
		if err != nil {
			return err
		}
		readableID = dependency.Key()
	}
	return s.commands.Apply(ctx, "remove depends on "+readableID, internalID)
}
