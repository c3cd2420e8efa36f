package tool

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/tracker"
	"github.com/viant/afs"
)

// IssueTools exposes issue, comment, link and attachment operations.
type IssueTools struct {
	service *api.Service
	fs      afs.Service
}

// NewIssueTools creates issue tools; fs reads files for uploads.
func NewIssueTools(service *api.Service, fs afs.Service) *IssueTools {
	if fs == nil {
		fs = afs.New()
	}
	return &IssueTools{service: service, fs: fs}
}

func (t *IssueTools) Name() string       { return "IssueTools" }
func (t *IssueTools) Category() Category { return CategoryIssue }

func (t *IssueTools) Definitions() []*Definition {
	issueID := required("issue_id", "Issue id, readable (DEMO-123) or internal (3-123)")
	return []*Definition{
		{Name: "get_issue", Description: "Get an issue with its custom fields", Params: []*Param{issueID}, Handler: t.handleGetIssue},
		{Name: "get_issue_raw", Description: "Get an issue exactly as the tracker returns it", Params: []*Param{issueID}, Handler: t.handleGetIssueRaw},
		{Name: "create_issue", Description: "Create an issue in a project", Params: []*Param{
			required("project", "Project short name, name or internal id"),
			required("summary", "Issue summary"),
			optional("description", "Issue description"),
		}, Handler: t.handleCreateIssue},
		{Name: "update_issue", Description: "Update the summary or description of an issue", Params: []*Param{
			issueID,
			optional("summary", "New summary"),
			optional("description", "New description"),
		}, Handler: t.handleUpdateIssue},
		{Name: "add_comment", Description: "Add a comment to an issue", Params: []*Param{
			issueID,
			required("text", "Comment text"),
		}, Handler: t.handleAddComment},
		{Name: "get_issue_comments", Description: "List the comments of an issue", Params: []*Param{issueID}, Handler: t.handleGetComments},
		{Name: "search_issues", Description: "Search issues with a tracker query", Params: []*Param{
			required("query", "Tracker query, e.g. project: DEMO #Unresolved"),
			typed(optional("limit", "Maximum number of issues"), "integer"),
		}, Handler: t.handleSearchIssues},
		{Name: "get_project_issues", Description: "List issues of a project", Params: []*Param{
			required("project", "Project short name, name or internal id"),
			typed(optional("limit", "Maximum number of issues"), "integer"),
		}, Handler: t.handleProjectIssues},
		{Name: "get_issue_links", Description: "List the links of an issue", Params: []*Param{issueID}, Handler: t.handleGetLinks},
		{Name: "link_issues", Description: "Link two issues", Params: []*Param{
			required("source_issue_id", "Issue the link starts from"),
			required("target_issue_id", "Issue the link points to"),
			optional("link_type", "Link type name, defaults to Relates"),
		}, Handler: t.handleLinkIssues},
		{Name: "remove_issue_link", Description: "Remove a link between two issues", Params: []*Param{
			issueID,
			required("link_id", "Link type id as returned by get_issue_links"),
			required("target_issue_id", "Linked issue"),
		}, Handler: t.handleRemoveLink},
		{Name: "add_dependency", Description: "Make an issue depend on another", Params: []*Param{
			issueID,
			required("depends_on_issue_id", "Issue that must be done first"),
		}, Handler: t.handleAddDependency},
		{Name: "remove_dependency", Description: "Remove a dependency between two issues", Params: []*Param{
			issueID,
			required("depends_on_issue_id", "Issue the dependency points to"),
		}, Handler: t.handleRemoveDependency},
		{Name: "add_relates_link", Description: "Mark two issues as related", Params: []*Param{
			issueID,
			required("target_issue_id", "Related issue"),
		}, Handler: t.handleAddRelates},
		{Name: "add_duplicate_link", Description: "Mark an issue as a duplicate of another", Params: []*Param{
			issueID,
			required("duplicate_of_issue_id", "Original issue"),
		}, Handler: t.handleAddDuplicate},
		{Name: "get_issue_attachments", Description: "List the attachments of an issue", Params: []*Param{issueID}, Handler: t.handleGetAttachments},
		{Name: "get_attachment_content", Description: "Download an attachment as base64, up to 10 MB", Params: []*Param{
			issueID,
			required("attachment_id", "Attachment id"),
		}, Handler: t.handleAttachmentContent},
		{Name: "upload_attachment", Description: "Attach a local or remote file to an issue, up to 10 MB", Params: []*Param{
			issueID,
			required("file_path", "File path or URL"),
		}, Handler: t.handleUploadAttachment},
	}
}

func (t *IssueTools) handleGetIssue(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Issues.Get(ctx, args.String("issue_id"))
}

func (t *IssueTools) handleGetIssueRaw(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Issues.GetRaw(ctx, args.String("issue_id"))
}

func (t *IssueTools) handleCreateIssue(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Issues.Create(ctx, &api.CreateIssue{
		Project:     args.String("project"),
		Summary:     args.String("summary"),
		Description: args.String("description"),
	})
}

func (t *IssueTools) handleUpdateIssue(ctx context.Context, args Args) (interface{}, error) {
	request := &api.UpdateIssue{}
	if summary, ok := args.OptionalString("summary"); ok {
		request.Summary = &summary
	}
	if description, ok := args.OptionalString("description"); ok {
		request.Description = &description
	}
	return t.service.Issues.Update(ctx, args.String("issue_id"), request)
}

func (t *IssueTools) handleAddComment(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Issues.AddComment(ctx, args.String("issue_id"), args.String("text"))
}

func (t *IssueTools) handleGetComments(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Issues.Comments(ctx, args.String("issue_id"))
}

func (t *IssueTools) handleSearchIssues(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Issues.Search(ctx, args.String("query"), &api.SearchOptions{Limit: args.Int("limit", api.DefaultSearchLimit)})
}

func (t *IssueTools) handleProjectIssues(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Projects.Issues(ctx, args.String("project"), args.Int("limit", api.DefaultSearchLimit))
}

func (t *IssueTools) handleGetLinks(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Links.List(ctx, args.String("issue_id"))
}

func (t *IssueTools) handleLinkIssues(ctx context.Context, args Args) (interface{}, error) {
	source, target := args.String("source_issue_id"), args.String("target_issue_id")
	linkType := args.String("link_type")
	if linkType == "" {
		linkType = api.LinkTypeRelates
	}
	if err := t.service.Links.Create(ctx, source, target, linkType); err != nil {
		return nil, err
	}
	return linked(source, target, linkType), nil
}

func (t *IssueTools) handleRemoveLink(ctx context.Context, args Args) (interface{}, error) {
	issueID, linkID, target := args.String("issue_id"), args.String("link_id"), args.String("target_issue_id")
	if err := t.service.Links.Delete(ctx, issueID, linkID, target); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":  "success",
		"message": "Removed link " + linkID + " between " + issueID + " and " + target,
	}, nil
}

func (t *IssueTools) handleAddDependency(ctx context.Context, args Args) (interface{}, error) {
	issueID, dependency := args.String("issue_id"), args.String("depends_on_issue_id")
	if err := t.service.Links.DependsOn(ctx, issueID, dependency); err != nil {
		return nil, err
	}
	return linked(issueID, dependency, api.LinkTypeDepend), nil
}

func (t *IssueTools) handleRemoveDependency(ctx context.Context, args Args) (interface{}, error) {
	issueID, dependency := args.String("issue_id"), args.String("depends_on_issue_id")
	if err := t.service.Links.RemoveDependency(ctx, issueID, dependency); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":  "success",
		"message": issueID + " no longer depends on " + dependency,
	}, nil
}

func (t *IssueTools) handleAddRelates(ctx context.Context, args Args) (interface{}, error) {
	issueID, target := args.String("issue_id"), args.String("target_issue_id")
	if err := t.service.Links.RelatesTo(ctx, issueID, target); err != nil {
		return nil, err
	}
	return linked(issueID, target, api.LinkTypeRelates), nil
}

func (t *IssueTools) handleAddDuplicate(ctx context.Context, args Args) (interface{}, error) {
	issueID, original := args.String("issue_id"), args.String("duplicate_of_issue_id")
	if err := t.service.Links.Duplicates(ctx, issueID, original); err != nil {
		return nil, err
	}
	return linked(issueID, original, api.LinkTypeDuplicate), nil
}

func (t *IssueTools) handleGetAttachments(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Attachments.List(ctx, args.String("issue_id"))
}

func (t *IssueTools) handleAttachmentContent(ctx context.Context, args Args) (interface{}, error) {
	return t.service.Attachments.Content(ctx, args.String("issue_id"), args.String("attachment_id"))
}

func (t *IssueTools) handleUploadAttachment(ctx context.Context, args Args) (interface{}, error) {
	location, err := fileURL(args.String("file_path"))
	if err != nil {
		return nil, err
	}
	object, err := t.fs.Object(ctx, location)
	if err != nil {
		return nil, tracker.NotFound("file %v: %v", args.String("file_path"), err)
	}
	if object.IsDir() {
		return nil, tracker.BadInput("%v is a directory", args.String("file_path"))
	}
	if object.Size() > api.MaxAttachmentSize {
		return nil, tracker.Validation("file %v is larger than the %v byte limit", object.Name(), api.MaxAttachmentSize)
	}
	data, err := t.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, tracker.TransportError(location, err)
	}
	attachments, err := t.service.Attachments.Upload(ctx, args.String("issue_id"), object.Name(), data)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":      "success",
		"issue_id":    args.String("issue_id"),
		"filename":    object.Name(),
		"attachments": attachments,
		"size_human":  humanize.IBytes(uint64(len(data))),
	}, nil
}

func linked(source, target, linkType string) map[string]interface{} {
	return map[string]interface{}{
		"status":    "success",
		"source":    source,
		"target":    target,
		"link_type": linkType,
	}
}

// fileURL turns a plain path into a file URL; URLs pass through.
func fileURL(location string) (string, error) {
	if location == "" {
		return "", tracker.BadInput("file_path is required")
	}
	if strings.Contains(location, "://") {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", tracker.BadInput("invalid file path %v: %v", location, err)
	}
	return "file://" + abs, nil
}
