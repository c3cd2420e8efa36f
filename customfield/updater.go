package customfield

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Update methods.
const (
	MethodDirect   = "direct"
	MethodCommands = "commands"
)

// FieldResult reports how one field was written.
type FieldResult struct {
	Field      string      `json:"field"`
	Value      interface{} `json:"value"`
	APIMethod  string      `json:"api_method,omitempty"`
	Error      string      `json:"error,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
	// Guidance carries the details of a classified failure, such as a
	// workflow restriction.
	Guidance map[string]interface{} `json:"guidance,omitempty"`

	err error
}

// Fail records err as the outcome of the field.
func (r *FieldResult) Fail(err error) {
	r.err = err
	r.Error = err.Error()
	if trackerErr, ok := tracker.AsError(err); ok && len(trackerErr.Guidance) > 0 {
		r.Guidance = trackerErr.Guidance
	}
}

// UpdateResult summarizes a multi-field update.
type UpdateResult struct {
	Status  string         `json:"status"`
	IssueID string         `json:"issue_id"`
	Updated []*FieldResult `json:"updated"`
	Failed  []*FieldResult `json:"failed,omitempty"`
	Error   string         `json:"error,omitempty"`
	Issue   *api.Issue     `json:"issue,omitempty"`
}

// Summarize derives Status and the top level Error from the field outcomes.
func (r *UpdateResult) Summarize() {
	r.Error = ""
	switch {
	case len(r.Failed) == 0:
		r.Status = "success"
		return
	case len(r.Updated) == 0:
		r.Status = "error"
	default:
		r.Status = "partial"
	}
	parts := make([]string, 0, len(r.Failed))
	for _, failed := range r.Failed {
		parts = append(parts, failed.Field+": "+failed.Error)
	}
	r.Error = fmt.Sprintf("failed to update %d of %d fields on %v: %v",
		len(r.Failed), len(r.Failed)+len(r.Updated), r.IssueID, strings.Join(parts, "; "))
}

// Err returns the update as a tracker error when no field was written. The
// error takes the kind and guidance of the first failure and lists every
// failed field.
func (r *UpdateResult) Err() error {
	if len(r.Updated) > 0 || len(r.Failed) == 0 {
		return nil
	}
	if r.Error == "" {
		r.Summarize()
	}
	first := r.Failed[0]
	result := &tracker.Error{Kind: tracker.KindValidation, Message: r.Error, Cause: first.err, Guidance: map[string]interface{}{}}
	if trackerErr, ok := tracker.AsError(first.err); ok {
		result.Kind = trackerErr.Kind
		result.Status = trackerErr.Status
		result.Endpoint = trackerErr.Endpoint
		for key, value := range trackerErr.Guidance {
			result.Guidance[key] = value
		}
	}
	result.Guidance["issue_id"] = r.IssueID
	result.Guidance["updated"] = r.Updated
	result.Guidance["failed"] = r.Failed
	return result
}

// Updater writes custom fields, trying the direct API before commands.
type Updater struct {
	resolver *Resolver
	issues   *api.Issues
	commands *api.Commands
	logger   *slog.Logger
}

// NewUpdater creates an updater.
func NewUpdater(service *api.Service, resolver *Resolver, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{resolver: resolver, issues: service.Issues, commands: service.Commands, logger: logger}
}

// Resolver returns the schema resolver.
func (u *Updater) Resolver() *Resolver {
	return u.resolver
}

// Update writes fields to an issue in name order. A field that fails the
// direct update is retried through the commands API. Field failures are
// reported in the result; UpdateResult.Err turns a total failure into an error.
func (u *Updater) Update(ctx context.Context, issueID string, fields map[string]interface{}, validate bool) (*UpdateResult, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	if len(fields) == 0 {
		return nil, tracker.BadInput("no custom fields to update")
	}
	issue, err := u.issues.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	var projectID string
	if issue.Project != nil {
		projectID = issue.Project.ID
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &UpdateResult{IssueID: issueID, Updated: []*FieldResult{}}
	for _, name := range names {
		fieldResult := u.updateField(ctx, issue, projectID, name, fields[name], validate)
		if fieldResult.err != nil {
			result.Failed = append(result.Failed, fieldResult)
			continue
		}
		result.Updated = append(result.Updated, fieldResult)
	}
	result.Summarize()
	if len(result.Updated) > 0 {
		if result.Issue, err = u.issues.Get(ctx, issueID); err != nil {
			u.logger.Warn("failed to refetch issue after update", "issue", issueID, "error", err)
		}
	}
	return result, nil
}

func (u *Updater) updateField(ctx context.Context, issue *api.Issue, projectID, name string, raw interface{}, validate bool) *FieldResult {
	result := &FieldResult{Field: name, Value: raw}
	var schema *Schema
	if projectID != "" {
		var err error
		if schema, err = u.resolver.Schema(ctx, projectID, name); err != nil {
			u.logger.Debug("field schema unavailable", "field", name, "project", projectID, "error", err)
		}
	}
	if validate {
		var validation *Validation
		if schema != nil {
			validation = u.resolver.ValidateSchema(ctx, schema, raw)
		} else {
			validation = &Validation{Valid: true, Field: name, Value: raw, Mode: ModeDegraded}
		}
		result.Validation = validation
		if !validation.Valid {
			result.Fail(&tracker.Error{Kind: tracker.KindValidation, Message: validation.Message})
			return result
		}
	}
	value, err := NewValue(schema, raw)
	if err != nil {
		result.Fail(err)
		return result
	}
	fieldID := ""
	if schema != nil {
		fieldID = schema.FieldID
	}
	directErr := u.issues.UpdateFields(ctx, issue.Key(), Encode(fieldID, name, value))
	if directErr == nil {
		result.APIMethod = MethodDirect
		return result
	}
	u.logger.Debug("direct field update failed, trying commands", "field", name, "error", directErr)
	if _, isNull := value.(NullValue); isNull {
		result.Fail(directErr)
		return result
	}
	query := name + " " + api.QuoteValue(value.String())
	if err = u.commands.Apply(ctx, query, commandTarget(issue)); err != nil {
		result.Fail(err)
		return result
	}
	result.APIMethod = MethodCommands
	return result
}

func commandTarget(issue *api.Issue) string {
	if issue.ID != "" {
		return issue.ID
	}
	return issue.Key()
}
