package tool

import (
	"context"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/customfield"
	"github.com/tonyzorin/youtrack-mcp/workflow"
)

const unassigned = "unassigned"

// CustomFieldTools exposes custom field reads, writes and state transitions.
type CustomFieldTools struct {
	service  *api.Service
	resolver *customfield.Resolver
	updater  *customfield.Updater
	workflow *workflow.Handler
}

// NewCustomFieldTools creates custom field tools.
func NewCustomFieldTools(service *api.Service, updater *customfield.Updater, handler *workflow.Handler) *CustomFieldTools {
	return &CustomFieldTools{service: service, resolver: updater.Resolver(), updater: updater, workflow: handler}
}

func (t *CustomFieldTools) Name() string       { return "CustomFieldTools" }
func (t *CustomFieldTools) Category() Category { return CategoryIssue }

func (t *CustomFieldTools) Definitions() []*Definition {
	issueID := required("issue_id", "Issue id, readable (DEMO-123) or internal (3-123)")
	project := required("project", "Project short name, name or internal id")
	fieldName := required("field_name", "Custom field name, e.g. Priority")
	return []*Definition{
		{Name: "update_custom_fields", Description: "Update several custom fields of an issue; State goes through the workflow", Params: []*Param{
			issueID,
			typed(required("custom_fields", "Object mapping field names to values"), "object"),
			typed(optional("validate", "Check values against the project schema first, default true"), "boolean"),
		}, Handler: t.handleUpdateFields},
		{Name: "get_custom_fields", Description: "List the custom fields of an issue with extracted values", Params: []*Param{issueID}, Handler: t.handleGetFields},
		{Name: "get_custom_field_allowed_values", Description: "List the values a project field accepts", Params: []*Param{project, fieldName}, Handler: t.handleAllowedValues},
		{Name: "get_project_custom_fields", Description: "List the custom field schema of a project", Params: []*Param{project}, Handler: t.handleProjectFields},
		{Name: "validate_custom_field", Description: "Check a value against a project field", Params: []*Param{
			project,
			fieldName,
			required("field_value", "Value to check"),
		}, Handler: t.handleValidate},
		{Name: "update_issue_state", Description: "Move an issue to a new state, falling back to commands when the workflow blocks it", Params: []*Param{
			issueID,
			required("new_state", "Target state, e.g. In Progress"),
		}, Handler: t.handleUpdateState},
		{Name: "update_issue_priority", Description: "Set the Priority of an issue", Params: []*Param{
			issueID,
			required("priority", "Priority name, e.g. Critical"),
		}, Handler: t.singleField("Priority", "priority")},
		{Name: "update_issue_assignee", Description: "Set the Assignee of an issue; use unassigned to clear it", Params: []*Param{
			issueID,
			required("assignee", "User login or unassigned"),
		}, Handler: t.handleUpdateAssignee},
		{Name: "update_issue_type", Description: "Set the Type of an issue", Params: []*Param{
			issueID,
			required("issue_type", "Type name, e.g. Bug"),
		}, Handler: t.singleField("Type", "issue_type")},
		{Name: "update_issue_estimation", Description: "Set the Estimation of an issue", Params: []*Param{
			issueID,
			required("estimation", "Period such as 3d 4h"),
		}, Handler: t.singleField("Estimation", "estimation")},
		{Name: workflow.DiagnosisTool, Description: "Explain which state transitions the workflow allows for an issue", Params: []*Param{issueID}, Handler: t.handleDiagnose},
	}
}

func (t *CustomFieldTools) handleUpdateFields(ctx context.Context, args Args) (interface{}, error) {
	issueID, err := args.Require("issue_id")
	if err != nil {
		return nil, err
	}
	fields, err := args.Map("custom_fields")
	if err != nil {
		return nil, err
	}
	validate := args.Bool("validate", true)
	state, hasState := fields[workflow.StateField]
	rest := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		if name != workflow.StateField {
			rest[name] = value
		}
	}
	result := &customfield.UpdateResult{IssueID: issueID, Updated: []*customfield.FieldResult{}}
	if len(rest) > 0 {
		if result, err = t.updater.Update(ctx, issueID, rest, validate); err != nil {
			return nil, err
		}
	}
	if hasState {
		stateResult := &customfield.FieldResult{Field: workflow.StateField, Value: state}
		transition, err := t.workflow.UpdateState(ctx, issueID, customfield.Extract(state))
		if err != nil {
			stateResult.Fail(err)
			result.Failed = append(result.Failed, stateResult)
		} else {
			stateResult.APIMethod = transition.APIMethod
			result.Updated = append(result.Updated, stateResult)
			result.Issue = transition.Issue
		}
		result.Summarize()
	}
	if err = result.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *CustomFieldTools) handleGetFields(ctx context.Context, args Args) (interface{}, error) {
	fields, err := t.service.Issues.CustomFields(ctx, args.String("issue_id"), "")
	if err != nil {
		return nil, err
	}
	return customfield.Describe(fields), nil
}

func (t *CustomFieldTools) handleAllowedValues(ctx context.Context, args Args) (interface{}, error) {
	schema, err := t.resolver.Schema(ctx, args.String("project"), args.String("field_name"))
	if err != nil {
		return nil, err
	}
	values, err := t.resolver.AllowedValues(ctx, schema)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"field":          schema.Name,
		"type":           schema.Type,
		"allowed_values": values,
	}, nil
}

func (t *CustomFieldTools) handleProjectFields(ctx context.Context, args Args) (interface{}, error) {
	return t.resolver.Schemas(ctx, args.String("project"))
}

func (t *CustomFieldTools) handleValidate(ctx context.Context, args Args) (interface{}, error) {
	return t.resolver.Validate(ctx, args.String("project"), args.String("field_name"), args["field_value"]), nil
}

func (t *CustomFieldTools) handleUpdateState(ctx context.Context, args Args) (interface{}, error) {
	return t.workflow.UpdateState(ctx, args.String("issue_id"), args.String("new_state"))
}

func (t *CustomFieldTools) handleUpdateAssignee(ctx context.Context, args Args) (interface{}, error) {
	var assignee interface{} = args.String("assignee")
	if strings.EqualFold(args.String("assignee"), unassigned) {
		assignee = nil
	}
	return t.updateOne(ctx, args.String("issue_id"), "Assignee", assignee)
}

func (t *CustomFieldTools) handleDiagnose(ctx context.Context, args Args) (interface{}, error) {
	return t.workflow.Diagnose(ctx, args.String("issue_id"))
}

// singleField returns a handler writing the argument param into field.
func (t *CustomFieldTools) singleField(field, param string) Handler {
	return func(ctx context.Context, args Args) (interface{}, error) {
		value, err := args.Require(param)
		if err != nil {
			return nil, err
		}
		return t.updateOne(ctx, args.String("issue_id"), field, value)
	}
}

func (t *CustomFieldTools) updateOne(ctx context.Context, issueID, field string, value interface{}) (interface{}, error) {
	result, err := t.updater.Update(ctx, issueID, map[string]interface{}{field: value}, false)
	if err != nil {
		return nil, err
	}
	if err = result.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
