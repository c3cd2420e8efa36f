package tool

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonyzorin/youtrack-mcp/resource"
)

const demoIssue = `{"id":"3-1","idReadable":"DEMO-1","summary":"Login","project":{"id":"0-1","shortName":"DEMO"},` +
	`"customFields":[{"$type":"StateIssueCustomField","name":"State","value":{"$type":"StateBundleElement","name":"Fixed"}}]}`

const demoFields = `[
	{"$type":"EnumProjectCustomField","field":{"id":"58-2","name":"Priority","fieldType":{"id":"enum[1]"}},"canBeEmpty":false},
	{"$type":"UserProjectCustomField","field":{"id":"58-3","name":"Assignee","fieldType":{"id":"user[1]"}},"canBeEmpty":true}
]`

func TestCustomFieldTools_StateGoesThroughWorkflow(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-1", 0, demoIssue).
		On(http.MethodPost, "/api/issues/DEMO-1", 0, `{"id":"3-1"}`).
		On(http.MethodGet, "/api/admin/projects/0-1/customFields", 0, demoFields)

	result, err := dispatcher.Call(context.Background(), "update_custom_fields", nil, map[string]interface{}{
		"issue_id":      "DEMO-1",
		"custom_fields": `{"Priority":"Critical","State":"Fixed"}`,
		"validate":      false,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, result.Payload)
	payload := decode(t, result)
	assert.Equal(t, "success", payload["status"])
	assert.Len(t, payload["updated"], 2)

	posts := fixture.CallsTo(http.MethodPost, "/api/issues/DEMO-1")
	require.Len(t, posts, 2)
	assert.JSONEq(t, `{"customFields":[{"$type":"SingleEnumIssueCustomField","id":"58-2","value":{"name":"Critical","$type":"EnumBundleElement"}}]}`, posts[0].Body)
	assert.Contains(t, posts[1].Body, `"StateIssueCustomField"`)
}

func TestCustomFieldTools_UnassignClearsUserField(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-1", 0, demoIssue).
		On(http.MethodPost, "/api/issues/DEMO-1", 0, `{"id":"3-1"}`).
		On(http.MethodGet, "/api/admin/projects/0-1/customFields", 0, demoFields)

	result, err := dispatcher.Call(context.Background(), "update_issue_assignee", []interface{}{"DEMO-1", "Unassigned"}, nil)
	require.NoError(t, err)
	require.False(t, result.IsError, result.Payload)
	posts := fixture.CallsTo(http.MethodPost, "/api/issues/DEMO-1")
	require.Len(t, posts, 1)
	assert.JSONEq(t, `{"customFields":[{"$type":"SingleUserIssueCustomField","id":"58-3","value":null}]}`, posts[0].Body)
}

const submittedIssue = `{"id":"3-1","idReadable":"DEMO-1","summary":"Login","project":{"id":"0-1","shortName":"DEMO"},` +
	`"customFields":[{"$type":"StateIssueCustomField","name":"State","value":{"$type":"StateBundleElement","name":"Submitted"}}]}`

func TestCustomFieldTools_RejectedUpdateIsError(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-1", 0, demoIssue).
		On(http.MethodGet, "/api/admin/projects/0-1/customFields", 0, demoFields).
		On(http.MethodPost, "/api/issues/DEMO-1", http.StatusBadRequest, `{"error":"bad_request","error_description":"Unknown priority"}`).
		On(http.MethodPost, "/api/commands", http.StatusBadRequest, `{"error":"bad_request","error_description":"Unknown command"}`)

	result, err := dispatcher.Call(context.Background(), "update_issue_priority", []interface{}{"DEMO-1", "Blocker"}, nil)
	require.NoError(t, err)
	require.True(t, result.IsError, result.Payload)
	payload := decode(t, result)
	assert.Equal(t, "error", payload["status"])
	assert.Equal(t, "validation", payload["error_type"])
	assert.Contains(t, payload["error"], "Priority")
	assert.Equal(t, "DEMO-1", payload["issue_id"])
	assert.Len(t, payload["failed"], 1)
}

func TestCustomFieldTools_StateRestrictionKeepsGuidance(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-1", 0, submittedIssue).
		On(http.MethodPost, "/api/issues/DEMO-1", http.StatusMethodNotAllowed, `{"error":"Method Not Allowed"}`).
		On(http.MethodPost, "/api/commands", http.StatusBadRequest, `{"error":"bad_request","error_description":"Transition is not allowed"}`)

	result, err := dispatcher.Call(context.Background(), "update_custom_fields", nil, map[string]interface{}{
		"issue_id":      "DEMO-1",
		"custom_fields": map[string]interface{}{"State": "Open"},
	})
	require.NoError(t, err)
	require.True(t, result.IsError, result.Payload)
	payload := decode(t, result)
	assert.Equal(t, "error", payload["status"])
	assert.Equal(t, "workflow-restriction", payload["error_type"])
	assert.Equal(t, true, payload["workflow_restriction"])
	assert.NotEmpty(t, payload["specific_guidance"])
	assert.Equal(t, "diagnose_workflow_restrictions", payload["diagnosis_tool"])
}

func TestCustomFieldTools_PartialUpdateReportsError(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-1", 0, submittedIssue).
		On(http.MethodGet, "/api/admin/projects/0-1/customFields", 0, demoFields).
		On(http.MethodPost, "/api/issues/DEMO-1", 0, `{"id":"3-1"}`).
		On(http.MethodPost, "/api/issues/DEMO-1", http.StatusMethodNotAllowed, `{"error":"Method Not Allowed"}`).
		On(http.MethodPost, "/api/commands", http.StatusBadRequest, `{"error":"bad_request","error_description":"Transition is not allowed"}`)

	result, err := dispatcher.Call(context.Background(), "update_custom_fields", nil, map[string]interface{}{
		"issue_id":      "DEMO-1",
		"custom_fields": map[string]interface{}{"Priority": "Critical", "State": "Open"},
		"validate":      false,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, result.Payload)
	payload := decode(t, result)
	assert.Equal(t, "partial", payload["status"])
	assert.Contains(t, payload["error"], "State")

	failed, ok := payload["failed"].([]interface{})
	require.True(t, ok)
	require.Len(t, failed, 1)
	state := failed[0].(map[string]interface{})
	guidance, ok := state["guidance"].(map[string]interface{})
	require.True(t, ok, result.Payload)
	assert.Equal(t, true, guidance["workflow_restriction"])
	assert.NotEmpty(t, guidance["specific_guidance"])
}

func TestSearchTools_FilterIssues(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/issues", 0, `[]`)

	_, err := dispatcher.Call(context.Background(), "filter_issues", nil, map[string]interface{}{
		"project":       "DEMO",
		"assignee":      "unassigned",
		"created_after": "2023-01-01",
		"limit":         "5",
	})
	require.NoError(t, err)
	calls := fixture.CallsTo(http.MethodGet, "/api/issues")
	require.Len(t, calls, 1)
	assert.Equal(t, `project: "DEMO" assignee: Unassigned created: 2023-01-01 ..`, calls[0].Query.Get("query"))
	assert.Equal(t, "5", calls[0].Query.Get("$top"))
}

func TestSearchTools_CustomFields(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/issues", 0, `[]`)

	_, err := dispatcher.Call(context.Background(), "search_with_custom_fields", nil, map[string]interface{}{
		"query":         "#Unresolved",
		"custom_fields": map[string]interface{}{"Priority": []interface{}{"Critical", "Major"}, "Type": "Bug"},
	})
	require.NoError(t, err)
	calls := fixture.CallsTo(http.MethodGet, "/api/issues")
	require.Len(t, calls, 1)
	assert.Equal(t, `#Unresolved Priority in ("Critical", "Major") Type: "Bug"`, calls[0].Query.Get("query"))
}

func TestIssueTools_LinkIssues(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodPost, "/api/issues/DEMO-1/links", 0, `{}`)

	result, err := dispatcher.Call(context.Background(), "link_issues", []interface{}{"DEMO-1", "DEMO-2"}, nil)
	require.NoError(t, err)
	require.False(t, result.IsError, result.Payload)
	assert.Equal(t, "Relates", decode(t, result)["link_type"])
	require.Len(t, fixture.CallsTo(http.MethodPost, "/api/issues/DEMO-1/links"), 1)
}

func TestIssueTools_UploadAttachment(t *testing.T) {
	location := filepath.Join(t.TempDir(), "trace.log")
	require.NoError(t, os.WriteFile(location, []byte("stack trace"), 0o644))
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodPost, "/api/issues/DEMO-1/attachments", 0, `[{"id":"8-1","name":"trace.log","size":11}]`)

	result, err := dispatcher.Call(context.Background(), "upload_attachment", nil, map[string]interface{}{
		"issue_id":  "DEMO-1",
		"file_path": location,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, result.Payload)
	payload := decode(t, result)
	assert.Equal(t, "trace.log", payload["filename"])
	assert.Equal(t, "11 B", payload["size_human"])

	uploads := fixture.CallsTo(http.MethodPost, "/api/issues/DEMO-1/attachments")
	require.Len(t, uploads, 1)
	assert.True(t, strings.Contains(uploads[0].Body, "stack trace"))
}

func TestIssueTools_UploadMissingFile(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	result, err := dispatcher.Call(context.Background(), "upload_attachment", nil, map[string]interface{}{
		"issue_id":  "DEMO-1",
		"file_path": filepath.Join(t.TempDir(), "missing.log"),
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, fixture.Calls())
}

func TestResourceTools_Subscriptions(t *testing.T) {
	_, dispatcher := newDispatcher(t)
	ctx := context.Background()

	result, err := dispatcher.Call(ctx, "subscribe_resource", nil, map[string]interface{}{"uri": "youtrack://issues/DEMO-1"})
	require.NoError(t, err)
	assert.Equal(t, true, decode(t, result)["new"])

	result, err = dispatcher.Call(ctx, "list_subscriptions", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"youtrack://issues/DEMO-1"}, decode(t, result)["subscriptions"])

	result, err = dispatcher.Call(ctx, "subscribe_resource", nil, map[string]interface{}{"uri": "http://elsewhere"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestResourceTools_URIExampleParses(t *testing.T) {
	for _, definition := range NewResourceTools(nil).Definitions() {
		for _, param := range definition.Params {
			if param.Name != "uri" {
				continue
			}
			index := strings.Index(param.Description, "e.g. ")
			require.True(t, index >= 0, definition.Name)
			_, err := resource.Parse(param.Description[index+len("e.g. "):])
			assert.NoError(t, err, definition.Name)
		}
	}
}

func TestProjectTools_AliasedProject(t *testing.T) {
	fixture, dispatcher := newDispatcher(t)
	fixture.On(http.MethodGet, "/api/admin/projects", 0, `[{"id":"0-1","name":"Demo","shortName":"DEMO"}]`).
		On(http.MethodGet, "/api/admin/projects/0-1", 0, `{"id":"0-1","name":"Demo","shortName":"DEMO"}`)

	result, err := dispatcher.Call(context.Background(), "get_project", nil, map[string]interface{}{"project": "DEMO"})
	require.NoError(t, err)
	require.False(t, result.IsError, result.Payload)
	assert.Equal(t, "0-1", decode(t, result)["id"])
}
