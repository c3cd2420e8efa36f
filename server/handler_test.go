package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

func TestHandler_Initialize(t *testing.T) {
	_, _, handler := newTestHandler(t)
	response := serve(t, handler, 1, schema.MethodInitialize,
		`{"protocolVersion":"2025-03-26","clientInfo":{"name":"desktop","version":"1.2"}}`)

	result := &schema.InitializeResult{}
	decodeResult(t, response, result)
	assert.Equal(t, "youtrack-mcp", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)
	require.NotNil(t, result.Capabilities.Resources)
	require.NotNil(t, result.Capabilities.Resources.Subscribe)
	assert.True(t, *result.Capabilities.Resources.Subscribe)
	assert.Equal(t, "desktop", handler.clientInfo.ClientInfo.Name)
}

func TestHandler_InvalidVersion(t *testing.T) {
	_, _, handler := newTestHandler(t)
	response := &jsonrpc.Response{}
	handler.Serve(context.Background(), &jsonrpc.Request{Jsonrpc: "1.0", Id: 1, Method: schema.MethodPing}, response)
	assert.NotNil(t, response.Error)
}

func TestHandler_UnknownMethod(t *testing.T) {
	_, _, handler := newTestHandler(t)
	response := serve(t, handler, 1, "prompts/list", "")
	require.NotNil(t, response.Error)
	assert.Contains(t, response.Error.Message, "prompts/list")
}

func TestHandler_ListTools(t *testing.T) {
	_, _, handler := newTestHandler(t)
	result := &schema.ListToolsResult{}
	decodeResult(t, serve(t, handler, 1, schema.MethodToolsList, ""), result)

	names := map[string]schema.Tool{}
	for _, item := range result.Tools {
		names[item.Name] = item
	}
	require.Contains(t, names, "get_issue")
	require.Contains(t, names, "diagnose_workflow_restrictions")
	getIssue := names["get_issue"]
	assert.Equal(t, []string{"issue_id"}, getIssue.InputSchema.Required)
	assert.Equal(t, "string", getIssue.InputSchema.Properties["issue_id"]["type"])
}

func TestHandler_CallToolArgumentShapes(t *testing.T) {
	var testCases = []struct {
		description string
		arguments   string
	}{
		{description: "object", arguments: `{"issue_id":"DEMO-7"}`},
		{description: "array", arguments: `["DEMO-7"]`},
		{description: "string", arguments: `"DEMO-7"`},
		{description: "aliased", arguments: `{"issue_key":"DEMO-7"}`},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			fixture, _, handler := newTestHandler(t)
			fixture.On(http.MethodGet, "/api/issues/DEMO-7", 0, `{"id":"3-7","idReadable":"DEMO-7","summary":"Crash"}`)

			result := &schema.CallToolResult{}
			decodeResult(t, serve(t, handler, 2, schema.MethodToolsCall,
				`{"name":"get_issue","arguments":`+testCase.arguments+`}`), result)
			require.Len(t, result.Content, 1)
			require.NotNil(t, result.IsError)
			assert.False(t, *result.IsError, result.Content[0].Text)
			payload := map[string]interface{}{}
			require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
			assert.Equal(t, "Crash", payload["summary"])
		})
	}
}

func TestHandler_CallUnknownTool(t *testing.T) {
	_, _, handler := newTestHandler(t)
	response := serve(t, handler, 3, schema.MethodToolsCall, `{"name":"drop_database"}`)
	require.NotNil(t, response.Error)
	assert.Contains(t, response.Error.Message, "drop_database")
}

func TestHandler_CallToolErrorNotifies(t *testing.T) {
	fixture, recorder, handler := newTestHandler(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-404", http.StatusNotFound, `{"error":"Not Found"}`)

	result := &schema.CallToolResult{}
	decodeResult(t, serve(t, handler, 4, schema.MethodToolsCall, `{"name":"get_issue","arguments":{"issue_id":"DEMO-404"}}`), result)
	require.NotNil(t, result.IsError)
	assert.True(t, *result.IsError)
	assert.Contains(t, result.Content[0].Text, `"status": "error"`)

	notifications := recorder.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, schema.MethodNotificationMessage, notifications[0].Method)

	decodeResult(t, serve(t, handler, 5, schema.MethodLoggingSetLevel, `{"level":"error"}`), &schema.SetLevelResult{})
	decodeResult(t, serve(t, handler, 6, schema.MethodToolsCall, `{"name":"get_issue","arguments":{"issue_id":"DEMO-404"}}`), result)
	assert.Len(t, recorder.Notifications(), 1)
}

func TestHandler_SetLevelRequiresLevel(t *testing.T) {
	_, _, handler := newTestHandler(t)
	response := serve(t, handler, 1, schema.MethodLoggingSetLevel, `{}`)
	assert.NotNil(t, response.Error)
}

func TestHandler_Resources(t *testing.T) {
	fixture, _, handler := newTestHandler(t)
	fixture.On(http.MethodGet, "/api/admin/projects", 0, `[{"id":"0-1","name":"Demo","shortName":"DEMO"}]`).
		On(http.MethodGet, "/api/issues/DEMO-1", 0, `{"id":"3-1","idReadable":"DEMO-1","summary":"Login fails"}`)

	listed := &schema.ListResourcesResult{}
	decodeResult(t, serve(t, handler, 1, schema.MethodResourcesList, ""), listed)
	require.Len(t, listed.Resources, 5)
	assert.Equal(t, "youtrack://projects/DEMO", listed.Resources[3].Uri)

	read := &schema.ReadResourceResult{}
	decodeResult(t, serve(t, handler, 2, schema.MethodResourcesRead, `{"uri":"youtrack://issues/DEMO-1"}`), read)
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, "Login fails")

	decodeResult(t, serve(t, handler, 3, schema.MethodSubscribe, `{"uri":"youtrack://issues/DEMO-1"}`), &schema.SubscribeResult{})
	assert.Equal(t, []string{"youtrack://issues/DEMO-1"}, handler.resources.Subscriptions())
	decodeResult(t, serve(t, handler, 4, schema.MethodUnsubscribe, `{"uri":"youtrack://issues/DEMO-1"}`), &schema.UnsubscribeResult{})
	assert.Empty(t, handler.resources.Subscriptions())

	response := serve(t, handler, 5, schema.MethodSubscribe, `{"uri":"https://elsewhere"}`)
	assert.NotNil(t, response.Error)
	response = serve(t, handler, 6, schema.MethodResourcesRead, `{}`)
	assert.NotNil(t, response.Error)
}

func TestHandler_CancelNotification(t *testing.T) {
	_, _, handler := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	handler.activeContexts.Put("42", newActiveContext(ctx, cancel))

	handler.OnNotification(context.Background(), &jsonrpc.Notification{
		Method: schema.MethodNotificationCancel,
		Params: json.RawMessage(`{"requestId":42,"reason":"user aborted"}`),
	})
	assert.Error(t, ctx.Err())
	_, ok := handler.activeContexts.Get("42")
	assert.False(t, ok)

	handler.OnNotification(context.Background(), &jsonrpc.Notification{Method: schema.MethodNotificationInitialized})
	assert.True(t, handler.Initialized)
}

func TestHandler_CancelIsScopedToSession(t *testing.T) {
	_, srv := newTestServer(t)
	first := srv.newHandler(&recordingTransport{})
	second := srv.newHandler(&recordingTransport{})

	firstCtx, firstCancel := context.WithCancel(context.Background())
	defer firstCancel()
	first.activeContexts.Put(requestKey(float64(1)), newActiveContext(firstCtx, firstCancel))
	secondCtx, secondCancel := context.WithCancel(context.Background())
	defer secondCancel()
	second.activeContexts.Put(requestKey(float64(1)), newActiveContext(secondCtx, secondCancel))

	second.OnNotification(context.Background(), &jsonrpc.Notification{
		Method: schema.MethodNotificationCancel,
		Params: json.RawMessage(`{"requestId":1}`),
	})
	assert.Error(t, secondCtx.Err())
	assert.NoError(t, firstCtx.Err())
	_, ok := first.activeContexts.Get(requestKey(float64(1)))
	assert.True(t, ok)
}

func TestHandler_CancelStringID(t *testing.T) {
	_, _, handler := newTestHandler(t)
	numberCtx, numberCancel := context.WithCancel(context.Background())
	defer numberCancel()
	handler.activeContexts.Put(requestKey(float64(7)), newActiveContext(numberCtx, numberCancel))
	stringCtx, stringCancel := context.WithCancel(context.Background())
	defer stringCancel()
	handler.activeContexts.Put(requestKey("req-7"), newActiveContext(stringCtx, stringCancel))

	handler.OnNotification(context.Background(), &jsonrpc.Notification{
		Method: schema.MethodNotificationCancel,
		Params: json.RawMessage(`{"requestId":"req-7"}`),
	})
	assert.Error(t, stringCtx.Err())
	assert.NoError(t, numberCtx.Err())

	err := handler.Cancel(context.Background(), &jsonrpc.Notification{
		Method: schema.MethodNotificationCancel,
		Params: json.RawMessage(`{"reason":"no id"}`),
	})
	require.NotNil(t, err)
}

func TestRequestKey(t *testing.T) {
	var testCases = []struct {
		description string
		id          interface{}
		expect      string
	}{
		{description: "missing", id: nil, expect: ""},
		{description: "empty string", id: "", expect: ""},
		{description: "int", id: 42, expect: "42"},
		{description: "decoded number", id: float64(42), expect: "42"},
		{description: "string", id: "42", expect: `"42"`},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, requestKey(testCase.id), testCase.description)
	}
}

func TestSplitArguments(t *testing.T) {
	var testCases = []struct {
		description string
		raw         string
		positional  []interface{}
		keyword     map[string]interface{}
	}{
		{description: "empty", raw: "", keyword: map[string]interface{}{}},
		{description: "object", raw: `{"a":1}`, keyword: map[string]interface{}{"a": float64(1)}},
		{description: "array", raw: `["x",2]`, positional: []interface{}{"x", float64(2)}, keyword: map[string]interface{}{}},
		{description: "string", raw: `"DEMO-1"`, keyword: map[string]interface{}{"args": "DEMO-1"}},
		{description: "scalar", raw: `7`, positional: []interface{}{float64(7)}, keyword: map[string]interface{}{}},
	}
	for _, testCase := range testCases {
		positional, keyword, err := splitArguments(json.RawMessage(testCase.raw))
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.positional, positional, testCase.description)
		assert.Equal(t, testCase.keyword, keyword, testCase.description)
	}
	_, _, err := splitArguments(json.RawMessage(`{`))
	assert.Error(t, err)
}
