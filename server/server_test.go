package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/customfield"
	"github.com/tonyzorin/youtrack-mcp/internal/trackertest"
	"github.com/tonyzorin/youtrack-mcp/resource"
	"github.com/tonyzorin/youtrack-mcp/tool"
	"github.com/tonyzorin/youtrack-mcp/workflow"
	"github.com/viant/afs"
	"github.com/viant/jsonrpc"
)

type recordingTransport struct {
	mux           sync.Mutex
	notifications []*jsonrpc.Notification
}

func (r *recordingTransport) Notify(_ context.Context, notification *jsonrpc.Notification) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *recordingTransport) Send(_ context.Context, _ *jsonrpc.Request) (*jsonrpc.Response, error) {
	return nil, nil
}

func (r *recordingTransport) Notifications() []*jsonrpc.Notification {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]*jsonrpc.Notification(nil), r.notifications...)
}

func newTestServer(t *testing.T, options ...Option) (*trackertest.Tracker, *Server) {
	t.Helper()
	fixture := trackertest.New(t)
	service := api.New(fixture.Client(t))
	resources := resource.New(service, nil)
	updater := customfield.NewUpdater(service, customfield.NewResolver(service), nil)
	registry, err := tool.NewRegistry(nil,
		tool.NewIssueTools(service, afs.New()),
		tool.NewCustomFieldTools(service, updater, workflow.New(service, nil)),
		tool.NewProjectTools(service),
		tool.NewUserTools(service),
		tool.NewSearchTools(service),
		tool.NewResourceTools(resources),
	)
	require.NoError(t, err)
	srv, err := New(tool.NewDispatcher(registry, nil), resources, options...)
	require.NoError(t, err)
	return fixture, srv
}

func newTestHandler(t *testing.T) (*trackertest.Tracker, *recordingTransport, *Handler) {
	t.Helper()
	fixture, srv := newTestServer(t)
	recorder := &recordingTransport{}
	return fixture, recorder, srv.newHandler(recorder)
}

func serve(t *testing.T, handler *Handler, id int, method string, params string) *jsonrpc.Response {
	t.Helper()
	request := &jsonrpc.Request{Jsonrpc: jsonrpc.Version, Id: id, Method: method}
	if params != "" {
		request.Params = json.RawMessage(params)
	}
	response := &jsonrpc.Response{}
	handler.Serve(context.Background(), request, response)
	return response
}

func decodeResult(t *testing.T, response *jsonrpc.Response, target interface{}) {
	t.Helper()
	require.Nil(t, response.Error)
	require.NoError(t, json.Unmarshal(response.Result, target))
}
