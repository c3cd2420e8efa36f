package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/internal/trackertest"
)

func newProvider(t *testing.T) (*trackertest.Tracker, *Provider) {
	t.Helper()
	fixture := trackertest.New(t)
	return fixture, New(api.New(fixture.Client(t)), nil)
}

func TestProvider_List(t *testing.T) {
	fixture, provider := newProvider(t)
	fixture.On(http.MethodGet, "/api/admin/projects", 0, `[{"id":"0-1","name":"Demo","shortName":"DEMO"}]`)
	resources := provider.List(context.Background())
	require.Len(t, resources, 5)
	assert.Equal(t, "youtrack://projects", resources[0].URI)
	assert.Equal(t, MimeType, resources[0].MimeType)
	assert.Equal(t, "youtrack://projects/DEMO", resources[3].URI)
	assert.Equal(t, "youtrack://projects/DEMO/issues", resources[4].URI)
}

func TestProvider_ListWithoutProjects(t *testing.T) {
	fixture, provider := newProvider(t)
	fixture.On(http.MethodGet, "/api/admin/projects", http.StatusForbidden, `{"error":"Forbidden"}`)
	assert.Len(t, provider.List(context.Background()), 3)
}

func TestProvider_ReadIssue(t *testing.T) {
	fixture, provider := newProvider(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-123", 0, `{"id":"3-123","idReadable":"DEMO-123","created":1672531200000}`)
	content, err := provider.Read(context.Background(), "youtrack://issues/DEMO-123")
	require.NoError(t, err)
	assert.Equal(t, MimeType, content.MimeType)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(content.Text), &decoded))
	assert.Equal(t, "Issue DEMO-123", decoded["summary"])
	assert.Equal(t, "2023-01-01T00:00:00+00:00", decoded["created_iso8601"])
}

func TestProvider_ReadSearch(t *testing.T) {
	fixture, provider := newProvider(t)
	fixture.On(http.MethodGet, "/api/issues", 0, `[]`)
	_, err := provider.Read(context.Background(), "youtrack://search?query=%23Unresolved")
	require.NoError(t, err)
	query := fixture.Calls()[0].Query
	assert.Equal(t, "#Unresolved", query.Get("query"))
	assert.Equal(t, "50", query.Get("$top"))
}

func TestProvider_Subscriptions(t *testing.T) {
	_, provider := newProvider(t)
	added, err := provider.Subscribe("youtrack://issues/DEMO-1")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = provider.Subscribe("youtrack://issues/DEMO-1/")
	require.NoError(t, err)
	assert.False(t, added)
	_, err = provider.Subscribe("youtrack://nothing")
	assert.Error(t, err)
	_, _ = provider.Subscribe("youtrack://projects")
	assert.Equal(t, []string{"youtrack://issues/DEMO-1", "youtrack://projects"}, provider.Subscriptions())

	removed, err := provider.Unsubscribe("youtrack://projects")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, _ = provider.Unsubscribe("youtrack://projects")
	assert.False(t, removed)

	provider.Close()
	assert.Empty(t, provider.Subscriptions())
}
