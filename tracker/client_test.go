package tracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonyzorin/youtrack-mcp/config"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, options ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := &config.Config{URL: server.URL, Token: "perm:abc", VerifySSL: true, MaxRetries: 2, Timeout: 5 * time.Second}
	options = append([]Option{WithRetrier(NewRetrier(cfg.MaxRetries, 0))}, options...)
	client, err := New(cfg, options...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, server
}

func TestClient_RequestHeadersAndPath(t *testing.T) {
	var captured *http.Request
	var body []byte
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		body, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"id":"3-1"}`))
	})
	query := map[string][]string{"fields": {"id,idReadable"}}
	data, err := client.Request(context.Background(), http.MethodPost, "/issues", query, map[string]string{"summary": "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"3-1"}`, string(data))

	assert.Equal(t, "/api/issues", captured.URL.Path)
	assert.Equal(t, "id,idReadable", captured.URL.Query().Get("fields"))
	assert.Equal(t, "Bearer perm:abc", captured.Header.Get("Authorization"))
	assert.Equal(t, "application/json", captured.Header.Get("Accept"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"summary":"x"}`, string(body))
}

func TestClient_NoBodyOnGetAndDelete(t *testing.T) {
	var lengths []int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lengths = append(lengths, len(body))
		w.WriteHeader(http.StatusOK)
	})
	_, err := client.Request(context.Background(), http.MethodGet, "issues/DEMO-1", nil, map[string]string{"ignored": "yes"})
	require.NoError(t, err)
	_, err = client.Request(context.Background(), http.MethodDelete, "issues/DEMO-1", nil, map[string]string{"ignored": "yes"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, lengths)
}

func TestClient_BodyNormalization(t *testing.T) {
	var testCases = []struct {
		description string
		body        string
		expect      string
	}{
		{description: "empty body", body: "", expect: `{}`},
		{description: "whitespace body", body: "  \n", expect: `{}`},
		{description: "json array", body: `[1,2]`, expect: `[1,2]`},
		{description: "text body", body: "ok done", expect: `{"raw_content":"ok done"}`},
	}
	for _, testCase := range testCases {
		body := testCase.body
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		data, err := client.Request(context.Background(), http.MethodGet, "issues", nil, nil)
		require.NoError(t, err, testCase.description)
		assert.JSONEq(t, testCase.expect, string(data), testCase.description)
	}
}

func TestClient_APISuffixNotDuplicated(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	}))
	defer server.Close()
	client, err := New(&config.Config{URL: server.URL + "/api", Token: "perm:x", VerifySSL: true}, WithRetrier(NewRetrier(0, 0)))
	require.NoError(t, err)
	_, err = client.Request(context.Background(), http.MethodGet, "api/users/me", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/users/me", path)
}

func TestClient_RetryBudget(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
	})
	_, err := client.Request(context.Background(), http.MethodGet, "issues/DEMO-1", nil, nil)
	require.Error(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	trackerErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindServer, trackerErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, trackerErr.Status)
}

func TestClient_NonRetryableSurfacesImmediately(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found","error_description":"Entity with id DEMO-9 not found"}`))
	})
	err := client.Get(context.Background(), "issues/DEMO-9", nil, &map[string]interface{}{})
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.True(t, IsKind(err, KindNotFound))
	assert.Contains(t, err.Error(), "Entity with id DEMO-9 not found")
	assert.Contains(t, err.Error(), "404")
}

func TestClient_RetryThenSuccess(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"login":"jane"}`))
	})
	var user struct {
		Login string `json:"login"`
	}
	require.NoError(t, client.Get(context.Background(), "users/me", nil, &user))
	assert.Equal(t, "jane", user.Login)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClient_DeadlineIsTransportError(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)
	_, err := client.Request(context.Background(), http.MethodGet, "issues", nil, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
}

func TestClient_Download(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/small":
			_, _ = w.Write([]byte("hello"))
		case "/files/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	data, err := client.Download(context.Background(), "/files/small", 32)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = client.Download(context.Background(), "files/big", 32)
	assert.True(t, IsKind(err, KindValidation))

	_, err = client.Download(context.Background(), "/files/missing", 32)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestClient_Upload(t *testing.T) {
	var filename, content string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		filename, content = header.Filename, string(data)
		_, _ = w.Write([]byte(`[{"id":"9-1","name":"notes.txt"}]`))
	})
	var out []map[string]interface{}
	require.NoError(t, client.Upload(context.Background(), "issues/DEMO-1/attachments", nil, "notes.txt", []byte("body"), &out))
	assert.Equal(t, "notes.txt", filename)
	assert.Equal(t, "body", content)
	assert.Equal(t, "9-1", out[0]["id"])
}

func TestClient_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, WithTracerProvider(provider))
	_, err := client.Request(context.Background(), http.MethodGet, "admin/projects", nil, nil)
	require.Error(t, err)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tracker GET", spans[0].Name())
	var kind string
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "tracker.error.kind" {
			kind = attr.Value.AsString()
		}
	}
	assert.Equal(t, string(KindPermission), kind)
}

func TestClient_DecodeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 5}`))
	})
	var out struct {
		ID []string `json:"id"`
	}
	err := client.Get(context.Background(), "issues/1", nil, &out)
	require.Error(t, err)
	var raw json.RawMessage
	require.NoError(t, client.Get(context.Background(), "issues/1", nil, &raw))
	assert.JSONEq(t, `{"id":5}`, string(raw))
}
