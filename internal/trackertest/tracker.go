// Package trackertest provides a scripted tracker server for tests.
package trackertest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tonyzorin/youtrack-mcp/config"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Call is a recorded tracker request.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

type reply struct {
	status int
	body   string
}

// Tracker replies to "METHOD /api/path" with scripted responses. Replies
// registered for the same route are served in order; the last one repeats.
// Unscripted routes answer 404.
type Tracker struct {
	mux     sync.Mutex
	replies map[string][]reply
	calls   []*Call
	server  *httptest.Server
}

// New starts a tracker closed with the test.
func New(t testing.TB) *Tracker {
	t.Helper()
	result := &Tracker{replies: map[string][]reply{}}
	result.server = httptest.NewServer(http.HandlerFunc(result.serveHTTP))
	t.Cleanup(result.server.Close)
	return result
}

// On scripts a reply; status 0 means 200.
func (f *Tracker) On(method, path string, status int, body string) *Tracker {
	f.mux.Lock()
	defer f.mux.Unlock()
	key := method + " " + path
	f.replies[key] = append(f.replies[key], reply{status: status, body: body})
	return f
}

// URL returns the server URL.
func (f *Tracker) URL() string {
	return f.server.URL
}

// Calls returns recorded requests in arrival order.
func (f *Tracker) Calls() []*Call {
	f.mux.Lock()
	defer f.mux.Unlock()
	return append([]*Call(nil), f.calls...)
}

// CallsTo returns recorded requests for one route.
func (f *Tracker) CallsTo(method, path string) []*Call {
	var result []*Call
	for _, call := range f.Calls() {
		if call.Method == method && call.Path == path {
			result = append(result, call)
		}
	}
	return result
}

// Client creates a tracker client without retries.
func (f *Tracker) Client(t testing.TB, options ...tracker.Option) *tracker.Client {
	t.Helper()
	cfg := &config.Config{URL: f.server.URL, Token: "perm:test", VerifySSL: true, Timeout: 5 * time.Second}
	options = append([]tracker.Option{tracker.WithRetrier(tracker.NewRetrier(0, 0))}, options...)
	client, err := tracker.New(cfg, options...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func (f *Tracker) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mux.Lock()
	f.calls = append(f.calls, &Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: string(body)})
	key := r.Method + " " + r.URL.Path
	queue := f.replies[key]
	var current reply
	ok := len(queue) > 0
	if ok {
		current = queue[0]
		if len(queue) > 1 {
			f.replies[key] = queue[1:]
		}
	}
	f.mux.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found","error_description":"` + r.URL.Path + `"}`))
		return
	}
	if current.status != 0 {
		w.WriteHeader(current.status)
	}
	_, _ = w.Write([]byte(current.body))
}
