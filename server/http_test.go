package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, handler http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		request.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body), recorder.Body.String())
	return body
}

func TestRouter_Health(t *testing.T) {
	_, srv := newTestServer(t)
	recorder := doRequest(t, srv.Router(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, "ok", body["status"])
	assert.Greater(t, body["tools"], float64(40))
}

func TestRouter_ListTools(t *testing.T) {
	_, srv := newTestServer(t)
	recorder := doRequest(t, srv.Router(), http.MethodGet, "/api/tools", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	tools, ok := decodeBody(t, recorder)["tools"].(map[string]interface{})
	require.True(t, ok)
	searchIssues, ok := tools["search_issues"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SearchTools", searchIssues["provider"])
	assert.Equal(t, float64(20), searchIssues["priority"])
}

func TestRouter_CallTool(t *testing.T) {
	fixture, srv := newTestServer(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-7", 0, `{"id":"3-7","idReadable":"DEMO-7","summary":"Crash"}`)
	router := srv.Router()

	recorder := doRequest(t, router, http.MethodPost, "/api/tools/get_issue", `{"arguments":{"issue_id":"DEMO-7"}}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	result, ok := decodeBody(t, recorder)["result"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Crash", result["summary"])

	recorder = doRequest(t, router, http.MethodPost, "/api/tools/get_issue", `{"arguments":"DEMO-7"}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_CallToolErrors(t *testing.T) {
	fixture, srv := newTestServer(t)
	fixture.On(http.MethodGet, "/api/issues/DEMO-404", http.StatusNotFound, `{"error":"Not Found"}`)
	router := srv.Router()

	var testCases = []struct {
		description string
		target      string
		body        string
		status      int
	}{
		{description: "unknown tool", target: "/api/tools/drop_database", body: `{}`, status: http.StatusNotFound},
		{description: "malformed body", target: "/api/tools/get_issue", body: `{"arguments":`, status: http.StatusBadRequest},
		{description: "tracker error", target: "/api/tools/get_issue", body: `{"arguments":{"issue_id":"DEMO-404"}}`, status: http.StatusOK},
	}
	for _, testCase := range testCases {
		recorder := doRequest(t, router, http.MethodPost, testCase.target, testCase.body, nil)
		assert.Equal(t, testCase.status, recorder.Code, testCase.description)
		assert.Contains(t, recorder.Body.String(), "error", testCase.description)
	}
}

func TestRouter_CORS(t *testing.T) {
	_, srv := newTestServer(t)
	router := srv.Router()

	recorder := doRequest(t, router, http.MethodGet, "/health", "", map[string]string{"Origin": "https://claude.example"})
	assert.Equal(t, "https://claude.example", recorder.Header().Get(AllowOriginHeader))

	recorder = doRequest(t, router, http.MethodOptions, "/api/tools/get_issue", "", map[string]string{
		"Origin":                "https://claude.example",
		AllControlRequestHeader: http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, http.MethodPost, recorder.Header().Get(AllowMethodsHeader))
}

func TestRouter_RestrictedOrigins(t *testing.T) {
	_, srv := newTestServer(t, WithCORS(&Cors{AllowOrigins: []string{"https://trusted.example"}}))
	router := srv.Router()

	recorder := doRequest(t, router, http.MethodGet, "/api/tools", "", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Empty(t, recorder.Header().Get(AllowOriginHeader))

	recorder = doRequest(t, router, http.MethodGet, "/api/tools", "", map[string]string{"Origin": "https://trusted.example"})
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_BearerAuth(t *testing.T) {
	const secret = "s3cret"
	_, srv := newTestServer(t, WithAuthSecret(secret))
	router := srv.Router()

	sign := func(key string, method jwt.SigningMethod) string {
		claims := jwt.RegisteredClaims{Subject: "tester", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
		token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
		require.NoError(t, err)
		return token
	}
	var testCases = []struct {
		description   string
		authorization string
		status        int
	}{
		{description: "missing", status: http.StatusUnauthorized},
		{description: "not bearer", authorization: "Basic dXNlcg==", status: http.StatusUnauthorized},
		{description: "wrong key", authorization: "Bearer " + sign("other", jwt.SigningMethodHS256), status: http.StatusUnauthorized},
		{description: "wrong method", authorization: "Bearer " + sign(secret, jwt.SigningMethodHS512), status: http.StatusUnauthorized},
		{description: "valid", authorization: "Bearer " + sign(secret, jwt.SigningMethodHS256), status: http.StatusOK},
	}
	for _, testCase := range testCases {
		headers := map[string]string{}
		if testCase.authorization != "" {
			headers["Authorization"] = testCase.authorization
		}
		recorder := doRequest(t, router, http.MethodGet, "/api/tools", "", headers)
		assert.Equal(t, testCase.status, recorder.Code, testCase.description)
	}

	recorder := doRequest(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestWithAuthSecretRejectsEmpty(t *testing.T) {
	assert.Error(t, WithAuthSecret("")(&Server{}))
}
