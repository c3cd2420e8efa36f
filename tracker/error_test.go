package tracker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	var testCases = []struct {
		status    int
		expect    Kind
		retryable bool
	}{
		{status: 400, expect: KindValidation},
		{status: 401, expect: KindAuthentication},
		{status: 403, expect: KindPermission},
		{status: 404, expect: KindNotFound},
		{status: 405, expect: KindUnknown},
		{status: 409, expect: KindUnknown},
		{status: 429, expect: KindRateLimited, retryable: true},
		{status: 500, expect: KindServer, retryable: true},
		{status: 503, expect: KindServer, retryable: true},
	}
	for _, testCase := range testCases {
		err := Classify(testCase.status, "issues/X", nil)
		assert.Equal(t, testCase.expect, err.Kind, "status %d", testCase.status)
		assert.Equal(t, testCase.retryable, err.Retryable(), "status %d", testCase.status)
		assert.Contains(t, err.Error(), fmt.Sprintf("%d", testCase.status))
		assert.Contains(t, err.Error(), "issues/X")
	}
}

func TestClassify_Detail(t *testing.T) {
	var testCases = []struct {
		description string
		body        string
		expect      string
	}{
		{description: "error key", body: `{"error":"Bad Request"}`, expect: "Bad Request"},
		{description: "description key", body: `{"error_description":"Unknown field"}`, expect: "Unknown field"},
		{description: "both keys", body: `{"error":"Not Found","error_description":"Entity not found"}`, expect: "Not Found: Entity not found"},
		{description: "plain text", body: `gateway exploded`, expect: "gateway exploded"},
	}
	for _, testCase := range testCases {
		err := Classify(400, "issues", []byte(testCase.body))
		assert.True(t, strings.HasSuffix(err.Error(), testCase.expect), testCase.description)
	}

	long := strings.Repeat("x", 2000)
	err := Classify(500, "issues", []byte(long))
	assert.Less(t, len(err.Body), 600)
}

func TestAsError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("issue %v not found", "DEMO-1"))
	trackerErr, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, trackerErr.Kind)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
	assert.Equal(t, 0, StatusOf(wrapped))

	cause := errors.New("connection refused")
	transportErr := TransportError("issues", cause)
	assert.ErrorIs(t, transportErr, cause)
	assert.True(t, transportErr.Retryable())
}
