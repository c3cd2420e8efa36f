package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind classifies tracker and caller failures.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindAuthentication      Kind = "authentication"
	KindPermission          Kind = "permission"
	KindNotFound            Kind = "not-found"
	KindRateLimited         Kind = "rate-limited"
	KindServer              Kind = "server"
	KindTransport           Kind = "transport"
	KindUnknown             Kind = "unknown"
	KindWorkflowRestriction Kind = "workflow-restriction"
	KindBadInput            Kind = "bad-input"
)

// maxBodyExcerpt bounds the body text carried in errors.
const maxBodyExcerpt = 500

// Retryable reports whether failures of this kind are transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServer, KindTransport:
		return true
	}
	return false
}

// Error is a classified tracker failure.
type Error struct {
	Kind     Kind
	Status   int
	Endpoint string
	Message  string
	Body     string
	// Guidance carries extra fields surfaced to the MCP host next to the message.
	Guidance map[string]interface{}
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the request may be retried.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var trackerErr *Error
	if errors.As(err, &trackerErr) {
		return trackerErr, true
	}
	return nil, false
}

// IsKind reports whether err is a tracker error of the given kind.
func IsKind(err error, kind Kind) bool {
	trackerErr, ok := AsError(err)
	return ok && trackerErr.Kind == kind
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if trackerErr, ok := AsError(err); ok {
		return trackerErr.Status
	}
	return 0
}

// KindForStatus maps an HTTP status to an error kind; 2xx and 3xx map to "".
func KindForStatus(status int) Kind {
	switch {
	case status < 400:
		return ""
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServer
	}
	return KindUnknown
}

// Classify builds an error for a non-success response.
func Classify(status int, endpoint string, body []byte) *Error {
	kind := KindForStatus(status)
	if kind == "" {
		kind = KindUnknown
	}
	detail := errorDetail(body)
	message := fmt.Sprintf("tracker returned %d for %v", status, endpoint)
	if detail != "" {
		message += ": " + detail
	}
	return &Error{
		Kind:     kind,
		Status:   status,
		Endpoint: endpoint,
		Message:  message,
		Body:     excerpt(string(body)),
	}
}

func errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && (payload.Error != "" || payload.ErrorDescription != "") {
		switch {
		case payload.Error == "":
			return payload.ErrorDescription
		case payload.ErrorDescription == "" || payload.ErrorDescription == payload.Error:
			return payload.Error
		}
		return payload.Error + ": " + payload.ErrorDescription
	}
	return excerpt(strings.TrimSpace(string(body)))
}

func excerpt(text string) string {
	if len(text) <= maxBodyExcerpt {
		return text
	}
	cut := maxBodyExcerpt
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// NewError creates an error of the given kind.
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// BadInput reports a caller side argument problem.
func BadInput(format string, args ...interface{}) *Error {
	return NewError(KindBadInput, format, args...)
}

// NotFound reports a missing entity.
func NotFound(format string, args ...interface{}) *Error {
	return NewError(KindNotFound, format, args...)
}

// Validation reports a rejected value.
func Validation(format string, args ...interface{}) *Error {
	return NewError(KindValidation, format, args...)
}

// TransportError wraps a network or deadline failure.
func TransportError(endpoint string, cause error) *Error {
	return &Error{
		Kind:     KindTransport,
		Endpoint: endpoint,
		Message:  fmt.Sprintf("request to %v failed: %v", endpoint, cause),
		Cause:    cause,
	}
}
