// Package tracker performs HTTP requests against the tracker REST API.
//
// A Client owns the shared HTTP session. Each call is bounded by a deadline,
// retried on transient failures and classified into a tracker Error.
package tracker

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tonyzorin/youtrack-mcp/config"
	"github.com/tonyzorin/youtrack-mcp/internal/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const tracerName = "github.com/tonyzorin/youtrack-mcp/tracker"

// Client is the tracker transport shared by all resource clients.
type Client struct {
	apiURL         string
	instanceURL    string
	httpClient     *http.Client
	base           *http.Client
	retrier        *Retrier
	timeout        time.Duration
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	userAgent      string
}

// New creates a client for the configured tracker.
func New(cfg *config.Config, options ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config was nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		apiURL:      cfg.APIURL(),
		instanceURL: cfg.InstanceURL(),
		timeout:     cfg.Timeout,
		userAgent:   version.UserAgent(),
	}
	for _, option := range options {
		option(c)
	}
	if c.retrier == nil {
		c.retrier = NewRetrier(cfg.MaxRetries, cfg.RetryBaseDelay())
	}
	if c.timeout <= 0 {
		c.timeout = config.DefaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	c.tracer = c.tracerProvider.Tracer(tracerName)
	c.httpClient = c.newHTTPClient(cfg)
	return c, nil
}

func (c *Client) newHTTPClient(cfg *config.Config) *http.Client {
	var base http.RoundTripper
	var timeout time.Duration
	if c.base != nil {
		base = c.base.Transport
		timeout = c.base.Timeout
	}
	if base == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if !cfg.VerifySSL {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicitly requested by VERIFY_SSL=false
			c.logger.Debug("tracker TLS certificate verification disabled")
		}
		base = transport
	}
	token := &oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}
	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   base,
		},
	}
}

// InstanceURL returns the tracker URL without the REST suffix.
func (c *Client) InstanceURL() string {
	return c.instanceURL
}

// Close releases idle connections of the shared session.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Request performs a call and returns the decoded JSON body.
// An empty 2xx body yields "{}"; a non-JSON body yields {"raw_content": ...}.
func (c *Client) Request(ctx context.Context, method, endpoint string, query url.Values, body interface{}) (json.RawMessage, error) {
	endpoint = normalizeEndpoint(endpoint)
	var payload []byte
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, BadInput("failed to encode request body for %v: %v", endpoint, err)
		}
	}
	return c.execute(ctx, method, endpoint, query, payload, "application/json")
}

// Get decodes a GET response into out.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	data, err := c.Request(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return err
	}
	return decode(endpoint, data, out)
}

// Post sends body as JSON and decodes the response into out when out is not nil.
func (c *Client) Post(ctx context.Context, endpoint string, query url.Values, body, out interface{}) error {
	data, err := c.Request(ctx, http.MethodPost, endpoint, query, body)
	if err != nil {
		return err
	}
	return decode(endpoint, data, out)
}

// Delete removes the addressed entity.
func (c *Client) Delete(ctx context.Context, endpoint string, query url.Values) error {
	_, err := c.Request(ctx, http.MethodDelete, endpoint, query, nil)
	return err
}

// Download fetches binary content through the shared session.
// Location may be absolute or relative to the tracker instance.
// Content larger than limit bytes is rejected when limit is positive.
func (c *Client) Download(ctx context.Context, location string, limit int64) ([]byte, error) {
	target := location
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		target = c.instanceURL + "/" + strings.TrimLeft(location, "/")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, "tracker.download", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var data []byte
	err := c.retrier.Do(ctx, location, func(ctx context.Context) error {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return BadInput("invalid download location %v: %v", location, err)
		}
		request.Header.Set("User-Agent", c.userAgent)
		response, err := c.httpClient.Do(request)
		if err != nil {
			return TransportError(location, err)
		}
		defer response.Body.Close()
		reader := io.Reader(response.Body)
		if limit > 0 {
			reader = io.LimitReader(response.Body, limit+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return TransportError(location, err)
		}
		if response.StatusCode >= 400 {
			return Classify(response.StatusCode, location, body)
		}
		if limit > 0 && int64(len(body)) > limit {
			return Validation("content of %v exceeds the %d byte limit", location, limit)
		}
		data = body
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("tracker.download.bytes", len(data)))
	return data, nil
}

// Upload posts a single file as multipart form data.
func (c *Client) Upload(ctx context.Context, endpoint string, query url.Values, filename string, content []byte, out interface{}) error {
	endpoint = normalizeEndpoint(endpoint)
	buffer := &bytes.Buffer{}
	writer := multipart.NewWriter(buffer)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return BadInput("failed to create form file: %v", err)
	}
	if _, err = part.Write(content); err != nil {
		return BadInput("failed to write form file: %v", err)
	}
	if err = writer.Close(); err != nil {
		return BadInput("failed to close form: %v", err)
	}
	data, err := c.execute(ctx, http.MethodPost, endpoint, query, buffer.Bytes(), writer.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(endpoint, data, out)
}

func (c *Client) execute(ctx context.Context, method, endpoint string, query url.Values, payload []byte, contentType string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, "tracker "+method, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("tracker.endpoint", endpoint),
		))
	defer span.End()

	target := c.apiURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	attempts := 0
	var result json.RawMessage
	err := c.retrier.Do(ctx, endpoint, func(ctx context.Context) error {
		attempts++
		started := time.Now()
		data, status, err := c.send(ctx, method, target, endpoint, payload, contentType)
		c.logger.Debug("tracker request", "method", method, "endpoint", endpoint, "status", status, "attempt", attempts, "elapsed", time.Since(started), "error", err)
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	span.SetAttributes(attribute.Int("tracker.attempts", attempts))
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, method, target, endpoint string, payload []byte, contentType string) (json.RawMessage, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, 0, BadInput("invalid request for %v: %v", endpoint, err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("User-Agent", c.userAgent)
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, 0, TransportError(endpoint, err)
	}
	defer response.Body.Close()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, response.StatusCode, TransportError(endpoint, err)
	}
	if response.StatusCode >= 400 {
		return nil, response.StatusCode, Classify(response.StatusCode, endpoint, data)
	}
	return normalizeBody(data), response.StatusCode, nil
}

func normalizeBody(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return json.RawMessage("{}")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	raw, _ := json.Marshal(map[string]string{"raw_content": strings.ToValidUTF8(string(data), "\uFFFD")})
	return raw
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimLeft(endpoint, "/")
	return strings.TrimPrefix(endpoint, "api/")
}

func decode(endpoint string, data json.RawMessage, out interface{}) error {
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindUnknown, Endpoint: endpoint, Message: fmt.Sprintf("failed to decode response of %v: %v", endpoint, err), Body: excerpt(string(data)), Cause: err}
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if trackerErr, ok := AsError(err); ok {
		span.SetAttributes(attribute.String("tracker.error.kind", string(trackerErr.Kind)))
		if trackerErr.Status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", trackerErr.Status))
		}
	}
}
