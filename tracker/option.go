package tracker

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Client.
type Option func(c *Client)

// WithHTTPClient sets the base HTTP client; its transport is wrapped with bearer auth.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.base = client
	}
}

// WithRetrier replaces the retry executor.
func WithRetrier(retrier *Retrier) Option {
	return func(c *Client) {
		c.retrier = retrier
	}
}

// WithTimeout sets the per-call deadline covering all retries.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracerProvider sets the tracer provider used for request spans.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = provider
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}
