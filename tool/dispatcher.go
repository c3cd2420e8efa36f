package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/tonyzorin/youtrack-mcp/format"
	"github.com/tonyzorin/youtrack-mcp/tracker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownTool is returned for calls to unregistered tools.
var ErrUnknownTool = errors.New("unknown tool")

// DefaultTimeout bounds a call including tracker retries.
const DefaultTimeout = 30 * time.Second

const tracerName = "github.com/tonyzorin/youtrack-mcp/tool"

// Result is a rendered tool outcome.
type Result struct {
	Payload string
	IsError bool
}

// Dispatcher invokes registered tools.
type Dispatcher struct {
	registry *Registry
	adapter  *Adapter
	logger   *slog.Logger
	tracer   trace.Tracer
	timeout  time.Duration
}

// DispatcherOption customizes a dispatcher.
type DispatcherOption func(d *Dispatcher)

// WithTimeout sets the per-call deadline.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithTracerProvider sets the span provider.
func WithTracerProvider(provider trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = provider.Tracer(tracerName)
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, logger *slog.Logger, options ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{registry: registry, adapter: NewAdapter(logger), logger: logger, timeout: DefaultTimeout}
	for _, option := range options {
		option(d)
	}
	if d.tracer == nil {
		d.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	return d
}

// Registry returns the resolved tools.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Call runs the named tool. Tool failures are rendered into an error payload;
// only an unknown tool name is returned as an error.
func (d *Dispatcher) Call(ctx context.Context, name string, positional []interface{}, keyword map[string]interface{}) (*Result, error) {
	definition, ok := d.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTool, name)
	}
	invocation := uuid.NewString()
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	ctx, span := d.tracer.Start(ctx, "tool "+name, trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.provider", definition.Provider),
		attribute.String("tool.invocation", invocation),
	))
	defer span.End()

	value, err := d.invoke(ctx, definition, invocation, positional, keyword)
	result := &Result{}
	if err == nil {
		if result.Payload, err = format.JSON(value); err != nil {
			err = &tracker.Error{Kind: tracker.KindUnknown, Message: "failed to encode result: " + err.Error(), Cause: err}
		}
	}
	logger := d.logger.With("tool", name, "provider", definition.Provider, "invocation", invocation)
	if err != nil {
		result.IsError = true
		result.Payload = format.MustJSON(ErrorPayload(err))
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("tool.error.kind", string(kindOf(err))))
		logger.Warn("tool call failed", "duration", time.Since(started), "error", err)
		return result, nil
	}
	logger.Info("tool call", "duration", time.Since(started))
	return result, nil
}

func (d *Dispatcher) invoke(ctx context.Context, definition *Definition, invocation string, positional []interface{}, keyword map[string]interface{}) (value interface{}, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("tool handler panicked", "tool", definition.Name, "invocation", invocation,
				"panic", recovered, "stack", string(debug.Stack()))
			value = nil
			err = fmt.Errorf("internal error in %v: %v", definition.Name, recovered)
		}
	}()
	positional, keyword = d.adapter.Canonicalize(definition.Category, positional, keyword)
	args, err := d.adapter.Bind(definition, positional, keyword)
	if err != nil {
		return nil, err
	}
	for _, param := range definition.Params {
		if param.Required && !args.Has(param.Name) {
			return nil, tracker.BadInput("%v is required", param.Name)
		}
	}
	return definition.Handler(ctx, args)
}

// ErrorPayload renders err as {error, status: "error", error_type, ...guidance}.
func ErrorPayload(err error) map[string]interface{} {
	payload := map[string]interface{}{}
	if trackerErr, ok := tracker.AsError(err); ok {
		for key, value := range trackerErr.Guidance {
			payload[key] = value
		}
		if trackerErr.Status != 0 {
			payload["http_status"] = trackerErr.Status
		}
	}
	payload["error"] = err.Error()
	payload["status"] = "error"
	payload["error_type"] = string(kindOf(err))
	return payload
}

func kindOf(err error) tracker.Kind {
	if trackerErr, ok := tracker.AsError(err); ok {
		return trackerErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return tracker.KindTransport
	}
	return tracker.KindUnknown
}
