package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/tonyzorin/youtrack-mcp/config"
	"github.com/tonyzorin/youtrack-mcp/internal/version"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 5 * time.Second

// Run parses args and serves until ctx is done or the transport closes.
func Run(ctx context.Context, args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}
	if options.Version {
		fmt.Println(version.Full())
		return nil
	}
	if err := options.Validate(); err != nil {
		return err
	}
	logger := NewLogger(os.Stderr, options.Level())
	slog.SetDefault(logger)

	cfg, err := config.Load(ctx, options.Config, options.Overrides())
	if err != nil {
		return err
	}
	serverOptions := &ServerOptions{
		Config:      cfg,
		Logger:      logger,
		CallTimeout: options.CallDeadline(),
		AuthSecret:  options.HTTPAuthSecret,
		Addr:        options.Addr(),
	}
	if options.Trace {
		provider, err := newTracerProvider(os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = provider.Shutdown(shutdownCtx)
		}()
		serverOptions.TracerProvider = provider
	}
	bridge, err := NewServer(serverOptions)
	if err != nil {
		return err
	}
	defer bridge.Close()

	logger.Info("starting", "version", version.Current(), "transport", options.Transport, "tracker", cfg.InstanceURL())
	if options.Transport == "http" {
		return serveHTTP(ctx, bridge, options.Addr(), logger)
	}
	return bridge.Stdio(ctx).ListenAndServe()
}

func serveHTTP(ctx context.Context, bridge *Bridge, addr string, logger *slog.Logger) error {
	httpServer := bridge.HTTP(ctx, addr)
	done := make(chan error, 1)
	go func() {
		done <- httpServer.ListenAndServe()
	}()
	logger.Info("listening", "addr", httpServer.Addr)
	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// NewLogger returns a text logger; stdout stays reserved for the stdio transport.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.LevelKey {
				if value, ok := attr.Value.Any().(slog.Level); ok && value >= LevelCritical {
					attr.Value = slog.StringValue("CRITICAL")
				}
			}
			return attr
		},
	}))
}

func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)), nil
}
