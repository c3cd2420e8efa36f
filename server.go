package mcp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/config"
	"github.com/tonyzorin/youtrack-mcp/customfield"
	"github.com/tonyzorin/youtrack-mcp/internal/version"
	"github.com/tonyzorin/youtrack-mcp/resource"
	"github.com/tonyzorin/youtrack-mcp/server"
	"github.com/tonyzorin/youtrack-mcp/tool"
	"github.com/tonyzorin/youtrack-mcp/tracker"
	"github.com/tonyzorin/youtrack-mcp/workflow"
	"github.com/viant/afs"
	"github.com/viant/mcp-protocol/schema"
	"go.opentelemetry.io/otel/trace"
)

// ServerOptions defines how the bridge is assembled.
type ServerOptions struct {
	Config         *config.Config
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	CallTimeout    time.Duration
	AuthSecret     string
	Addr           string
	Cors           *server.Cors
	Priorities     tool.PriorityTable
}

// Bridge holds the assembled server and the components it owns.
type Bridge struct {
	*server.Server
	client    *tracker.Client
	resources *resource.Provider
}

// Close releases the tracker connection and resource subscriptions.
func (b *Bridge) Close() {
	b.resources.Close()
	b.client.Close()
}

// NewServer wires the tracker client, tool providers and MCP server.
func NewServer(options *ServerOptions) (*Bridge, error) {
	if options == nil || options.Config == nil {
		return nil, fmt.Errorf("config was nil")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var clientOptions = []tracker.Option{tracker.WithLogger(logger)}
	var dispatcherOptions []tool.DispatcherOption
	if options.TracerProvider != nil {
		clientOptions = append(clientOptions, tracker.WithTracerProvider(options.TracerProvider))
		dispatcherOptions = append(dispatcherOptions, tool.WithTracerProvider(options.TracerProvider))
	}
	if options.CallTimeout > 0 {
		dispatcherOptions = append(dispatcherOptions, tool.WithTimeout(options.CallTimeout))
	}
	client, err := tracker.New(options.Config, clientOptions...)
	if err != nil {
		return nil, err
	}
	service := api.New(client)
	resolver := customfield.NewResolver(service)
	updater := customfield.NewUpdater(service, resolver, logger)
	resources := resource.New(service, logger)
	registry, err := tool.NewRegistry(options.Priorities,
		tool.NewIssueTools(service, afs.New()),
		tool.NewCustomFieldTools(service, updater, workflow.New(service, logger)),
		tool.NewProjectTools(service),
		tool.NewUserTools(service),
		tool.NewSearchTools(service),
		tool.NewResourceTools(resources),
	)
	if err != nil {
		client.Close()
		return nil, err
	}
	dispatcher := tool.NewDispatcher(registry, logger, dispatcherOptions...)

	serverOptions := []server.Option{
		server.WithLogger(logger),
		server.WithImplementation(schema.Implementation{Name: options.Config.ServerName, Version: version.Current()}),
		server.WithLoggerName(options.Config.ServerName),
		server.WithInstructions(options.Config.ServerDescription),
	}
	if options.Addr != "" {
		serverOptions = append(serverOptions, server.WithEndpointAddress(options.Addr))
	}
	if options.Cors != nil {
		serverOptions = append(serverOptions, server.WithCORS(options.Cors))
	}
	if options.AuthSecret != "" {
		serverOptions = append(serverOptions, server.WithAuthSecret(options.AuthSecret))
	}
	srv, err := server.New(dispatcher, resources, serverOptions...)
	if err != nil {
		resources.Close()
		client.Close()
		return nil, err
	}
	logger.Info("tools registered", "count", registry.Len(), "tracker", options.Config.InstanceURL())
	return &Bridge{Server: srv, client: client, resources: resources}, nil
}
