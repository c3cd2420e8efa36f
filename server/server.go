package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tonyzorin/youtrack-mcp/resource"
	"github.com/tonyzorin/youtrack-mcp/tool"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcp-protocol/syncmap"
)

// Server exposes tools and resources over MCP and the REST tool surface.
type Server struct {
	dispatcher      *tool.Dispatcher
	resources       *resource.Provider
	info            schema.Implementation
	instructions    *string
	protocolVersion string
	loggerName      string
	logger          *slog.Logger

	httpServer
}

// NewHandler creates a handler for one transport session.
func (s *Server) NewHandler(_ context.Context, transport transport.Transport) transport.Handler {
	return s.newHandler(transport)
}

func (s *Server) newHandler(transport transport.Transport) *Handler {
	ret := &Handler{
		Server:         s,
		Notifier:       transport,
		activeContexts: syncmap.NewMap[string, *activeContext](),
		loggingLevel:   schema.Warning,
	}
	ret.Logger = NewLogger(s.loggerName, &ret.loggingLevel, transport)
	return ret
}

// Dispatcher returns the tool dispatcher.
func (s *Server) Dispatcher() *tool.Dispatcher {
	return s.dispatcher
}

// New creates a server over dispatcher and resources.
func New(dispatcher *tool.Dispatcher, resources *resource.Provider, options ...Option) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("no tool dispatcher specified")
	}
	s := &Server{
		dispatcher: dispatcher,
		resources:  resources,
		info: schema.Implementation{
			Name:    "youtrack-mcp",
			Version: "dev",
		},
		loggerName:      "youtrack-mcp",
		protocolVersion: schema.LatestProtocolVersion,
		logger:          slog.Default(),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}
