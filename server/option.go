package server

import (
	"errors"
	"log/slog"

	"github.com/viant/mcp-protocol/schema"
)

// Option is a function that configures the server.
type Option func(s *Server) error

// WithCORS replaces the permissive default CORS policy.
func WithCORS(cors *Cors) Option {
	return func(s *Server) error {
		s.cors = cors
		return nil
	}
}

// WithAuthSecret enables HS256 bearer token checks on the HTTP surface.
func WithAuthSecret(secret string) Option {
	return func(s *Server) error {
		if secret == "" {
			return errors.New("auth secret was empty")
		}
		s.authSecret = []byte(secret)
		return nil
	}
}

// WithImplementation sets the server implementation.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Server) error {
		s.info = implementation
		return nil
	}
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) error {
		if instructions != "" {
			s.instructions = &instructions
		}
		return nil
	}
}

// WithProtocolVersion overrides the announced protocol version.
func WithProtocolVersion(version string) Option {
	return func(s *Server) error {
		s.protocolVersion = version
		return nil
	}
}

// WithLoggerName sets the logger name used in MCP log notifications.
func WithLoggerName(name string) Option {
	return func(s *Server) error {
		s.loggerName = name
		return nil
	}
}

// WithLogger sets the process logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithEndpointAddress sets the default HTTP listen address.
func WithEndpointAddress(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}
