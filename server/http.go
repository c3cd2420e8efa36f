package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/viant/jsonrpc/transport/server/http/streamable"
)

const (
	defaultAddr       = "127.0.0.1:8000"
	streamableURI     = "/mcp"
	readHeaderTimeout = 10 * time.Second

	protocolVersionHeader = "MCP-Protocol-Version"
)

type httpServer struct {
	addr       string
	cors       *Cors
	authSecret []byte
}

// HTTP returns an HTTP server exposing the REST tool surface and the
// streamable MCP endpoint.
func (s *Server) HTTP(_ context.Context, addr string) *http.Server {
	if addr == "" {
		addr = s.addr
	}
	if addr == "" {
		addr = defaultAddr
	}
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	cors := s.cors
	if cors == nil {
		cors = defaultCors()
	}
	router := chi.NewRouter()
	router.Use((&corsHandler{Cors: cors}).Middleware)
	router.Use(originValidationMiddleware(cors.AllowOrigins))
	router.Get("/health", s.handleHealth)
	router.Group(func(r chi.Router) {
		if len(s.authSecret) > 0 {
			r.Use(bearerAuthMiddleware(s.authSecret, s.logger))
		}
		r.Get("/api/tools", s.handleListTools)
		r.Post("/api/tools/{name}", s.handleCallTool)
		r.Options("/api/tools/{name}", handlePreflight)
		r.With(protocolVersionMiddleware(s.protocolVersion)).
			Handle(streamableURI, streamable.New(s.NewHandler, streamable.WithURI(streamableURI)))
	})
	return router
}

// protocolVersionMiddleware announces the served protocol version. Older
// client versions are accepted and negotiated during initialize.
func protocolVersionMiddleware(version string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(protocolVersionHeader, version)
			next.ServeHTTP(w, r)
		})
	}
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
