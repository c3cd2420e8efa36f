// Package server exposes the tool dispatcher and issue resources over MCP.
//
// A Server answers JSON-RPC requests on stdio or on the streamable HTTP
// endpoint (/mcp). The HTTP listener also serves a plain REST surface:
//
//	GET  /health
//	GET  /api/tools
//	POST /api/tools/{name}   {"arguments": {...}}
//
// CORS permits every origin unless WithCORS is given. WithAuthSecret turns on
// HS256 bearer token checks for everything except /health.
package server
