package server

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	AllowOriginHeader       = "Access-Control-Allow-Origin"
	AllowHeadersHeader      = "Access-Control-Allow-Headers"
	AllowMethodsHeader      = "Access-Control-Allow-Methods"
	AllControlRequestHeader = "Access-Control-Request-Method"
	AllowCredentialsHeader  = "Access-Control-Allow-Credentials"
	ExposeHeadersHeader     = "Access-Control-Expose-Headers"
	MaxAgeHeader            = "Access-Control-Max-Age"
	Separator               = ", "

	defaultAllowHeaders  = "Content-Type, Authorization, Mcp-Session-Id"
	defaultExposeHeaders = "Content-Type, Mcp-Session-Id"
)

// Cors describes the cross-origin policy of the HTTP surface.
type Cors struct {
	AllowCredentials *bool
	AllowHeaders     []string
	AllowMethods     []string
	AllowOrigins     []string
	ExposeHeaders    []string
	MaxAge           *int64
}

func (c *Cors) allows(origin string) bool {
	for _, candidate := range c.AllowOrigins {
		if candidate == "*" || candidate == origin {
			return true
		}
	}
	return false
}

type corsHandler struct {
	*Cors
}

// Middleware sets CORS headers and answers preflight requests.
func (h *corsHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Cors.setHeaders(w, r)
		if r.Method == http.MethodOptions && r.Header.Get(AllControlRequestHeader) != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *Cors) setHeaders(writer http.ResponseWriter, request *http.Request) {
	if c == nil {
		return
	}
	header := writer.Header()
	origin := request.Header.Get("Origin")
	switch {
	case origin == "" && c.allows("*"):
		header.Set(AllowOriginHeader, "*")
	case origin != "" && c.allows(origin):
		header.Set(AllowOriginHeader, origin)
		header.Add("Vary", "Origin")
	}
	if len(c.AllowMethods) > 0 {
		methods := strings.Join(c.AllowMethods, Separator)
		if methods == "*" {
			methods = request.Method
			if requested := request.Header.Get(AllControlRequestHeader); requested != "" {
				methods = requested
			}
		}
		header.Set(AllowMethodsHeader, methods)
	}
	if len(c.AllowHeaders) > 0 {
		allowedHeaders := strings.Join(c.AllowHeaders, Separator)
		if allowedHeaders == "*" {
			allowedHeaders = defaultAllowHeaders
		}
		header.Set(AllowHeadersHeader, allowedHeaders)
	}
	if c.AllowCredentials != nil {
		header.Set(AllowCredentialsHeader, strconv.FormatBool(*c.AllowCredentials))
	}
	if c.MaxAge != nil {
		header.Set(MaxAgeHeader, strconv.FormatInt(*c.MaxAge, 10))
	}
	if len(c.ExposeHeaders) > 0 {
		exposedHeaders := strings.Join(c.ExposeHeaders, Separator)
		if exposedHeaders == "*" {
			exposedHeaders = defaultExposeHeaders
		}
		header.Set(ExposeHeadersHeader, exposedHeaders)
	}
}

// defaultCors permits every origin.
func defaultCors() *Cors {
	maxAge := int64(600)
	return &Cors{
		AllowCredentials: &[]bool{true}[0],
		AllowHeaders:     []string{"*"},
		AllowMethods:     []string{"*"},
		AllowOrigins:     []string{"*"},
		ExposeHeaders:    []string{"*"},
		MaxAge:           &maxAge,
	}
}
