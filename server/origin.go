package server

import (
	"net/http"
)

// originValidationMiddleware rejects browser requests whose Origin is not
// listed. Requests without an Origin pass through.
func originValidationMiddleware(allowed []string) func(http.Handler) http.Handler {
	allowedMap := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		allowedMap[v] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || allowedMap["*"] || allowedMap[origin] {
				next.ServeHTTP(w, r)
				return
			}
			writeJSON(w, http.StatusForbidden, &errorBody{Error: "origin not allowed", Status: "error"})
		})
	}
}
