package config

import "strings"

const (
	permColonPrefix = "perm:"
	permDashPrefix  = "perm-"
)

// NormalizeToken adds the permanent token prefix the tracker expects.
// Tokens made of dot separated base64 segments get "perm-", all others "perm:".
// Already prefixed tokens are returned unchanged.
func NormalizeToken(token string) string {
	if token == "" || HasPermPrefix(token) {
		return token
	}
	if strings.Contains(token, ".") && strings.Contains(token, "=") {
		return permDashPrefix + token
	}
	return permColonPrefix + token
}

// HasPermPrefix reports whether token already carries a permanent token prefix.
func HasPermPrefix(token string) bool {
	return strings.HasPrefix(token, permColonPrefix) || strings.HasPrefix(token, permDashPrefix)
}
