package tool

import (
	"encoding/json"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/internal/conv"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Args are the bound keyword arguments of a call.
type Args map[string]interface{}

// Has reports whether name carries a non-nil value.
func (a Args) Has(name string) bool {
	value, ok := a[name]
	return ok && value != nil
}

// String returns the trimmed string form of name, or "".
func (a Args) String(name string) string {
	return strings.TrimSpace(conv.AsString(a[name]))
}

// OptionalString returns the value of name and whether it was supplied.
func (a Args) OptionalString(name string) (string, bool) {
	if !a.Has(name) {
		return "", false
	}
	return conv.AsString(a[name]), true
}

// Require returns the non-empty string form of name.
func (a Args) Require(name string) (string, error) {
	value := a.String(name)
	if value == "" {
		return "", tracker.BadInput("%v is required", name)
	}
	return value, nil
}

// Int returns name as an int, or fallback when absent or not integral.
func (a Args) Int(name string, fallback int) int {
	if !a.Has(name) {
		return fallback
	}
	if value, ok := conv.AsInt(a[name]); ok {
		return value
	}
	return fallback
}

// Bool returns name as a bool, or fallback when absent or unparsable.
func (a Args) Bool(name string, fallback bool) bool {
	if !a.Has(name) {
		return fallback
	}
	if value, ok := conv.AsBool(a[name]); ok {
		return value
	}
	return fallback
}

// Map returns name as an object; JSON object strings are decoded.
func (a Args) Map(name string) (map[string]interface{}, error) {
	switch actual := a[name].(type) {
	case nil:
		return nil, tracker.BadInput("%v is required", name)
	case map[string]interface{}:
		return actual, nil
	case string:
		var result map[string]interface{}
		if err := json.Unmarshal([]byte(actual), &result); err != nil || result == nil {
			return nil, tracker.BadInput("%v must be a JSON object", name)
		}
		return result, nil
	}
	return nil, tracker.BadInput("%v must be an object", name)
}
