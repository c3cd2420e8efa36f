package tool

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Reserved keyword names hosts use to wrap arguments.
const (
	argsKey   = "args"
	kwargsKey = "kwargs"
)

type alias struct {
	from string
	to   string
}

var categoryAliases = map[Category][]alias{
	CategoryProject: {{from: "project", to: "project_id"}},
	CategoryIssue: {
		{from: "project_id", to: "project"},
		{from: "project_key", to: "project"},
		{from: "issue_key", to: "issue_id"},
	},
}

var genericAliases = []alias{
	{from: "user_id", to: "user"},
	{from: "user_login", to: "login"},
	{from: "custom_field_id", to: "field_id"},
}

// Adapter canonicalizes the argument shapes hosts deliver.
type Adapter struct {
	logger *slog.Logger
}

// NewAdapter creates an adapter.
func NewAdapter(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

// Canonicalize unwraps "args" and "kwargs" and applies the category's name
// aliases. Inputs are not modified. Canonical input is returned unchanged.
func (a *Adapter) Canonicalize(category Category, positional []interface{}, keyword map[string]interface{}) ([]interface{}, map[string]interface{}) {
	resultPositional := append([]interface{}(nil), positional...)
	result := make(map[string]interface{}, len(keyword))
	for key, value := range keyword {
		result[key] = value
	}
	if raw, ok := result[argsKey]; ok {
		delete(result, argsKey)
		resultPositional = a.unwrapArgs(raw, resultPositional, result)
	}
	if raw, ok := result[kwargsKey]; ok {
		delete(result, kwargsKey)
		a.unwrapKwargs(raw, result)
	}
	applyAliases(result, categoryAliases[category])
	applyAliases(result, genericAliases)
	return resultPositional, result
}

func (a *Adapter) unwrapArgs(raw interface{}, positional []interface{}, keyword map[string]interface{}) []interface{} {
	switch actual := raw.(type) {
	case nil:
		return positional
	case string:
		text := strings.TrimSpace(actual)
		if text == "" {
			return positional
		}
		var parsed interface{}
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return prepend(positional, actual)
		}
		if object, ok := parsed.(map[string]interface{}); ok {
			merge(keyword, object)
			return positional
		}
		return prepend(positional, parsed)
	case map[string]interface{}:
		merge(keyword, actual)
		return positional
	case []interface{}:
		return append(append([]interface{}(nil), actual...), positional...)
	}
	return prepend(positional, raw)
}

func (a *Adapter) unwrapKwargs(raw interface{}, keyword map[string]interface{}) {
	switch actual := raw.(type) {
	case map[string]interface{}:
		merge(keyword, actual)
		return
	case string:
		var object map[string]interface{}
		if err := json.Unmarshal([]byte(actual), &object); err == nil && object != nil {
			merge(keyword, object)
			return
		}
	}
	a.logger.Warn("discarding kwargs that are neither an object nor a JSON object string", "kwargs", raw)
}

// Bind assigns positional values to parameters not already named in keyword.
func (a *Adapter) Bind(definition *Definition, positional []interface{}, keyword map[string]interface{}) (Args, error) {
	args := make(Args, len(keyword)+len(positional))
	for key, value := range keyword {
		args[key] = value
	}
	next := 0
	for _, param := range definition.Params {
		if next == len(positional) {
			break
		}
		if _, ok := args[param.Name]; ok {
			continue
		}
		args[param.Name] = positional[next]
		next++
	}
	if next < len(positional) {
		return nil, tracker.BadInput("%v accepts at most %d arguments, got %d positional", definition.Name, len(definition.Params), len(positional))
	}
	return args, nil
}

// merge copies entries from source that target does not already define.
// Nested wrapper keys are dropped.
func merge(target, source map[string]interface{}) {
	for key, value := range source {
		if key == argsKey || key == kwargsKey {
			continue
		}
		if _, ok := target[key]; !ok {
			target[key] = value
		}
	}
}

func prepend(values []interface{}, value interface{}) []interface{} {
	return append([]interface{}{value}, values...)
}

func applyAliases(keyword map[string]interface{}, aliases []alias) {
	for _, item := range aliases {
		value, ok := keyword[item.from]
		if !ok {
			continue
		}
		if _, exists := keyword[item.to]; exists {
			continue
		}
		keyword[item.to] = value
		delete(keyword, item.from)
	}
}
