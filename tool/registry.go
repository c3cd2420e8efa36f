package tool

import (
	"fmt"
	"sort"
)

// DefaultPriority applies to tools missing from the priority table.
const DefaultPriority = 10

// PriorityTable maps provider name and tool name to a priority.
type PriorityTable map[string]map[string]int

// DefaultPriorities prefers the specialized providers for shared tool names.
var DefaultPriorities = PriorityTable{
	"SearchTools":      {"search_issues": 20},
	"ProjectTools":     {"get_project_issues": 20},
	"CustomFieldTools": {"get_project_custom_fields": 20},
}

// Priority returns the priority of provider's tool.
func (t PriorityTable) Priority(provider, name string) int {
	if priority, ok := t[provider][name]; ok {
		return priority
	}
	return DefaultPriority
}

// Registry is the resolved, read-only tool map.
type Registry struct {
	tools map[string]*Definition
	names []string
}

// NewRegistry resolves tool names across providers, taken in order. The
// highest priority wins; on a tie the earlier provider keeps the name.
func NewRegistry(priorities PriorityTable, providers ...Provider) (*Registry, error) {
	if priorities == nil {
		priorities = DefaultPriorities
	}
	tools := map[string]*Definition{}
	for _, provider := range providers {
		seen := map[string]bool{}
		for _, definition := range provider.Definitions() {
			if definition.Name == "" || definition.Handler == nil {
				return nil, fmt.Errorf("provider %v published an incomplete tool %q", provider.Name(), definition.Name)
			}
			if seen[definition.Name] {
				return nil, fmt.Errorf("provider %v published tool %v twice", provider.Name(), definition.Name)
			}
			seen[definition.Name] = true
			resolved := *definition
			resolved.Provider = provider.Name()
			resolved.Category = provider.Category()
			resolved.Priority = priorities.Priority(resolved.Provider, resolved.Name)
			if current, ok := tools[resolved.Name]; ok && current.Priority >= resolved.Priority {
				continue
			}
			tools[resolved.Name] = &resolved
		}
	}
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{tools: tools, names: names}, nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	definition, ok := r.tools[name]
	return definition, ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Definitions returns the registered tools ordered by name.
func (r *Registry) Definitions() []*Definition {
	result := make([]*Definition, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.tools[name])
	}
	return result
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.names)
}
