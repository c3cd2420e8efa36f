// Package tool defines the operations exposed to MCP hosts, normalizes the
// argument shapes hosts send and dispatches calls to the winning provider.
package tool

import "context"

// Category selects the argument aliases applied before a call.
type Category string

const (
	CategoryIssue   Category = "issue"
	CategoryProject Category = "project"
	CategoryGeneric Category = "generic"
)

// Param describes one tool parameter.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Type is a JSON schema type name; empty means string.
	Type     string `json:"type,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Handler implements a tool. The returned value is rendered as JSON.
type Handler func(ctx context.Context, args Args) (interface{}, error)

// Definition is a named tool with its parameter surface.
type Definition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []*Param `json:"parameters"`
	Provider    string   `json:"provider"`
	Priority    int      `json:"priority"`
	Category    Category `json:"category"`
	Handler     Handler  `json:"-"`
}

// ParamType returns the JSON schema type of p.
func (p *Param) ParamType() string {
	if p.Type == "" {
		return "string"
	}
	return p.Type
}

// Required returns the names of required parameters in order.
func (d *Definition) Required() []string {
	var result []string
	for _, param := range d.Params {
		if param.Required {
			result = append(result, param.Name)
		}
	}
	return result
}

// Provider publishes a category of tools.
type Provider interface {
	Name() string
	Category() Category
	Definitions() []*Definition
}

func required(name, description string) *Param {
	return &Param{Name: name, Description: description, Required: true}
}

func optional(name, description string) *Param {
	return &Param{Name: name, Description: description}
}

func typed(param *Param, paramType string) *Param {
	param.Type = paramType
	return param
}
