package customfield

import (
	"context"
	"strconv"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/internal/conv"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// Validation modes.
const (
	ModeValidated   = "validated"
	ModeDegraded    = "degraded"
	ModeUnvalidated = "unvalidated"
)

// Validation is the outcome of checking a value against a field schema.
type Validation struct {
	Valid         bool        `json:"valid"`
	Field         string      `json:"field"`
	Value         interface{} `json:"value"`
	FieldType     FieldType   `json:"field_type,omitempty"`
	Mode          string      `json:"mode"`
	Message       string      `json:"message,omitempty"`
	AllowedValues []string    `json:"allowed_values,omitempty"`
}

// Validate checks value against the named field of project. Missing schemas
// and empty bundles pass in degraded mode; lookup failures pass unvalidated.
func (r *Resolver) Validate(ctx context.Context, project, name string, value interface{}) *Validation {
	schema, err := r.Schema(ctx, project, name)
	if err != nil {
		result := &Validation{Valid: true, Field: name, Value: value, Mode: ModeUnvalidated, Message: err.Error()}
		if tracker.IsKind(err, tracker.KindNotFound) {
			result.Mode = ModeDegraded
		}
		return result
	}
	return r.ValidateSchema(ctx, schema, value)
}

// ValidateSchema checks value against a resolved schema.
func (r *Resolver) ValidateSchema(ctx context.Context, schema *Schema, value interface{}) *Validation {
	result := &Validation{Valid: true, Field: schema.Name, Value: value, FieldType: schema.Type, Mode: ModeValidated}
	if value == nil {
		if schema.Required {
			result.Valid = false
			result.Message = "field " + schema.Name + " cannot be empty"
		}
		return result
	}
	switch schema.Type {
	case TypeState, TypeStateMachine, TypeEnum:
		r.validateBundle(ctx, schema, value, result)
	case TypeUser, TypeMultiUser:
		r.validateUsers(ctx, asStrings(value), result)
	case TypeDateTime:
		if _, err := ParseMillis(value); err != nil {
			result.invalid(err.Error())
		}
	case TypeInteger:
		if _, err := strconv.ParseInt(strings.TrimSpace(conv.AsString(value)), 10, 64); err != nil {
			result.invalid("value " + strconv.Quote(conv.AsString(value)) + " is not an integer")
		}
	case TypeFloat:
		if _, err := strconv.ParseFloat(strings.TrimSpace(conv.AsString(value)), 64); err != nil {
			result.invalid("value " + strconv.Quote(conv.AsString(value)) + " is not a number")
		}
	case TypeUnknown:
		result.Mode = ModeDegraded
	}
	return result
}

func (v *Validation) invalid(message string) {
	v.Valid = false
	v.Message = message
}

func (r *Resolver) validateBundle(ctx context.Context, schema *Schema, value interface{}, result *Validation) {
	allowed, err := r.AllowedValues(ctx, schema)
	if err != nil {
		result.Mode = ModeUnvalidated
		result.Message = err.Error()
		return
	}
	if len(allowed) == 0 {
		result.Mode = ModeDegraded
		return
	}
	names := make(map[string]bool, len(allowed))
	for _, item := range allowed {
		names[item.Name] = true
		result.AllowedValues = append(result.AllowedValues, item.Name)
	}
	candidates := []string{strings.TrimSpace(conv.AsString(value))}
	if schema.Multi {
		candidates = asStrings(value)
	}
	for _, candidate := range candidates {
		if !names[candidate] {
			result.invalid("value " + strconv.Quote(candidate) + " is not allowed for field " + schema.Name)
			return
		}
	}
	result.AllowedValues = nil
}

func (r *Resolver) validateUsers(ctx context.Context, logins []string, result *Validation) {
	for _, login := range logins {
		_, err := r.users.ByLogin(ctx, login)
		if err == nil {
			continue
		}
		if tracker.IsKind(err, tracker.KindNotFound) {
			result.invalid("user " + strconv.Quote(login) + " does not exist")
			return
		}
		result.Mode = ModeUnvalidated
		result.Message = err.Error()
		return
	}
}
