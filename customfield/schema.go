// Package customfield resolves project field schemas, validates candidate
// values and encodes them into the tracker's tagged custom field shapes.
package customfield

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// FieldType discriminates how a field's value is validated and encoded.
type FieldType string

const (
	TypeState        FieldType = "state"
	TypeStateMachine FieldType = "state-machine"
	TypeEnum         FieldType = "enum"
	TypeUser         FieldType = "user"
	TypeMultiUser    FieldType = "multi-user"
	TypeDateTime     FieldType = "date-time"
	TypeInteger      FieldType = "integer"
	TypeFloat        FieldType = "float"
	TypePeriod       FieldType = "period"
	TypeString       FieldType = "string"
	TypeText         FieldType = "text"
	TypeUnknown      FieldType = "unknown"
)

// Schema describes a field as bound to one project.
type Schema struct {
	ProjectID string    `json:"project_id"`
	BindingID string    `json:"binding_id,omitempty"`
	FieldID   string    `json:"field_id,omitempty"`
	Name      string    `json:"name"`
	Type      FieldType `json:"type"`
	TypeID    string    `json:"type_id,omitempty"`
	Required  bool      `json:"required"`
	Multi     bool      `json:"multi_value"`
	BundleID  string    `json:"bundle_id,omitempty"`
}

// BundleKind returns the bundle collection holding the field's values.
func (s *Schema) BundleKind() string {
	switch s.Type {
	case TypeState, TypeStateMachine:
		return "state"
	case TypeEnum:
		return "enum"
	case TypeUser, TypeMultiUser:
		return "user"
	}
	return ""
}

// NewSchema maps a project binding to a schema.
func NewSchema(projectID string, binding *api.ProjectCustomField) *Schema {
	schema := &Schema{ProjectID: projectID, BindingID: binding.ID, Required: !binding.CanBeEmpty, Type: TypeUnknown}
	if binding.Bundle != nil {
		schema.BundleID = binding.Bundle.ID
	}
	if binding.Field == nil {
		return schema
	}
	schema.FieldID = binding.Field.ID
	schema.Name = binding.Field.Name
	if fieldType := binding.Field.FieldType; fieldType != nil {
		schema.TypeID = fieldType.ID
		if schema.TypeID == "" {
			schema.TypeID = fieldType.ValueType
		}
		schema.Type, schema.Multi = typeOf(schema.TypeID)
		if schema.Type == TypeState && (strings.Contains(fieldType.Type, "StateMachine") || strings.Contains(binding.Type, "StateMachine")) {
			schema.Type = TypeStateMachine
		}
	}
	return schema
}

// typeOf maps a tracker field type id such as "enum[*]" or "date and time".
func typeOf(id string) (FieldType, bool) {
	base, multi := id, false
	if index := strings.Index(id, "["); index != -1 {
		base = id[:index]
		multi = strings.HasPrefix(id[index:], "[*")
	}
	switch strings.ToLower(strings.TrimSpace(base)) {
	case "state":
		return TypeState, false
	case "enum":
		return TypeEnum, multi
	case "user":
		if multi {
			return TypeMultiUser, true
		}
		return TypeUser, false
	case "date and time", "date":
		return TypeDateTime, false
	case "integer":
		return TypeInteger, false
	case "float":
		return TypeFloat, false
	case "period":
		return TypePeriod, false
	case "string":
		return TypeString, false
	case "text":
		return TypeText, false
	}
	return TypeUnknown, multi
}

// AllowedValue is a member of a field's value bundle.
type AllowedValue struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Color       interface{} `json:"color,omitempty"`
	Resolved    *bool       `json:"isResolved,omitempty"`
	Login       string      `json:"login,omitempty"`
	Email       string      `json:"email,omitempty"`
}

// Label returns the string a caller supplies to select this value.
func (v *AllowedValue) Label() string {
	if v.Login != "" {
		return v.Login
	}
	return v.Name
}

const (
	schemaCacheTTL     = 5 * time.Minute
	schemaCacheCleanup = 10 * time.Minute
)

// Resolver looks up and caches field schemas per project.
type Resolver struct {
	client   *tracker.Client
	projects *api.Projects
	users    *api.Users
	cache    *cache.Cache
}

// NewResolver creates a resolver over service.
func NewResolver(service *api.Service) *Resolver {
	return &Resolver{
		client:   service.Client,
		projects: service.Projects,
		users:    service.Users,
		cache:    cache.New(schemaCacheTTL, schemaCacheCleanup),
	}
}

// Schemas returns every field schema of a project in binding order.
func (r *Resolver) Schemas(ctx context.Context, project string) ([]*Schema, error) {
	resolved, err := r.projects.Resolve(ctx, project)
	if err != nil {
		return nil, err
	}
	key := "schema:" + resolved.ID
	if cached, ok := r.cache.Get(key); ok {
		return cached.([]*Schema), nil
	}
	bindings, err := r.projects.CustomFields(ctx, resolved.ID)
	if err != nil {
		return nil, err
	}
	schemas := make([]*Schema, 0, len(bindings))
	for _, binding := range bindings {
		schemas = append(schemas, NewSchema(resolved.ID, binding))
	}
	r.cache.SetDefault(key, schemas)
	return schemas, nil
}

// Schema returns the schema of the named field; names match case-sensitively.
func (r *Resolver) Schema(ctx context.Context, project, name string) (*Schema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, tracker.BadInput("field name is required")
	}
	schemas, err := r.Schemas(ctx, project)
	if err != nil {
		return nil, err
	}
	for _, schema := range schemas {
		if schema.Name == name {
			return schema, nil
		}
	}
	return nil, tracker.NotFound("field %q is not attached to project %v", name, project)
}

// AllowedValues lists the values a field accepts. An empty result means the
// bundle could not be determined.
func (r *Resolver) AllowedValues(ctx context.Context, schema *Schema) ([]*AllowedValue, error) {
	switch schema.BundleKind() {
	case "user":
		users, err := r.users.All(ctx)
		if err != nil {
			return nil, err
		}
		values := make([]*AllowedValue, 0, len(users))
		for _, user := range users {
			values = append(values, &AllowedValue{ID: user.ID, Name: user.Name, Login: user.Login, Email: user.Email})
		}
		return values, nil
	case "":
		return nil, nil
	}
	bundleID, err := r.bundleID(ctx, schema)
	if err != nil || bundleID == "" {
		return nil, err
	}
	kind := schema.BundleKind()
	fields := "values(id,name,description,color)"
	if kind == "state" {
		fields = "values(id,name,description,color,isResolved)"
	}
	var bundle struct {
		Values []*AllowedValue `json:"values"`
	}
	endpoint := "admin/customFieldSettings/bundles/" + kind + "/" + bundleID
	if err = r.client.Get(ctx, endpoint, url.Values{"fields": {fields}}, &bundle); err != nil {
		return nil, err
	}
	return bundle.Values, nil
}

func (r *Resolver) bundleID(ctx context.Context, schema *Schema) (string, error) {
	if schema.BundleID != "" {
		return schema.BundleID, nil
	}
	key := "bundle:" + schema.ProjectID + ":" + schema.Name
	if cached, ok := r.cache.Get(key); ok {
		return cached.(string), nil
	}
	bindings, err := r.projects.Bundles(ctx, schema.ProjectID)
	if err != nil {
		return "", err
	}
	var bundleID string
	for _, binding := range bindings {
		if binding.Field != nil && binding.Field.Name == schema.Name && binding.Bundle != nil {
			bundleID = binding.Bundle.ID
			break
		}
	}
	r.cache.SetDefault(key, bundleID)
	return bundleID, nil
}
