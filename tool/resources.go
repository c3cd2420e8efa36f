package tool

import (
	"context"
	"encoding/json"

	"github.com/tonyzorin/youtrack-mcp/resource"
)

// ResourceTools exposes resources to hosts that only call tools.
type ResourceTools struct {
	resources *resource.Provider
}

// NewResourceTools creates resource tools.
func NewResourceTools(resources *resource.Provider) *ResourceTools {
	return &ResourceTools{resources: resources}
}

func (t *ResourceTools) Name() string       { return "ResourceTools" }
func (t *ResourceTools) Category() Category { return CategoryGeneric }

func (t *ResourceTools) Definitions() []*Definition {
	uri := required("uri", "Resource URI, e.g. youtrack://issues/DEMO-1")
	return []*Definition{
		{Name: "list_resources", Description: "List readable resources", Handler: t.handleList},
		{Name: "read_resource", Description: "Read a resource", Params: []*Param{uri}, Handler: t.handleRead},
		{Name: "subscribe_resource", Description: "Subscribe to a resource", Params: []*Param{uri}, Handler: t.handleSubscribe},
		{Name: "unsubscribe_resource", Description: "Unsubscribe from a resource", Params: []*Param{uri}, Handler: t.handleUnsubscribe},
		{Name: "list_subscriptions", Description: "List subscribed resources", Handler: t.handleSubscriptions},
	}
}

func (t *ResourceTools) handleList(ctx context.Context, _ Args) (interface{}, error) {
	return map[string]interface{}{"resources": t.resources.List(ctx)}, nil
}

func (t *ResourceTools) handleRead(ctx context.Context, args Args) (interface{}, error) {
	content, err := t.resources.Read(ctx, args.String("uri"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"uri":      content.URI,
		"mimeType": content.MimeType,
		"contents": json.RawMessage(content.Text),
	}, nil
}

func (t *ResourceTools) handleSubscribe(_ context.Context, args Args) (interface{}, error) {
	uri := args.String("uri")
	added, err := t.resources.Subscribe(uri)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "success", "uri": uri, "subscribed": true, "new": added}, nil
}

func (t *ResourceTools) handleUnsubscribe(_ context.Context, args Args) (interface{}, error) {
	uri := args.String("uri")
	removed, err := t.resources.Unsubscribe(uri)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "success", "uri": uri, "subscribed": false, "removed": removed}, nil
}

func (t *ResourceTools) handleSubscriptions(_ context.Context, _ Args) (interface{}, error) {
	return map[string]interface{}{"subscriptions": t.resources.Subscriptions()}, nil
}
