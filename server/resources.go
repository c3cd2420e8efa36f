package server

import (
	"context"

	"github.com/tonyzorin/youtrack-mcp/tracker"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

type resourceParams struct {
	URI string `json:"uri"`
}

// ListResources handles the resources/list method
func (h *Handler) ListResources(ctx context.Context, _ *jsonrpc.Request) (*schema.ListResourcesResult, *jsonrpc.Error) {
	if h.resources == nil {
		return &schema.ListResourcesResult{Resources: []schema.Resource{}}, nil
	}
	descriptors := h.resources.List(ctx)
	resources := make([]schema.Resource, 0, len(descriptors))
	for _, descriptor := range descriptors {
		mimeType := descriptor.MimeType
		resource := schema.Resource{Name: descriptor.Name, Uri: descriptor.URI, MimeType: &mimeType}
		if descriptor.Description != "" {
			description := descriptor.Description
			resource.Description = &description
		}
		resources = append(resources, resource)
	}
	return &schema.ListResourcesResult{Resources: resources}, nil
}

// ReadResource handles the resources/read method
func (h *Handler) ReadResource(ctx context.Context, request *jsonrpc.Request) (*schema.ReadResourceResult, *jsonrpc.Error) {
	uri, rpcErr := h.resourceURI(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	content, err := h.resources.Read(ctx, uri)
	if err != nil {
		return nil, resourceError(err, request)
	}
	mimeType := content.MimeType
	return &schema.ReadResourceResult{Contents: []schema.ReadResourceResultContentsElem{
		{Uri: content.URI, MimeType: &mimeType, Text: content.Text},
	}}, nil
}

// Subscribe handles the resources/subscribe method
func (h *Handler) Subscribe(_ context.Context, request *jsonrpc.Request) (*schema.SubscribeResult, *jsonrpc.Error) {
	uri, rpcErr := h.resourceURI(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if _, err := h.resources.Subscribe(uri); err != nil {
		return nil, resourceError(err, request)
	}
	return &schema.SubscribeResult{}, nil
}

// Unsubscribe handles the resources/unsubscribe method
func (h *Handler) Unsubscribe(_ context.Context, request *jsonrpc.Request) (*schema.UnsubscribeResult, *jsonrpc.Error) {
	uri, rpcErr := h.resourceURI(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if _, err := h.resources.Unsubscribe(uri); err != nil {
		return nil, resourceError(err, request)
	}
	return &schema.UnsubscribeResult{}, nil
}

func (h *Handler) resourceURI(request *jsonrpc.Request) (string, *jsonrpc.Error) {
	if h.resources == nil {
		return "", jsonrpc.NewMethodNotFound("resources are not enabled", request.Params)
	}
	target := &resourceParams{}
	if err := params(request, target); err != nil {
		return "", err
	}
	if target.URI == "" {
		return "", jsonrpc.NewInvalidParamsError("uri is required", request.Params)
	}
	return target.URI, nil
}

func resourceError(err error, request *jsonrpc.Request) *jsonrpc.Error {
	if tracker.IsKind(err, tracker.KindBadInput) {
		return jsonrpc.NewInvalidParamsError(err.Error(), request.Params)
	}
	return jsonrpc.NewInternalError(err.Error(), nil)
}
