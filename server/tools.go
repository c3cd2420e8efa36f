package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tonyzorin/youtrack-mcp/tool"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ListTools handles the tools/list method
func (h *Handler) ListTools(_ context.Context, _ *jsonrpc.Request) (*schema.ListToolsResult, *jsonrpc.Error) {
	definitions := h.dispatcher.Registry().Definitions()
	tools := make([]schema.Tool, 0, len(definitions))
	for _, definition := range definitions {
		tools = append(tools, toolSchema(definition))
	}
	return &schema.ListToolsResult{Tools: tools}, nil
}

// CallTool handles the tools/call method
func (h *Handler) CallTool(ctx context.Context, request *jsonrpc.Request) (*schema.CallToolResult, *jsonrpc.Error) {
	call := &callToolParams{}
	if err := params(request, call); err != nil {
		return nil, err
	}
	if call.Name == "" {
		return nil, jsonrpc.NewInvalidParamsError("tool name is required", request.Params)
	}
	positional, keyword, err := splitArguments(call.Arguments)
	if err != nil {
		return nil, jsonrpc.NewInvalidParamsError(err.Error(), request.Params)
	}
	result, err := h.dispatcher.Call(ctx, call.Name, positional, keyword)
	if err != nil {
		if errors.Is(err, tool.ErrUnknownTool) {
			return nil, jsonrpc.NewMethodNotFound(fmt.Sprintf("tool: %v not found", call.Name), request.Params)
		}
		return nil, jsonrpc.NewInternalError(err.Error(), nil)
	}
	if result.IsError {
		_ = h.Warning(ctx, map[string]interface{}{"tool": call.Name, "result": json.RawMessage(result.Payload)})
	}
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{{Type: "text", Text: result.Payload}},
		IsError: &result.IsError,
	}, nil
}

// splitArguments maps tool arguments onto positional and keyword form. Objects
// are keyword arguments, arrays are positional and any other value is passed
// as the wrapped "args" keyword.
func splitArguments(raw json.RawMessage) ([]interface{}, map[string]interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, map[string]interface{}{}, nil
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, nil, fmt.Errorf("failed to parse arguments: %w", err)
	}
	switch actual := value.(type) {
	case map[string]interface{}:
		return nil, actual, nil
	case []interface{}:
		return actual, map[string]interface{}{}, nil
	case string:
		return nil, map[string]interface{}{"args": actual}, nil
	}
	return []interface{}{value}, map[string]interface{}{}, nil
}

// toolSchema renders a definition as an MCP tool with a JSON schema.
func toolSchema(definition *tool.Definition) schema.Tool {
	properties := schema.ToolInputSchemaProperties{}
	for _, param := range definition.Params {
		properties[param.Name] = map[string]interface{}{
			"type":        param.ParamType(),
			"description": param.Description,
		}
	}
	description := definition.Description
	return schema.Tool{
		Name:        definition.Name,
		Description: &description,
		InputSchema: schema.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   definition.Required(),
		},
	}
}
