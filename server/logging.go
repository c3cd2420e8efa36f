package server

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

type setLevelParams struct {
	Level schema.LoggingLevel `json:"level"`
}

// SetLevel handles the logging/setLevel method
func (h *Handler) SetLevel(_ context.Context, request *jsonrpc.Request) (*schema.SetLevelResult, *jsonrpc.Error) {
	target := &setLevelParams{}
	if err := params(request, target); err != nil {
		return nil, err
	}
	if target.Level == "" {
		return nil, jsonrpc.NewInvalidParamsError("level is required", request.Params)
	}
	h.loggingLevel = target.Level
	h.logger.Debug("client log level changed", "level", target.Level)
	return &schema.SetLevelResult{}, nil
}
