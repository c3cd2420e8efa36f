package server

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

type clientInfo struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

// Initialize handles the initialize method
func (h *Handler) Initialize(_ context.Context, request *jsonrpc.Request) (*schema.InitializeResult, *jsonrpc.Error) {
	info := &clientInfo{}
	if err := params(request, info); err != nil {
		return nil, err
	}
	h.clientInfo = info
	h.logger.Info("client connected", "client", info.ClientInfo.Name, "clientVersion", info.ClientInfo.Version,
		"protocol", info.ProtocolVersion)
	subscribe := true
	return &schema.InitializeResult{
		ProtocolVersion: h.protocolVersion,
		ServerInfo:      h.info,
		Capabilities: schema.ServerCapabilities{
			Tools:     &schema.ServerCapabilitiesTools{},
			Resources: &schema.ServerCapabilitiesResources{Subscribe: &subscribe},
		},
		Instructions: h.instructions,
	}, nil
}

// Ping handles the ping method
func (h *Handler) Ping(_ context.Context, _ *jsonrpc.Request) (*schema.PingResult, *jsonrpc.Error) {
	return &schema.PingResult{}, nil
}
