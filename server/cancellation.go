package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
)

type cancelledParams struct {
	RequestID interface{} `json:"requestId"`
	Reason    string      `json:"reason,omitempty"`
}

// Cancel handles notifications/cancelled.
func (h *Handler) Cancel(_ context.Context, notification *jsonrpc.Notification) *jsonrpc.Error {
	var params cancelledParams
	if err := json.Unmarshal(notification.Params, &params); err != nil {
		return jsonrpc.NewParsingError(fmt.Sprintf("failed to parse notification: %v", err), notification.Params)
	}
	key := requestKey(params.RequestID)
	if key == "" {
		return jsonrpc.NewInvalidParamsError("invalid requestId", notification.Params)
	}
	h.logger.Debug("request cancelled", "id", key, "reason", params.Reason)
	h.cancelOperation(key)
	return nil
}
