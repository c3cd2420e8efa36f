package server

import (
	"context"
	"encoding/json"
)

type activeContext struct {
	context.Context
	context.CancelFunc
}

func newActiveContext(ctx context.Context, cancel context.CancelFunc) *activeContext {
	return &activeContext{Context: ctx, CancelFunc: cancel}
}

// requestKey maps a JSON-RPC id to the key of the active context table.
// Numeric and string ids keep distinct keys; a missing id yields "".
func requestKey(id interface{}) string {
	if id == nil {
		return ""
	}
	data, err := json.Marshal(id)
	if err != nil || string(data) == "null" || string(data) == `""` {
		return ""
	}
	return string(data)
}

func (h *Handler) cancelOperation(key string) {
	if active, ok := h.activeContexts.Get(key); ok {
		active.CancelFunc()
		h.activeContexts.Delete(key)
	}
}
