package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tonyzorin/youtrack-mcp/internal/version"
	"github.com/tonyzorin/youtrack-mcp/tool"
)

// maxRequestBody bounds REST tool call bodies.
const maxRequestBody = 1 << 20

type callRequest struct {
	Arguments json.RawMessage `json:"arguments"`
}

type errorBody struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"name":    s.info.Name,
		"version": version.Current(),
		"tools":   s.dispatcher.Registry().Len(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	tools := map[string]*tool.Definition{}
	for _, definition := range s.dispatcher.Registry().Definitions() {
		tools[definition.Name] = definition
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": tools})
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.dispatcher.Registry().Lookup(name); !ok {
		writeJSON(w, http.StatusNotFound, &errorBody{Error: "tool " + name + " not found", Status: "error"})
		return
	}
	request := &callRequest{}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorBody{Error: "failed to read body: " + err.Error(), Status: "error"})
		return
	}
	if len(data) > 0 {
		if err = json.Unmarshal(data, request); err != nil {
			writeJSON(w, http.StatusBadRequest, &errorBody{Error: "invalid body: " + err.Error(), Status: "error"})
			return
		}
	}
	positional, keyword, err := splitArguments(request.Arguments)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &errorBody{Error: err.Error(), Status: "error"})
		return
	}
	result, err := s.dispatcher.Call(r.Context(), name, positional, keyword)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tool.ErrUnknownTool) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, &errorBody{Error: err.Error(), Status: "error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": json.RawMessage(result.Payload)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
