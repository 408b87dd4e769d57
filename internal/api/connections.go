package api

import (
	"net/http"
)

// connectRequest is the body of POST /connections.
type connectRequest struct {
	SourceDevice string `json:"source_device"`
	SourcePort   string `json:"source_port"`
	TargetDevice string `json:"target_device"`
	TargetPort   string `json:"target_port"`
}

// handleListConnections returns every connection with its derived ID.
func (s *Server) handleListConnections(w http.ResponseWriter, _ *http.Request) {
	conns := s.editor.Connections()
	writeJSON(w, http.StatusOK, map[string]any{"connections": conns, "count": len(conns)})
}

// handleConnect wires two ports of different devices.
//
// Self-loops, duplicates and unresolved endpoints are dropped without an
// error, the way a canvas silently refuses a bad drop. The response then
// carries applied=false.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, ok := s.editor.Connect(req.SourceDevice, req.SourcePort, req.TargetDevice, req.TargetPort)
	status := http.StatusOK
	if ok {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"id": id, "applied": ok})
}

// handleDisconnect removes a connection by its derived ID.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if !s.editor.Disconnect(urlParam(r, "id")) {
		writeNotFound(w, "connection not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "connection deleted"})
}
