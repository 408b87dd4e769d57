package api

import (
	"net/http"

	"github.com/micom7/graph/internal/graph"
)

// nodeChangesRequest is the body of POST /changes/nodes.
type nodeChangesRequest struct {
	Changes []graph.NodeChange `json:"changes"`
}

// edgeChangesRequest is the body of POST /changes/edges.
type edgeChangesRequest struct {
	Changes []graph.EdgeChange `json:"changes"`
}

// handleNodeChanges applies a batch of position and selection changes from
// the canvas. Nothing is persisted until the layout is committed.
func (s *Server) handleNodeChanges(w http.ResponseWriter, r *http.Request) {
	var req nodeChangesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	applied := s.editor.ApplyNodeChanges(req.Changes)
	writeJSON(w, http.StatusOK, map[string]int{"applied": applied, "received": len(req.Changes)})
}

// handleEdgeChanges applies a batch of edge removals from the canvas.
func (s *Server) handleEdgeChanges(w http.ResponseWriter, r *http.Request) {
	var req edgeChangesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	applied := s.editor.ApplyEdgeChanges(req.Changes)
	writeJSON(w, http.StatusOK, map[string]int{"applied": applied, "received": len(req.Changes)})
}

// handleCommitLayout marks the end of a drag gesture and schedules the
// layout for saving.
func (s *Server) handleCommitLayout(w http.ResponseWriter, _ *http.Request) {
	s.editor.CommitLayout()
	writeJSON(w, http.StatusOK, map[string]string{"message": "layout committed"})
}
