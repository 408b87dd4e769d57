package api

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/micom7/graph/internal/document"
	"github.com/micom7/graph/internal/workspace"
)

// defaultImportName is shown in the status line when the client does not
// say which file it uploaded.
const defaultImportName = document.FileName

// handleGetGraph returns the current graph as a document payload.
func (s *Server) handleGetGraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, document.Encode(s.editor.Snapshot()))
}

// handleExportGraph downloads the current graph.
//
// Query parameters:
//   - format: json (default) or yaml
func (s *Server) handleExportGraph(w http.ResponseWriter, r *http.Request) {
	codec, err := document.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeEditorError(w, err)
		return
	}

	// Encode fully before writing headers so a failure still gets an error envelope.
	var buf bytes.Buffer
	if err := s.workspace.Export(&buf, codec); err != nil {
		s.logger.Error("graph export failed", "format", codec.Format(), "error", err)
		writeEditorError(w, err)
		return
	}

	w.Header().Set("Content-Type", codec.ContentType())
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": workspace.FileName(codec)}))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(buf.Bytes())
}

// handleImportGraph replaces the whole graph with the uploaded document.
// Nothing changes unless the whole document is valid.
//
// Query parameters:
//   - format: json (default) or yaml
//   - name: file name reported in the status line
func (s *Server) handleImportGraph(w http.ResponseWriter, r *http.Request) {
	codec, err := document.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeEditorError(w, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultImportName
	}

	if err := s.workspace.Import(r.Body, name, codec); err != nil {
		writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.workspace.Status())
}

// handleNewProject discards the graph and starts over with the seed catalogue.
func (s *Server) handleNewProject(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.NewProject(r.Context()); err != nil {
		s.logger.Error("new project failed", "error", err)
		writeInternalError(w, "failed to start new project")
		return
	}
	writeJSON(w, http.StatusOK, s.workspace.Status())
}

// handleListNodes returns what a canvas draws: device views with selection
// state and the shared catalogue.
func (s *Server) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	nodes := s.editor.Nodes()
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes, "count": len(nodes)})
}
