package api

import (
	"net/http"

	"github.com/micom7/graph/internal/graph"
)

// addPortRequest is the body of POST /devices/{name}/ports.
type addPortRequest struct {
	Direction string `json:"direction"`
}

// routeRequest is the body of the internal route endpoints.
type routeRequest struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

// handleAddPort appends an input or output port to a device.
func (s *Server) handleAddPort(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	var req addPortRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dir, err := graph.ParseDirection(req.Direction)
	if err != nil {
		writeEditorError(w, err)
		return
	}

	port, ok := s.editor.AddPort(name, dir)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"device":    name,
		"port":      port,
		"direction": dir,
	})
}

// handleRenamePort renames a port within its device.
func (s *Server) handleRenamePort(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.editor.RenamePort(name, urlParam(r, "port"), req.Name); err != nil {
		writeEditorError(w, err)
		return
	}
	s.writeDevice(w, name)
}

// handleDeletePort removes a port with the routes and connections using it.
func (s *Server) handleDeletePort(w http.ResponseWriter, r *http.Request) {
	name, port := urlParam(r, "name"), urlParam(r, "port")
	if !s.hasPort(name, port) {
		writeNotFound(w, "port not found")
		return
	}
	s.editor.DeletePort(name, port)
	s.writeDevice(w, name)
}

// handleAddRoute adds an internal route from an input to an output port.
func (s *Server) handleAddRoute(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	var req routeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.editor.AddInternalConnection(name, req.In, req.Out); err != nil {
		writeEditorError(w, err)
		return
	}
	dev, _ := s.editor.Device(name)
	writeJSON(w, http.StatusCreated, dev)
}

// handleDeleteRoute removes an internal route. The pair comes from the query
// string (in, out) or, failing that, from a JSON body.
func (s *Server) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if _, ok := s.editor.Device(name); !ok {
		writeNotFound(w, "device not found")
		return
	}

	req := routeRequest{In: r.URL.Query().Get("in"), Out: r.URL.Query().Get("out")}
	if req.In == "" && req.Out == "" && !decodeJSON(w, r, &req) {
		return
	}
	if req.In == "" || req.Out == "" {
		writeBadRequest(w, "in and out ports are required")
		return
	}

	s.editor.DeleteInternalConnection(name, req.In, req.Out)
	s.writeDevice(w, name)
}

// hasPort reports whether device has a port called port.
func (s *Server) hasPort(device, port string) bool {
	dev, ok := s.editor.Device(device)
	if !ok {
		return false
	}
	for _, p := range dev.Ports {
		if p.Name == port {
			return true
		}
	}
	return false
}
