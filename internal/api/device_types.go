package api

import (
	"net/http"

	"github.com/micom7/graph/internal/graph"
)

// handleListDeviceTypes returns the catalogue in insertion order.
func (s *Server) handleListDeviceTypes(w http.ResponseWriter, _ *http.Request) {
	types := s.editor.DeviceTypes()
	writeJSON(w, http.StatusOK, map[string]any{"device_types": types, "count": len(types)})
}

// handleCreateDeviceType adds a type to the catalogue.
func (s *Server) handleCreateDeviceType(w http.ResponseWriter, r *http.Request) {
	var dt graph.DeviceType
	if !decodeJSON(w, r, &dt) {
		return
	}

	if err := s.editor.AddDeviceType(dt); err != nil {
		writeEditorError(w, err)
		return
	}

	created, _ := s.editor.DeviceType(trimmed(dt.Name))
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateDeviceType merges label, color and icon into an existing type.
func (s *Server) handleUpdateDeviceType(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if _, ok := s.editor.DeviceType(name); !ok {
		writeNotFound(w, "device type not found")
		return
	}

	var patch graph.DeviceTypePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s.editor.UpdateDeviceType(name, patch)

	updated, ok := s.editor.DeviceType(name)
	if !ok {
		writeNotFound(w, "device type not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteDeviceType removes a type. Devices of that type keep existing
// with no type.
func (s *Server) handleDeleteDeviceType(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if _, ok := s.editor.DeviceType(name); !ok {
		writeNotFound(w, "device type not found")
		return
	}
	s.editor.DeleteDeviceType(name)
	writeJSON(w, http.StatusOK, map[string]string{"message": "device type deleted"})
}
