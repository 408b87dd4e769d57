package api

import (
	"net/http"
	"strings"

	"github.com/micom7/graph/internal/graph"
)

// trimmed mirrors the editor's name normalisation so handlers can look up
// what they just created.
func trimmed(name string) string {
	return strings.TrimSpace(name)
}

// createDeviceRequest is the body of POST /devices.
type createDeviceRequest struct {
	Type string `json:"type"`
}

// renameRequest is the body of the rename endpoints.
type renameRequest struct {
	Name string `json:"name"`
}

// handleListDevices returns every device in insertion order.
//
// Query parameters:
//   - type: only devices of this device type
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.editor.Devices()
	if typeName := r.URL.Query().Get("type"); typeName != "" {
		filtered := make([]graph.DeviceView, 0, len(devices))
		for _, d := range devices {
			if d.Type == typeName {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by name.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.editor.Device(urlParam(r, "name"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice adds a device of the requested type. An empty body or
// type creates an untyped device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	name := s.editor.AddDevice(req.Type)
	dev, ok := s.editor.Device(name)
	if !ok {
		writeInternalError(w, "device vanished after creation")
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice merges description, type, external id and position
// into a device. A position-only patch is saved by the next layout commit.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if _, ok := s.editor.Device(name); !ok {
		writeNotFound(w, "device not found")
		return
	}

	var patch graph.DevicePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s.editor.UpdateNodeData(name, patch)

	s.writeDevice(w, name)
}

// handleDeleteDevice removes a device with its connections.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if _, ok := s.editor.Device(name); !ok {
		writeNotFound(w, "device not found")
		return
	}
	s.editor.DeleteNode(name)
	writeJSON(w, http.StatusOK, map[string]string{"message": "device deleted"})
}

// handleRenameDevice changes a device's name.
func (s *Server) handleRenameDevice(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.editor.RenameDevice(name, req.Name); err != nil {
		writeEditorError(w, err)
		return
	}
	s.writeDevice(w, trimmed(req.Name))
}

// handleMoveDevice updates a device's position while it is dragged. The
// move is not persisted until the layout is committed.
func (s *Server) handleMoveDevice(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	var pos graph.Position
	if !decodeJSON(w, r, &pos) {
		return
	}
	if _, ok := s.editor.Device(name); !ok {
		writeNotFound(w, "device not found")
		return
	}
	moved := s.editor.MoveDevice(name, pos)
	writeJSON(w, http.StatusOK, map[string]any{"applied": moved, "position": pos})
}

// handleSelectDevice marks a device as selected.
func (s *Server) handleSelectDevice(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if _, ok := s.editor.Device(name); !ok {
		writeNotFound(w, "device not found")
		return
	}
	s.editor.Select(name)
	writeJSON(w, http.StatusOK, map[string]string{"selected": s.editor.Selected()})
}

// handleClearSelection clears the selection.
func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.editor.Select("")
	writeJSON(w, http.StatusOK, map[string]string{"selected": s.editor.Selected()})
}

// writeDevice answers with the current view of a device.
func (s *Server) writeDevice(w http.ResponseWriter, name string) {
	dev, ok := s.editor.Device(name)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}
