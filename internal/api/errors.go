package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/micom7/graph/internal/document"
	"github.com/micom7/graph/internal/graph"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeInternal        = "internal_error"
	ErrCodeValidation      = "validation_error"
	ErrCodeInvalidDocument = "invalid_document"
	ErrCodeTooLarge        = "payload_too_large"
	ErrCodeUnavailable     = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeEditorError maps an error returned by the editor or the document
// codec onto the error envelope.
func writeEditorError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error())
	case errors.Is(err, graph.ErrNameExists), errors.Is(err, graph.ErrDuplicateName), errors.Is(err, graph.ErrAlreadyExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case graph.IsValidation(err), errors.Is(err, graph.ErrInvalidDirection):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case graph.IsNotFound(err):
		writeNotFound(w, err.Error())
	case errors.Is(err, document.ErrParse), errors.Is(err, document.ErrInvalid),
		errors.Is(err, document.ErrUnsupportedVersion), errors.Is(err, graph.ErrInvalidGraph):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidDocument, err.Error())
	case errors.Is(err, document.ErrUnknownFormat):
		writeBadRequest(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEditorError(w, err)
			return false
		}
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}
