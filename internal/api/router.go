package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	// Prometheus exposition lives at the root, outside the versioned API.
	if s.metricCfg.Enabled && s.metrics != nil {
		r.Handle(s.metricsPath(), s.metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/system", s.handleSystemMetrics)

		// WebSocket carries no request body, so it sits outside the body limits.
		r.Get(s.wsPath(), s.handleWebSocket)

		// Whole-graph import can carry a large document
		r.Group(func(r chi.Router) {
			r.Use(bodySizeLimit(maxImportBodySize))
			r.Post("/graph/import", s.handleImportGraph)
		})

		r.Group(func(r chi.Router) {
			r.Use(bodySizeLimit(maxRequestBodySize))

			r.Get("/graph", s.handleGetGraph)
			r.Get("/graph/export", s.handleExportGraph)
			r.Post("/graph/new", s.handleNewProject)
			r.Get("/nodes", s.handleListNodes)

			// Device type catalogue
			r.Route("/device-types", func(r chi.Router) {
				r.Get("/", s.handleListDeviceTypes)
				r.Post("/", s.handleCreateDeviceType)
				r.Patch("/{name}", s.handleUpdateDeviceType)
				r.Delete("/{name}", s.handleDeleteDeviceType)
			})

			// Devices, their ports and their internal routes
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Patch("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Post("/rename", s.handleRenameDevice)
					r.Put("/position", s.handleMoveDevice)
					r.Post("/select", s.handleSelectDevice)

					r.Post("/ports", s.handleAddPort)
					r.Post("/ports/{port}/rename", s.handleRenamePort)
					r.Delete("/ports/{port}", s.handleDeletePort)

					r.Post("/routes", s.handleAddRoute)
					r.Delete("/routes", s.handleDeleteRoute)
				})
			})
			r.Delete("/selection", s.handleClearSelection)

			// Connections between devices
			r.Route("/connections", func(r chi.Router) {
				r.Get("/", s.handleListConnections)
				r.Post("/", s.handleConnect)
				r.Delete("/{id}", s.handleDisconnect)
			})

			// Canvas change batches
			r.Route("/changes", func(r chi.Router) {
				r.Post("/nodes", s.handleNodeChanges)
				r.Post("/edges", s.handleEdgeChanges)
				r.Post("/commit", s.handleCommitLayout)
			})

			// Commit history
			r.Get("/history", s.handleListHistory)
		})
	})

	return r
}

// wsPath returns the WebSocket route relative to /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// metricsPath returns the Prometheus exposition route.
func (s *Server) metricsPath() string {
	if s.metricCfg.Path == "" {
		return "/metrics"
	}
	return s.metricCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus returns the workspace status line with graph and autosave counters.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace.Status())
}
