package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/micom7/graph/internal/graph"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	MQTT          BackendMetrics   `json:"mqtt"`
	InfluxDB      BackendMetrics   `json:"influxdb"`
	Graph         graph.Stats      `json:"graph"`
	Autosave      AutosaveMetrics  `json:"autosave"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// BackendMetrics reports an optional backend. Enabled is false when the
// backend is not configured.
type BackendMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// AutosaveMetrics contains autosave slot counters.
type AutosaveMetrics struct {
	Slot     string `json:"slot"`
	Saves    int64  `json:"saves"`
	Failures int64  `json:"failures"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleSystemMetrics returns a JSON snapshot for dashboards that do not
// scrape Prometheus.
func (s *Server) handleSystemMetrics(w http.ResponseWriter, _ *http.Request) {
	// Collect runtime stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := s.workspace.Status()

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		MQTT:     backendMetrics(s.mqtt),
		InfluxDB: backendMetrics(s.influx),
		Graph:    status.Stats,
		Autosave: AutosaveMetrics{
			Slot:     status.Slot,
			Saves:    status.Saves,
			Failures: status.Failures,
		},
	}

	// Database stats (if available)
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

func backendMetrics(c ConnectionChecker) BackendMetrics {
	if c == nil {
		return BackendMetrics{}
	}
	return BackendMetrics{Enabled: true, Connected: c.IsConnected()}
}
