package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/micom7/graph/internal/graph"
)

// Measurement names.
const (
	MeasurementGraphSize = "graph_size"
	MeasurementAutosave  = "graph_autosave"
	MeasurementMutation  = "graph_mutation"
)

// WriteGraphStats records the size of the project's graph.
func (c *Client) WriteGraphStats(project string, s graph.Stats, at time.Time) {
	c.WritePointWithTime(MeasurementGraphSize,
		map[string]string{"project": project},
		map[string]any{
			"device_types":         s.DeviceTypes,
			"devices":              s.Devices,
			"ports":                s.Ports,
			"internal_connections": s.InternalConnections,
			"connections":          s.Connections,
		},
		at,
	)
}

// WriteAutosave records one autosave attempt.
func (c *Client) WriteAutosave(project, slot string, bytes int, took time.Duration, failed bool) {
	c.WritePoint(MeasurementAutosave,
		map[string]string{"project": project, "slot": slot},
		map[string]any{
			"bytes":       bytes,
			"duration_ms": float64(took.Microseconds()) / 1000,
			"failed":      failed,
		},
	)
}

// WriteMutation records one editor commit.
func (c *Client) WriteMutation(project string, op graph.Op, outcome graph.Outcome, at time.Time) {
	c.WritePointWithTime(MeasurementMutation,
		map[string]string{"project": project, "op": string(op), "outcome": string(outcome)},
		map[string]any{"count": 1},
		at,
	)
}

// WritePoint writes a point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp. Writes on
// a disconnected client are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
