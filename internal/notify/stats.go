package notify

import (
	"time"

	"github.com/micom7/graph/internal/graph"
	"github.com/micom7/graph/internal/persistence"
)

// StatsWriter is the part of the InfluxDB client Stats needs.
// *influxdb.Client satisfies it.
type StatsWriter interface {
	WriteGraphStats(project string, s graph.Stats, at time.Time)
	WriteAutosave(project, slot string, bytes int, took time.Duration, failed bool)
	WriteMutation(project string, op graph.Op, outcome graph.Outcome, at time.Time)
}

// Stats writes editor and autosave telemetry for one project.
type Stats struct {
	w       StatsWriter
	project string
}

// NewStats creates a telemetry notifier.
func NewStats(w StatsWriter, project string) *Stats {
	return &Stats{w: w, project: project}
}

// Observe is a graph.Observer. Every commit is recorded as a mutation
// point; applied ones also record the resulting graph size.
func (s *Stats) Observe(ev graph.Event) {
	s.w.WriteMutation(s.project, ev.Op, ev.Outcome, ev.Time)
	if ev.Outcome == graph.OutcomeApplied {
		s.w.WriteGraphStats(s.project, ev.Stats, ev.Time)
	}
}

// ObserveSave is a persistence.SaveHook.
func (s *Stats) ObserveSave(res persistence.SaveResult) {
	s.w.WriteAutosave(s.project, res.Slot, res.Bytes, res.Duration, res.Err != nil)
}
