// Package workspace ties the editor, the document codec and the
// persistence slot together into the file-level operations a user sees:
// import, export, restore on start-up and starting a new project.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/micom7/graph/internal/document"
	"github.com/micom7/graph/internal/graph"
	"github.com/micom7/graph/internal/persistence"
)

// Status messages.
const (
	StatusFileSaved = "file saved"
	StatusReadError = "file read error"
	StatusRestored  = "restored from local storage"
	StatusNew       = "new project"
	statusLoaded    = "loaded: "
)

// Saver is the part of the autosaver the workspace drives.
// *persistence.Autosaver satisfies it.
type Saver interface {
	Slot() persistence.Slot
	Flush(ctx context.Context) error
	Clear(ctx context.Context) error
	Saves() int64
	Failures() int64
}

// Logger is the logging surface the workspace needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Status is the user-facing state of the workspace.
type Status struct {
	Message   string      `json:"message"`
	UpdatedAt time.Time   `json:"updated_at,omitzero"`
	Stats     graph.Stats `json:"stats"`
	Slot      string      `json:"slot"`
	Saves     int64       `json:"saves"`
	Failures  int64       `json:"save_failures"`
}

// Workspace owns the status line and the whole-graph operations.
//
// Thread Safety: all methods are safe for concurrent use.
type Workspace struct {
	editor *graph.Editor
	saver  Saver
	seed   []graph.DeviceType

	mu        sync.RWMutex
	message   string
	updatedAt time.Time

	logger Logger
}

// New creates a workspace. seed is the catalogue installed on first start
// and on every new project.
func New(editor *graph.Editor, saver Saver, seed []graph.DeviceType) *Workspace {
	return &Workspace{
		editor: editor,
		saver:  saver,
		seed:   append([]graph.DeviceType(nil), seed...),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the workspace.
func (w *Workspace) SetLogger(logger Logger) {
	w.logger = logger
}

// Editor returns the editor the workspace operates on.
func (w *Workspace) Editor() *graph.Editor {
	return w.editor
}

func (w *Workspace) setStatus(msg string) {
	w.mu.Lock()
	w.message = msg
	w.updatedAt = time.Now()
	w.mu.Unlock()
}

// Status returns the current status line together with graph and
// autosave counters.
func (w *Workspace) Status() Status {
	w.mu.RLock()
	s := Status{Message: w.message, UpdatedAt: w.updatedAt}
	w.mu.RUnlock()

	s.Stats = w.editor.Stats()
	if w.saver != nil {
		s.Slot = w.saver.Slot().Name()
		s.Saves = w.saver.Saves()
		s.Failures = w.saver.Failures()
	}
	return s
}

// FileName returns the download name for an export in exp's format.
func FileName(exp document.Codec) string {
	return "graph." + exp.Extension()
}

// Export writes the current graph to out.
func (w *Workspace) Export(out io.Writer, exp document.Exporter) error {
	if err := document.Write(w.editor.Snapshot(), out, exp); err != nil {
		return fmt.Errorf("exporting graph: %w", err)
	}
	w.setStatus(StatusFileSaved)
	return nil
}

// Import replaces the whole graph with the document read from r. name is
// the file name shown in the status line. A document without deviceTypes
// keeps the current catalogue.
//
// Import is all-or-nothing: on any parse or validation error the graph is
// left untouched and the status reports a read error. A successful import
// is a persisting commit, so the autosaver picks it up.
func (w *Workspace) Import(r io.Reader, name string, imp document.Importer) error {
	g, err := document.Read(r, imp)
	if err == nil {
		if g.DeviceTypes == nil {
			g.DeviceTypes = w.editor.DeviceTypes()
		}
		err = w.editor.Replace(g)
	}
	if err != nil {
		w.setStatus(StatusReadError)
		w.logger.Warn("graph import failed", "file", name, "format", imp.Format(), "error", err)
		return err
	}

	w.setStatus(statusLoaded + name)
	w.logger.Info("graph imported", "file", name, "format", imp.Format(), "devices", len(g.Devices))
	return nil
}

// Restore loads the autosave slot into the editor. It reports whether
// anything was restored. An empty or unreadable slot leaves a fresh project
// with the seed catalogue; unreadable data is also returned as an error so
// the caller can log it. Restoring does not write the slot back.
func (w *Workspace) Restore(ctx context.Context) (bool, error) {
	g, err := persistence.LoadGraph(ctx, w.saver.Slot())
	if err != nil {
		if seedErr := w.seedIfEmpty(); seedErr != nil {
			return false, seedErr
		}
		if errors.Is(err, persistence.ErrSlotEmpty) {
			return false, nil
		}
		return false, err
	}

	// Only a slot written without a catalogue gets the seed; an emptied
	// catalogue is stored as [] and stays empty.
	if g.DeviceTypes == nil {
		g.DeviceTypes = append([]graph.DeviceType(nil), w.seed...)
	}
	if err := w.editor.Restore(g); err != nil {
		if seedErr := w.seedIfEmpty(); seedErr != nil {
			return false, seedErr
		}
		return false, fmt.Errorf("restoring graph: %w", err)
	}

	w.setStatus(StatusRestored)
	w.logger.Info("graph restored", "slot", w.saver.Slot().Name(), "devices", len(g.Devices))
	return true, nil
}

func (w *Workspace) seedIfEmpty() error {
	if len(w.editor.DeviceTypes()) > 0 || len(w.seed) == 0 {
		return nil
	}
	return w.editor.Reset(w.seed)
}

// NewProject discards the graph, reinstalls the seed catalogue and clears
// the autosave slot so a restart does not bring the old graph back.
func (w *Workspace) NewProject(ctx context.Context) error {
	if err := w.editor.Reset(w.seed); err != nil {
		return fmt.Errorf("resetting graph: %w", err)
	}
	if err := w.saver.Clear(ctx); err != nil {
		return fmt.Errorf("clearing autosave slot: %w", err)
	}
	w.setStatus(StatusNew)
	w.logger.Info("new project started", "device_types", len(w.seed))
	return nil
}

// Flush writes any pending autosave immediately.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.saver.Flush(ctx)
}
