package graph

import (
	"errors"
	"sync"
	"time"
)

// Logger is the logging surface the Editor needs.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Op names a mutation. Values double as MQTT topic suffixes and metric labels.
type Op string

// Mutation operations.
const (
	OpAddDeviceType            Op = "device_type.add"
	OpUpdateDeviceType         Op = "device_type.update"
	OpDeleteDeviceType         Op = "device_type.delete"
	OpAddDevice                Op = "device.add"
	OpRenameDevice             Op = "device.rename"
	OpUpdateDevice             Op = "device.update"
	OpDeleteDevice             Op = "device.delete"
	OpMoveDevice               Op = "device.move"
	OpSelect                   Op = "device.select"
	OpNodeChanges              Op = "device.changes"
	OpAddPort                  Op = "port.add"
	OpRenamePort               Op = "port.rename"
	OpDeletePort               Op = "port.delete"
	OpConnect                  Op = "connection.add"
	OpDisconnect               Op = "connection.delete"
	OpEdgeChanges              Op = "connection.changes"
	OpAddInternalConnection    Op = "internal_connection.add"
	OpDeleteInternalConnection Op = "internal_connection.delete"
	OpCommitLayout             Op = "layout.commit"
	OpReplace                  Op = "graph.replace"
	OpRestore                  Op = "graph.restore"
	OpReset                    Op = "graph.reset"
)

// Persists reports whether a committed op should reach the persistence
// slot. Layout, selection and batched edge changes run at UI frame rate
// and never do; restore and reset are driven by the slot itself.
func (o Op) Persists() bool {
	switch o {
	case OpMoveDevice, OpSelect, OpNodeChanges, OpEdgeChanges, OpRestore, OpReset:
		return false
	default:
		return true
	}
}

// Outcome classifies what happened to a mutation request.
type Outcome string

// Outcomes carried by events. No-op requests produce no event at all.
const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected" // silently dropped (Connect)
	OutcomeFailed   Outcome = "failed"   // returned an error to the caller

	outcomeNoop Outcome = ""
)

// Event is delivered to subscribers after the Editor has released its lock.
type Event struct {
	Op      Op
	Subject string // primary name involved, e.g. the device or connection ID
	Outcome Outcome
	Persist bool
	Err     error
	Stats   Stats // graph size right after the mutation
	Time    time.Time
}

// ShouldPersist reports whether the event asks for a persistence write.
func (e Event) ShouldPersist() bool {
	return e.Outcome == OutcomeApplied && e.Persist
}

// Observer receives commit events. It runs on the caller's goroutine and
// must not block.
type Observer func(Event)

type subscriber struct {
	id int
	fn Observer
}

// Option configures an Editor.
type Option func(*Editor)

// WithCatalog seeds the device-type catalogue.
func WithCatalog(types []DeviceType) Option {
	return func(e *Editor) {
		e.g.DeviceTypes = append([]DeviceType(nil), types...)
	}
}

// WithDirectionCheck makes Connect drop connections whose source is not an
// output port or whose target is not an input port. Off by default.
func WithDirectionCheck(enforce bool) Option {
	return func(e *Editor) {
		e.enforceDirections = enforce
	}
}

// Editor owns a graph and is the only way to change it.
//
// Every operation validates first and mutates second, under a single
// write lock, so concurrent readers never observe a partial edit.
// Thread Safety: all methods are safe for concurrent use.
type Editor struct {
	mu                sync.RWMutex
	g                 *Graph
	selected          string // device key, empty when nothing is selected
	catalogView       []DeviceType
	enforceDirections bool

	subMu  sync.RWMutex
	subs   []subscriber
	nextID int

	logger Logger
}

// NewEditor creates an Editor holding an empty graph.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		g:      &Graph{},
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.refreshCatalog()
	return e
}

// SetLogger sets the logger for the editor.
func (e *Editor) SetLogger(logger Logger) {
	e.logger = logger
}

// Subscribe registers fn for commit events and returns a function that
// removes it again.
func (e *Editor) Subscribe(fn Observer) (unsubscribe func()) {
	e.subMu.Lock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// mutate runs fn under the write lock and dispatches the resulting event
// once the lock is released. fn reports the subject and outcome; a zero
// outcome with a nil error means nothing changed and nobody is told.
func (e *Editor) mutate(op Op, fn func(g *Graph) (string, Outcome, error)) error {
	e.mu.Lock()
	subject, outcome, err := fn(e.g)
	if err != nil {
		outcome = OutcomeFailed
	}
	var ev Event
	if outcome != outcomeNoop {
		ev = Event{
			Op:      op,
			Subject: subject,
			Outcome: outcome,
			Persist: op.Persists(),
			Err:     err,
			Stats:   e.g.Stats(),
			Time:    time.Now(),
		}
	}
	e.mu.Unlock()

	switch outcome {
	case outcomeNoop:
		return nil
	case OutcomeRejected, OutcomeFailed:
		e.logger.Debug("graph mutation not applied", "op", op, "subject", subject, "outcome", outcome, "error", err)
	}
	e.dispatch(ev)
	return err
}

func (e *Editor) dispatch(ev Event) {
	e.subMu.RLock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.subMu.RUnlock()

	for _, s := range subs {
		e.notify(s.fn, ev)
	}
}

func (e *Editor) notify(fn Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("graph observer panic recovered", "op", ev.Op, "panic", r)
		}
	}()
	fn(ev)
}

// refreshCatalog replaces the shared catalogue view wholesale. Node views
// handed out earlier keep the old slice. Caller holds the write lock.
func (e *Editor) refreshCatalog() {
	e.catalogView = append([]DeviceType(nil), e.g.DeviceTypes...)
}

// ─── Reads ─────────────────────────────────────────────────────────

// DeviceTypes returns a copy of the catalogue.
func (e *Editor) DeviceTypes() []DeviceType {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]DeviceType(nil), e.g.DeviceTypes...)
}

// DeviceType looks up a catalogue entry by name.
func (e *Editor) DeviceType(name string) (DeviceType, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i := e.g.typeIndex(name); i >= 0 {
		return e.g.DeviceTypes[i], true
	}
	return DeviceType{}, false
}

// Devices returns name-keyed views of every device in insertion order.
func (e *Editor) Devices() []DeviceView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g.DeviceViews()
}

// Device returns the view of a single device.
func (e *Editor) Device(name string) (DeviceView, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d := e.g.device(name)
	if d == nil {
		return DeviceView{}, false
	}
	return d.View(), true
}

// Connections returns name-keyed views of every connection.
func (e *Editor) Connections() []ConnectionView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g.ConnectionViews()
}

// Nodes returns what a canvas needs to draw: every device view plus the
// shared catalogue view.
func (e *Editor) Nodes() []NodeView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]NodeView, 0, len(e.g.Devices))
	for i := range e.g.Devices {
		d := &e.g.Devices[i]
		out = append(out, NodeView{
			DeviceView:  d.View(),
			Selected:    e.selected != "" && d.Key == e.selected,
			DeviceTypes: e.catalogView,
		})
	}
	return out
}

// Selected returns the name of the selected device, or "".
func (e *Editor) Selected() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if d := e.g.deviceByKey(e.selected); d != nil && e.selected != "" {
		return d.Name
	}
	return ""
}

// Snapshot returns a deep copy of the current graph.
func (e *Editor) Snapshot() *Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g.Clone()
}

// Stats returns the current graph size.
func (e *Editor) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g.Stats()
}

// ─── Whole-graph replacement ───────────────────────────────────────

// Replace swaps in g (catalogue included) after validating it. On error the
// current graph is untouched. The commit asks for persistence.
func (e *Editor) Replace(g *Graph) error {
	return e.swap(OpReplace, g)
}

// Restore is Replace for state read back from the persistence slot. It
// does not ask for persistence.
func (e *Editor) Restore(g *Graph) error {
	return e.swap(OpRestore, g)
}

// Reset empties the graph and installs catalog as the new catalogue.
func (e *Editor) Reset(catalog []DeviceType) error {
	return e.swap(OpReset, &Graph{DeviceTypes: catalog})
}

func (e *Editor) swap(op Op, g *Graph) error {
	if g == nil {
		return errors.New("graph: nil graph")
	}
	if err := g.Validate(); err != nil {
		return err
	}
	next := g.Clone()
	return e.mutate(op, func(*Graph) (string, Outcome, error) {
		e.g = next
		e.selected = ""
		e.refreshCatalog()
		return "", OutcomeApplied, nil
	})
}

// ─── Selection ─────────────────────────────────────────────────────

// Select marks name as the selected device. An empty or unknown name
// clears the selection.
func (e *Editor) Select(name string) {
	_ = e.mutate(OpSelect, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		key := ""
		if d := g.device(name); d != nil {
			key = d.Key
		}
		if key == e.selected {
			return "", outcomeNoop, nil
		}
		e.selected = key
		return name, OutcomeApplied, nil
	})
}
