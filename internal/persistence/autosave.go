package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/micom7/graph/internal/document"
	"github.com/micom7/graph/internal/graph"
)

// DefaultDebounce is how long the Autosaver waits after the first commit
// before writing, so bursts of edits become one save.
const DefaultDebounce = 250 * time.Millisecond

// Logger is the logging surface the Autosaver needs.
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

// SaveResult describes one completed save attempt.
type SaveResult struct {
	Slot     string
	Bytes    int
	Duration time.Duration
	Err      error
}

// SaveHook is told about every save attempt. Hooks must not block.
type SaveHook func(SaveResult)

// SnapshotFunc returns the graph to persist. The Autosaver never modifies it.
type SnapshotFunc func() *graph.Graph

// AutosaverOption configures an Autosaver.
type AutosaverOption func(*Autosaver)

// WithDebounce overrides DefaultDebounce. Zero saves on the next loop turn.
func WithDebounce(d time.Duration) AutosaverOption {
	return func(a *Autosaver) {
		if d >= 0 {
			a.debounce = d
		}
	}
}

// WithEncoder replaces document.Marshal as the payload encoder.
func WithEncoder(fn func(*graph.Graph) ([]byte, error)) AutosaverOption {
	return func(a *Autosaver) {
		a.encode = fn
	}
}

// WithSaveHook registers fn for save results.
func WithSaveHook(fn SaveHook) AutosaverOption {
	return func(a *Autosaver) {
		a.hooks = append(a.hooks, fn)
	}
}

// Autosaver writes the graph to a slot after persisting commits.
//
// Trigger only marks work as pending; Run does the writing on its own
// goroutine. Commits that arrive while a save is waiting for the debounce
// fold into that save.
type Autosaver struct {
	slot     Slot
	snapshot SnapshotFunc
	encode   func(*graph.Graph) ([]byte, error)
	debounce time.Duration
	hooks    []SaveHook
	logger   Logger

	pending chan struct{}

	// saveMu serialises writes to the slot. generation is bumped by Clear
	// so a save scheduled before the clear does not resurrect old state.
	saveMu     sync.Mutex
	generation atomic.Uint64

	saves    atomic.Int64
	failures atomic.Int64
}

// NewAutosaver creates an Autosaver writing snapshot() to slot.
func NewAutosaver(slot Slot, snapshot SnapshotFunc, opts ...AutosaverOption) *Autosaver {
	a := &Autosaver{
		slot:     slot,
		snapshot: snapshot,
		encode:   document.Marshal,
		debounce: DefaultDebounce,
		logger:   noopLogger{},
		pending:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetLogger sets the logger for the autosaver.
func (a *Autosaver) SetLogger(logger Logger) {
	a.logger = logger
}

// Slot returns the slot being written.
func (a *Autosaver) Slot() Slot {
	return a.slot
}

// Observe is a graph.Observer: it triggers a save for every event that
// asks for persistence and ignores the rest.
func (a *Autosaver) Observe(ev graph.Event) {
	if ev.ShouldPersist() {
		a.Trigger()
	}
}

// Trigger marks a save as pending. It never blocks.
func (a *Autosaver) Trigger() {
	select {
	case a.pending <- struct{}{}:
	default:
	}
}

// Run saves pending work until ctx is cancelled. Work still pending at
// that point is written once more with a fresh context before Run returns.
func (a *Autosaver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.drainOnStop()
			return
		case <-a.pending:
		}

		gen := a.generation.Load()
		if a.debounce > 0 {
			timer := time.NewTimer(a.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				a.saveIfCurrent(context.Background(), gen) //nolint:errcheck // logged and counted
				return
			case <-timer.C:
			}
		}
		// Triggers that arrived during the wait are covered by this save.
		select {
		case <-a.pending:
		default:
		}
		a.saveIfCurrent(ctx, gen) //nolint:errcheck // logged and counted
	}
}

func (a *Autosaver) drainOnStop() {
	select {
	case <-a.pending:
		a.saveIfCurrent(context.Background(), a.generation.Load()) //nolint:errcheck // logged and counted
	default:
	}
}

// Flush writes the current graph immediately and discards pending work.
// Unlike background saves it returns the error.
func (a *Autosaver) Flush(ctx context.Context) error {
	select {
	case <-a.pending:
	default:
	}
	return a.saveIfCurrent(ctx, a.generation.Load())
}

// Clear empties the slot and cancels any save that is waiting to run.
func (a *Autosaver) Clear(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.generation.Add(1)
	select {
	case <-a.pending:
	default:
	}
	if err := a.slot.Clear(ctx); err != nil {
		return fmt.Errorf("clearing autosave slot: %w", err)
	}
	a.logger.Info("autosave slot cleared", "slot", a.slot.Name())
	return nil
}

// Saves returns the number of successful saves.
func (a *Autosaver) Saves() int64 { return a.saves.Load() }

// Failures returns the number of failed saves.
func (a *Autosaver) Failures() int64 { return a.failures.Load() }

func (a *Autosaver) saveIfCurrent(ctx context.Context, gen uint64) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	if a.generation.Load() != gen {
		a.logger.Debug("autosave skipped after clear", "slot", a.slot.Name())
		return nil
	}

	start := time.Now()
	var size int
	err := func() error {
		g := a.snapshot()
		if g == nil {
			return errors.New("persistence: snapshot returned nil graph")
		}
		data, err := a.encode(g)
		if err != nil {
			return fmt.Errorf("encoding graph: %w", err)
		}
		size = len(data)
		return a.slot.Save(ctx, data)
	}()

	res := SaveResult{Slot: a.slot.Name(), Bytes: size, Duration: time.Since(start), Err: err}
	if err != nil {
		a.failures.Add(1)
		a.logger.Warn("autosave failed", "slot", res.Slot, "error", err)
	} else {
		a.saves.Add(1)
		a.logger.Debug("autosave written", "slot", res.Slot, "bytes", res.Bytes, "duration", res.Duration)
	}
	for _, hook := range a.hooks {
		hook(res)
	}
	return err
}

// LoadGraph reads and decodes the slot. It returns ErrSlotEmpty when there
// is nothing stored.
func LoadGraph(ctx context.Context, slot Slot) (*graph.Graph, error) {
	data, err := slot.Load(ctx)
	if err != nil {
		return nil, err
	}
	g, err := document.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decoding slot %s: %w", slot.Name(), err)
	}
	return g, nil
}
