package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/micom7/graph/internal/graph"
)

// DefaultQueueSize is the number of events the recorder buffers before it
// starts dropping.
const DefaultQueueSize = 512

// pruneEvery is how many inserts pass between retention sweeps.
const pruneEvery = 100

// writeTimeout bounds a single insert.
const writeTimeout = 5 * time.Second

// Logger is the logging surface of the recorder.
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

// Recordable reports whether ev belongs in the history. Applied pointer
// interaction (drags, selection, change batches) is left out; failures
// and silent rejections of those ops are still kept.
func Recordable(ev graph.Event) bool {
	if ev.Outcome != graph.OutcomeApplied {
		return true
	}
	switch ev.Op {
	case graph.OpMoveDevice, graph.OpSelect, graph.OpNodeChanges, graph.OpEdgeChanges:
		return false
	default:
		return true
	}
}

// Recorder writes editor events to a Repository from its own goroutine.
//
// Thread Safety: Observe may be called from any goroutine.
type Recorder struct {
	repo   Repository
	retain int
	queue  chan graph.Event

	recorded atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	stopOnce sync.Once

	logger Logger
}

// NewRecorder creates a recorder. retain > 0 prunes the history down to
// that many entries as it grows. queueSize <= 0 selects DefaultQueueSize.
func NewRecorder(repo Repository, retain, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Recorder{
		repo:   repo,
		retain: retain,
		queue:  make(chan graph.Event, queueSize),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Start launches the writer goroutine. Stop ends it.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

// Stop writes whatever is still queued and waits for the goroutine.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
	})
}

// Observe is a graph.Observer. It never blocks.
func (r *Recorder) Observe(ev graph.Event) {
	if !Recordable(ev) {
		return
	}
	select {
	case r.queue <- ev:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("history queue full, dropping events", "op", ev.Op)
		}
	}
}

// Recorded returns the number of entries written so far.
func (r *Recorder) Recorded() int64 { return r.recorded.Load() }

// Dropped returns the number of events dropped on a full queue.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Failed returns the number of inserts that returned an error.
func (r *Recorder) Failed() int64 { return r.failed.Load() }

func (r *Recorder) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case ev := <-r.queue:
			r.write(ev)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case ev := <-r.queue:
			r.write(ev)
		default:
			return
		}
	}
}

// write uses its own context so the drain on shutdown still reaches the
// database after the run context is gone.
func (r *Recorder) write(ev graph.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	entry := EntryFromEvent(ev)
	if err := r.repo.Create(ctx, &entry); err != nil {
		r.failed.Add(1)
		r.logger.Error("recording history entry failed", "op", ev.Op, "error", err)
		return
	}
	n := r.recorded.Add(1)

	if r.retain > 0 && n%pruneEvery == 0 {
		removed, err := r.repo.Prune(ctx, r.retain)
		if err != nil {
			r.logger.Error("pruning history failed", "error", err)
			return
		}
		if removed > 0 {
			r.logger.Debug("history pruned", "removed", removed, "retain", r.retain)
		}
	}
}
