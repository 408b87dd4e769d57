package notify

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/micom7/graph/internal/graph"
	"github.com/micom7/graph/internal/infrastructure/mqtt"
)

// DefaultQueueSize is the number of events the MQTT notifier buffers before
// it starts dropping.
const DefaultQueueSize = 256

// Publisher is the part of the MQTT client the notifier needs.
// *mqtt.Client satisfies it; tests use a fake.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging surface of the notifiers.
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

// EventMessage is the payload published for each commit.
type EventMessage struct {
	Op        string      `json:"op"`
	Subject   string      `json:"subject,omitempty"`
	Outcome   string      `json:"outcome"`
	Error     string      `json:"error,omitempty"`
	Stats     graph.Stats `json:"stats"`
	Timestamp time.Time   `json:"timestamp"`
}

// SummaryMessage is the retained summary payload.
type SummaryMessage struct {
	Project   string      `json:"project"`
	Stats     graph.Stats `json:"stats"`
	Timestamp time.Time   `json:"timestamp"`
}

// MQTT publishes editor commits to the broker.
//
// Thread Safety: Observe may be called from any goroutine.
type MQTT struct {
	pub     Publisher
	topics  mqtt.Topics
	qos     byte
	summary func() graph.Stats

	queue    chan graph.Event
	requests chan struct{}

	published atomic.Int64
	dropped   atomic.Int64

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	stopOnce sync.Once

	logger Logger
}

// NewMQTT creates a notifier publishing on topics. summary supplies the
// current graph size for the retained summary, usually Editor.Stats.
// queueSize <= 0 selects DefaultQueueSize.
func NewMQTT(pub Publisher, topics mqtt.Topics, qos byte, summary func() graph.Stats, queueSize int) *MQTT {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &MQTT{
		pub:      pub,
		topics:   topics,
		qos:      qos,
		summary:  summary,
		queue:    make(chan graph.Event, queueSize),
		requests: make(chan struct{}, 1),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the notifier.
func (n *MQTT) SetLogger(logger Logger) {
	n.logger = logger
}

// Start subscribes to summary requests, publishes the initial summary and
// starts the publishing goroutine. Stop ends it.
func (n *MQTT) Start(ctx context.Context) error {
	if err := n.pub.Subscribe(n.topics.SummaryRequest(), n.qos, n.handleSummaryRequest); err != nil {
		return err
	}

	ctx, n.cancel = context.WithCancel(ctx)
	n.requestSummary()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.run(ctx)
	}()

	n.logger.Info("mqtt notifier started", "events", n.topics.AllEvents(), "summary", n.topics.Summary())
	return nil
}

// Stop publishes whatever is still queued and waits for the goroutine.
func (n *MQTT) Stop() {
	n.stopOnce.Do(func() {
		if n.cancel != nil {
			n.cancel()
		}
		n.wg.Wait()
	})
}

// Observe is a graph.Observer. It never blocks: when the queue is full the
// event is dropped and counted.
func (n *MQTT) Observe(ev graph.Event) {
	select {
	case n.queue <- ev:
	default:
		if n.dropped.Add(1) == 1 {
			n.logger.Warn("mqtt notifier queue full, dropping events", "op", ev.Op)
		}
	}
}

// Published returns the number of messages published so far.
func (n *MQTT) Published() int64 { return n.published.Load() }

// Dropped returns the number of events dropped on a full queue.
func (n *MQTT) Dropped() int64 { return n.dropped.Load() }

func (n *MQTT) handleSummaryRequest(_ string, _ []byte) error {
	n.requestSummary()
	return nil
}

func (n *MQTT) requestSummary() {
	select {
	case n.requests <- struct{}{}:
	default:
	}
}

func (n *MQTT) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			n.drain()
			return
		case ev := <-n.queue:
			n.publishEvent(ev)
		case <-n.requests:
			n.publishSummary()
		}
	}
}

func (n *MQTT) drain() {
	for {
		select {
		case ev := <-n.queue:
			n.publishEvent(ev)
		default:
			return
		}
	}
}

func (n *MQTT) publishEvent(ev graph.Event) {
	msg := EventMessage{
		Op:        string(ev.Op),
		Subject:   ev.Subject,
		Outcome:   string(ev.Outcome),
		Stats:     ev.Stats,
		Timestamp: ev.Time.UTC(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	n.publish(n.topics.Event(string(ev.Op)), msg, false)

	if ev.Outcome == graph.OutcomeApplied {
		n.publishSummary()
	}
}

func (n *MQTT) publishSummary() {
	var stats graph.Stats
	if n.summary != nil {
		stats = n.summary()
	}
	n.publish(n.topics.Summary(), SummaryMessage{
		Project:   n.topics.Project,
		Stats:     stats,
		Timestamp: time.Now().UTC(),
	}, true)
}

func (n *MQTT) publish(topic string, msg any, retained bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("failed to marshal mqtt message", "topic", topic, "error", err)
		return
	}
	if err := n.pub.Publish(topic, payload, n.qos, retained); err != nil {
		n.logger.Warn("failed to publish mqtt message", "topic", topic, "error", err)
		return
	}
	n.published.Add(1)
}
