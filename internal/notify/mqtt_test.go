package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micom7/graph/internal/graph"
	"github.com/micom7/graph/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu           sync.Mutex
	messages     []published
	handlers     map[string]mqtt.MessageHandler
	publishErr   error
	subscribeErr error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.messages = append(f.messages, published{topic, payload, qos, retained})
	return nil
}

func (f *fakePublisher) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.handlers[topic] = handler
	return nil
}

func (f *fakePublisher) on(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, m := range f.messages {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakePublisher) handler(topic string) mqtt.MessageHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[topic]
}

var testTopics = mqtt.Topics{Project: "line-a"}

func startNotifier(t *testing.T, pub *fakePublisher, ed *graph.Editor) *MQTT {
	t.Helper()
	n := NewMQTT(pub, testTopics, 1, ed.Stats, 0)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(n.Stop)
	ed.Subscribe(n.Observe)
	return n
}

func TestMQTT_PublishesInitialSummary(t *testing.T) {
	pub := newFakePublisher()
	ed := graph.NewEditor(graph.WithCatalog(graph.DefaultCatalog()))
	startNotifier(t, pub, ed)

	require.Eventually(t, func() bool { return len(pub.on(testTopics.Summary())) == 1 }, time.Second, 5*time.Millisecond)

	msg := pub.on(testTopics.Summary())[0]
	assert.True(t, msg.retained)
	var summary SummaryMessage
	require.NoError(t, json.Unmarshal(msg.payload, &summary))
	assert.Equal(t, "line-a", summary.Project)
	assert.Equal(t, 6, summary.Stats.DeviceTypes)
}

func TestMQTT_PublishesCommitEvents(t *testing.T) {
	pub := newFakePublisher()
	ed := graph.NewEditor()
	startNotifier(t, pub, ed)

	name := ed.AddDevice("")

	topic := testTopics.Event(string(graph.OpAddDevice))
	require.Eventually(t, func() bool { return len(pub.on(topic)) == 1 }, time.Second, 5*time.Millisecond)

	msg := pub.on(topic)[0]
	assert.False(t, msg.retained)
	assert.Equal(t, byte(1), msg.qos)

	var ev EventMessage
	require.NoError(t, json.Unmarshal(msg.payload, &ev))
	assert.Equal(t, "device.add", ev.Op)
	assert.Equal(t, name, ev.Subject)
	assert.Equal(t, "applied", ev.Outcome)
	assert.Equal(t, 1, ev.Stats.Devices)

	// initial summary plus the one following the applied commit
	require.Eventually(t, func() bool { return len(pub.on(testTopics.Summary())) == 2 }, time.Second, 5*time.Millisecond)
}

func TestMQTT_RejectedCommitCarriesNoSummary(t *testing.T) {
	pub := newFakePublisher()
	ed := graph.NewEditor()
	startNotifier(t, pub, ed)
	require.Eventually(t, func() bool { return len(pub.on(testTopics.Summary())) == 1 }, time.Second, 5*time.Millisecond)

	a := ed.AddDevice("")
	ed.AddPort(a, graph.DirectionOut)
	ed.Connect(a, "Output", a, "Output") // self-loop, silently rejected

	topic := testTopics.Event(string(graph.OpConnect))
	require.Eventually(t, func() bool { return len(pub.on(topic)) == 1 }, time.Second, 5*time.Millisecond)

	var ev EventMessage
	require.NoError(t, json.Unmarshal(pub.on(topic)[0].payload, &ev))
	assert.Equal(t, "rejected", ev.Outcome)

	// initial + add device + add port, nothing for the rejection
	assert.Len(t, pub.on(testTopics.Summary()), 3)
}

func TestMQTT_FailedCommitCarriesError(t *testing.T) {
	pub := newFakePublisher()
	ed := graph.NewEditor()
	startNotifier(t, pub, ed)

	require.Error(t, ed.AddDeviceType(graph.DeviceType{Name: "  "}))

	topic := testTopics.Event(string(graph.OpAddDeviceType))
	require.Eventually(t, func() bool { return len(pub.on(topic)) == 1 }, time.Second, 5*time.Millisecond)

	var ev EventMessage
	require.NoError(t, json.Unmarshal(pub.on(topic)[0].payload, &ev))
	assert.Equal(t, "failed", ev.Outcome)
	assert.Contains(t, ev.Error, "name required")
}

func TestMQTT_SummaryRequest(t *testing.T) {
	pub := newFakePublisher()
	ed := graph.NewEditor()
	startNotifier(t, pub, ed)
	require.Eventually(t, func() bool { return len(pub.on(testTopics.Summary())) == 1 }, time.Second, 5*time.Millisecond)

	h := pub.handler(testTopics.SummaryRequest())
	require.NotNil(t, h, "notifier must subscribe to summary requests")
	require.NoError(t, h(testTopics.SummaryRequest(), nil))

	require.Eventually(t, func() bool { return len(pub.on(testTopics.Summary())) == 2 }, time.Second, 5*time.Millisecond)
}

func TestMQTT_StartFailsWhenSubscribeFails(t *testing.T) {
	pub := newFakePublisher()
	pub.subscribeErr = mqtt.ErrNotConnected

	n := NewMQTT(pub, testTopics, 1, nil, 0)
	err := n.Start(context.Background())
	assert.ErrorIs(t, err, mqtt.ErrNotConnected)
	n.Stop()
}

func TestMQTT_ObserveNeverBlocks(t *testing.T) {
	n := NewMQTT(newFakePublisher(), testTopics, 0, nil, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			n.Observe(graph.Event{Op: graph.OpAddDevice, Outcome: graph.OutcomeApplied})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked on a full queue")
	}
	assert.Equal(t, int64(9), n.Dropped())
}

func TestMQTT_StopDrainsQueue(t *testing.T) {
	pub := newFakePublisher()
	n := NewMQTT(pub, testTopics, 0, nil, 0)
	for i := 0; i < 5; i++ {
		n.Observe(graph.Event{Op: graph.OpDisconnect, Outcome: graph.OutcomeApplied})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, n.Start(ctx))
	n.Stop()

	assert.Len(t, pub.on(testTopics.Event(string(graph.OpDisconnect))), 5)
}

func TestMQTT_PublishErrorsAreNotCounted(t *testing.T) {
	pub := newFakePublisher()
	pub.publishErr = errors.New("broker gone")

	n := NewMQTT(pub, testTopics, 0, nil, 0)
	n.Observe(graph.Event{Op: graph.OpAddDevice, Outcome: graph.OutcomeApplied})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, n.Start(ctx))
	n.Stop()

	assert.Zero(t, n.Published())
}
