package gate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	catalogpkg "github.com/pageloom/eventgate/internal/gate/catalog"
	configpkg "github.com/pageloom/eventgate/internal/gate/config"
	loggingpkg "github.com/pageloom/eventgate/internal/gate/logging"
	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
)

// healthCheck mirrors the smallest real payload in the canonical catalog.
type healthCheck struct {
	schemapkg.Envelope
	Status string `json:"status"`
}

func healthCheckStatus(p *healthCheck) []schemapkg.Issue {
	switch p.Status {
	case "ok", "degraded", "error":
		return nil
	}
	return []schemapkg.Issue{schemapkg.Issuef("status", "must be one of ok, degraded, error, got %q", p.Status)}
}

type themeChanged struct {
	schemapkg.Envelope
	Theme string `json:"theme"`
}

func testCatalog(t *testing.T) *catalogpkg.Catalog {
	t.Helper()
	cat, err := catalogpkg.New(
		schemapkg.MustJSON("system.health_check", healthCheckStatus),
		schemapkg.MustJSON[themeChanged]("ui.theme_changed", nil),
	)
	if err != nil {
		t.Fatalf("build test catalog: %v", err)
	}
	return cat
}

func testLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *configpkg.Config {
	return &configpkg.Config{Transport: "channel", InjectTimestamp: true}
}

// newTestEmitter builds an emitter over fake transport pieces. Missing deps
// fields are filled with fresh fakes and a fresh Prometheus registry.
func newTestEmitter(t *testing.T, cfg *configpkg.Config, deps *EmitterDependencies) *Emitter {
	t.Helper()

	if cfg == nil {
		cfg = testConfig()
	}
	if deps == nil {
		deps = &EmitterDependencies{}
	}
	if deps.Publisher == nil {
		deps.Publisher = &testPublisher{}
	}
	if deps.Subscriber == nil {
		deps.Subscriber = &testSubscriber{}
	}
	if deps.Registerer == nil {
		deps.Registerer = prometheus.NewRegistry()
	}

	em, err := NewEmitter(cfg, testLogger(), testCatalog(t), deps)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	t.Cleanup(func() { _ = em.Close() })
	return em
}

// startEmitter runs the router and blocks until it accepts deliveries.
func startEmitter(t *testing.T, em *Emitter) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = em.Start(ctx) }()

	select {
	case <-em.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start in time")
	}
}

type publishedMessage struct {
	topic string
	msg   *message.Message
}

type testPublisher struct {
	mu        sync.Mutex
	published []publishedMessage
	err       error
}

func (p *testPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for _, msg := range messages {
		p.published = append(p.published, publishedMessage{topic: topic, msg: msg})
	}
	return nil
}

func (p *testPublisher) Close() error { return nil }

func (p *testPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func (p *testPublisher) Messages(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*message.Message
	for _, pm := range p.published {
		if pm.topic == topic {
			out = append(out, pm.msg)
		}
	}
	return out
}

// testSubscriber hands every subscription its own channel and fans
// deliveries out to all subscriptions of a topic.
type testSubscriber struct {
	mu     sync.Mutex
	topics map[string][]chan *message.Message
	closed bool
	err    error
	seq    int
}

func (s *testSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topics == nil {
		s.topics = make(map[string][]chan *message.Message)
	}
	ch := make(chan *message.Message, 16)
	s.topics[topic] = append(s.topics[topic], ch)
	return ch, nil
}

func (s *testSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, chans := range s.topics {
		for _, ch := range chans {
			close(ch)
		}
	}
	s.topics = nil
	return nil
}

// deliver pushes a copy of the payload to every subscription of the topic
// and waits for the router to ack or nack each one.
func (s *testSubscriber) deliver(t *testing.T, topic string, payload []byte) {
	t.Helper()

	s.mu.Lock()
	s.seq++
	uuid := fmt.Sprintf("test-%s-%d", topic, s.seq)
	chans := append([]chan *message.Message(nil), s.topics[topic]...)
	s.mu.Unlock()

	if len(chans) == 0 {
		t.Fatalf("no subscriptions for topic %q", topic)
	}

	for _, ch := range chans {
		msg := message.NewMessage(uuid, payload)
		ch <- msg

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
		case <-time.After(5 * time.Second):
			t.Fatalf("message on %q was neither acked nor nacked", topic)
		}
	}
}
