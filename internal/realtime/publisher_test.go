package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
)

// fakeBus implements port.EventBus in-process. With loopback set it
// echoes every published envelope straight back into the subscription
// handler, imitating a NATS server with one connected instance.
type fakeBus struct {
	enabled       bool
	connected     bool
	failPublish   bool
	failSubscribe bool
	loopback      bool

	mu               sync.Mutex
	publishAttempts  int
	published        [][]byte
	publishSubjects  []string
	subscribeSubject string
	handler          func(data []byte)
	closerClosed     bool
}

func (b *fakeBus) Enabled() bool   { return b.enabled }
func (b *fakeBus) Connect() error  { return nil }
func (b *fakeBus) Connected() bool { return b.connected }
func (b *fakeBus) Close() error    { return nil }

func (b *fakeBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	b.publishAttempts++
	if b.failPublish {
		b.mu.Unlock()
		return errors.New("bus down")
	}
	b.published = append(b.published, data)
	b.publishSubjects = append(b.publishSubjects, subject)
	handler := b.handler
	loopback := b.loopback
	b.mu.Unlock()

	if loopback && handler != nil {
		handler(data)
	}
	return nil
}

func (b *fakeBus) Subscribe(subject string, handler func(data []byte)) (io.Closer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSubscribe {
		return nil, errors.New("subscribe refused")
	}
	b.subscribeSubject = subject
	b.handler = handler
	return closerFunc(func() error {
		b.mu.Lock()
		b.closerClosed = true
		b.mu.Unlock()
		return nil
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (b *fakeBus) attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publishAttempts
}

func (b *fakeBus) sent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

type recorder struct {
	mu       sync.Mutex
	payloads []domain.NotificationPayload
}

func (r *recorder) sink(payload domain.NotificationPayload) {
	r.mu.Lock()
	r.payloads = append(r.payloads, payload)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func (r *recorder) last() domain.NotificationPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.payloads) == 0 {
		return domain.NotificationPayload{}
	}
	return r.payloads[len(r.payloads)-1]
}

func TestPublishDeliversLocallyWithoutBus(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	bus := &fakeBus{enabled: false}
	pub := NewPublisher(reg, bus, PublisherOptions{})
	pub.Start()
	defer pub.Stop()

	rec := &recorder{}
	if _, err := reg.Subscribe("org-1", "alice", rec.sink); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	err := pub.Publish(context.Background(), "org-1", domain.NotificationPayload{
		Title: "Hello", Message: "World",
	}, nil)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("delivered %d payloads, want 1", rec.count())
	}
	got := rec.last()
	if got.ID == "" {
		t.Fatalf("payload ID not filled in")
	}
	if got.Type != domain.EventNotification {
		t.Fatalf("payload type = %q, want default notification", got.Type)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("payload CreatedAt not filled in")
	}
	if bus.attempts() != 0 {
		t.Fatalf("disabled bus was used %d times", bus.attempts())
	}
}

func TestPublishRejectsEmptyOrg(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	pub := NewPublisher(reg, &fakeBus{}, PublisherOptions{})

	if err := pub.Publish(context.Background(), "", domain.NotificationPayload{Title: "x"}, nil); err == nil {
		t.Fatalf("expected error for empty org id")
	}
}

func TestPublishUsesBusEchoExactlyOnce(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	bus := &fakeBus{enabled: true, connected: true, loopback: true}
	pub := NewPublisher(reg, bus, PublisherOptions{})
	pub.Start()
	defer pub.Stop()

	rec := &recorder{}
	if _, err := reg.Subscribe("org-1", "alice", rec.sink); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := pub.Publish(context.Background(), "org-1", domain.NotificationPayload{
		Title: "Hello", Message: "World",
	}, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if bus.sent() != 1 {
		t.Fatalf("bus got %d envelopes, want 1", bus.sent())
	}
	if got := bus.publishSubjects[0]; got != "fixzit.notifications.org-1" {
		t.Fatalf("published on subject %q", got)
	}
	// The echo is the only local delivery. Two would mean the fallback
	// ran alongside the bus path.
	if rec.count() != 1 {
		t.Fatalf("delivered %d payloads, want exactly 1", rec.count())
	}
}

func TestPublishFallsBackWhenBusPublishFails(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	bus := &fakeBus{enabled: true, connected: true, failPublish: true}
	pub := NewPublisher(reg, bus, PublisherOptions{})
	pub.Start()
	defer pub.Stop()

	rec := &recorder{}
	if _, err := reg.Subscribe("org-1", "alice", rec.sink); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := pub.Publish(context.Background(), "org-1", domain.NotificationPayload{
		Title: "Hello", Message: "World",
	}, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("fallback delivered %d payloads, want 1", rec.count())
	}
}

func TestPublishFallsBackWhenDisconnected(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	bus := &fakeBus{enabled: true, connected: false}
	pub := NewPublisher(reg, bus, PublisherOptions{})

	rec := &recorder{}
	if _, err := reg.Subscribe("org-1", "alice", rec.sink); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := pub.Publish(context.Background(), "org-1", domain.NotificationPayload{
		Title: "Hello", Message: "World",
	}, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("delivered %d payloads, want 1", rec.count())
	}
	if bus.attempts() != 0 {
		t.Fatalf("disconnected bus got %d publish attempts", bus.attempts())
	}
}

func TestBreakerStopsHammeringFailingBus(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	bus := &fakeBus{enabled: true, connected: true, failPublish: true}
	pub := NewPublisher(reg, bus, PublisherOptions{
		BreakerThreshold: 2,
		BreakerCoolOff:   time.Hour,
	})
	pub.Start()
	defer pub.Stop()

	rec := &recorder{}
	if _, err := reg.Subscribe("org-1", "alice", rec.sink); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := pub.Publish(context.Background(), "org-1", domain.NotificationPayload{
			Title: "Hello", Message: "World",
		}, nil); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	// Two failures trip the breaker; the remaining publishes skip the
	// bus entirely.
	if bus.attempts() != 2 {
		t.Fatalf("bus got %d attempts, want 2", bus.attempts())
	}
	// Every publish still reached the local subscriber.
	if rec.count() != 5 {
		t.Fatalf("delivered %d payloads, want 5", rec.count())
	}
}

func TestStartInstallsWildcardSubscription(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	bus := &fakeBus{enabled: true, connected: true}
	pub := NewPublisher(reg, bus, PublisherOptions{})

	pub.Start()
	if bus.subscribeSubject != "fixzit.notifications.>" {
		t.Fatalf("subscribed on %q", bus.subscribeSubject)
	}

	pub.Stop()
	if !bus.closerClosed {
		t.Fatalf("Stop did not close the subscription")
	}
}

func TestOnBusMessageDropsGarbage(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	pub := NewPublisher(reg, &fakeBus{enabled: true, connected: true}, PublisherOptions{})

	rec := &recorder{}
	if _, err := reg.Subscribe("org-1", "alice", rec.sink); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pub.onBusMessage([]byte("not json at all"))
	pub.onBusMessage([]byte(`{"notification":{"id":"n-1"}}`)) // missing orgId

	if rec.count() != 0 {
		t.Fatalf("bad envelopes reached a subscriber")
	}

	pub.onBusMessage([]byte(`{"orgId":"org-1","notification":{"id":"n-2","type":"notification","title":"t","message":"m"}}`))
	if rec.count() != 1 {
		t.Fatalf("valid envelope not delivered, got %d", rec.count())
	}
}
