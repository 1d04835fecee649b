package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/breaker"
	"github.com/EngSayh/Fixzit-sub007/internal/port"
)

// DefaultSubjectPrefix roots the bus subject hierarchy. Envelopes for an
// org travel on "<prefix>.<orgID>"; every instance listens on
// "<prefix>.>". The subject is routing-only: tenant isolation is
// enforced by the orgID inside the envelope, never by subject parsing.
const DefaultSubjectPrefix = "fixzit.notifications"

// PublisherOptions tunes a Publisher. Zero values fall back to defaults.
type PublisherOptions struct {
	SubjectPrefix    string
	BreakerThreshold int
	BreakerCoolOff   time.Duration
	Logger           *slog.Logger
}

// Publisher fans a notification out to its org's subscribers. With a bus
// configured it publishes the envelope and lets the bus echo drive local
// delivery on every instance (this one included); without a bus, or when
// the bus misbehaves, it delivers locally right away. Both paths converge
// on deliverLocal so delivery semantics exist exactly once.
type Publisher struct {
	reg    *Registry
	bus    port.EventBus
	brk    *breaker.Breaker
	log    *slog.Logger
	prefix string

	subMu        sync.Mutex
	subscription io.Closer
}

// NewPublisher wires a publisher to its registry and bus adapter.
func NewPublisher(reg *Registry, bus port.EventBus, opts PublisherOptions) *Publisher {
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = DefaultSubjectPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Publisher{
		reg:    reg,
		bus:    bus,
		brk:    breaker.New(opts.BreakerThreshold, opts.BreakerCoolOff),
		log:    opts.Logger,
		prefix: opts.SubjectPrefix,
	}
}

// Start brings up the bus side: connect (lazily retried afterwards) and
// install the wildcard subscription that feeds inbound envelopes into
// local delivery. Bus trouble is logged, never fatal; the subsystem is
// fully functional single-instance.
func (p *Publisher) Start() {
	if !p.bus.Enabled() {
		p.log.Info("message bus disabled, delivering single-instance only")
		return
	}
	if err := p.bus.Connect(); err != nil {
		p.log.Warn("bus connect failed, will retry on publish", "error", err)
		return
	}
	if err := p.ensureSubscription(); err != nil {
		p.log.Warn("bus subscription failed, will retry on publish", "error", err)
	}
}

// Stop tears down the inbound bus subscription. The bus connection
// itself belongs to whoever constructed the adapter.
func (p *Publisher) Stop() {
	p.subMu.Lock()
	sub := p.subscription
	p.subscription = nil
	p.subMu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

// Publish delivers payload to the subscribers of orgID, narrowed to
// targetUserIDs when non-empty. The returned error is informational:
// producers must not fail their business transaction on it.
func (p *Publisher) Publish(ctx context.Context, orgID string, payload domain.NotificationPayload, targetUserIDs []string) error {
	if orgID == "" {
		return errors.New("publish: empty org id")
	}
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	if payload.Type == "" {
		payload.Type = domain.EventNotification
	}
	if payload.CreatedAt.IsZero() {
		payload.CreatedAt = time.Now().UTC()
	}

	if p.tryBus(orgID, payload, targetUserIDs) {
		metricPublishedTotal.WithLabelValues("bus").Inc()
		return nil
	}
	if p.bus.Enabled() {
		metricBusFallbackTotal.Inc()
	}
	metricPublishedTotal.WithLabelValues("local").Inc()
	p.deliverLocal(orgID, payload, targetUserIDs)
	return nil
}

// tryBus attempts the cross-instance path. False means the caller must
// deliver locally. A bus send only counts as success after the inbound
// subscription exists, otherwise this instance would never hear its own
// echo and its subscribers would silently miss the notification.
func (p *Publisher) tryBus(orgID string, payload domain.NotificationPayload, targetUserIDs []string) bool {
	if !p.bus.Enabled() {
		return false
	}
	if err := p.bus.Connect(); err != nil {
		p.log.Debug("bus connect failed", "error", err)
		return false
	}
	if !p.bus.Connected() {
		return false
	}
	if !p.brk.Allow() {
		p.log.Debug("bus breaker open, skipping bus publish", "state", p.brk.State().String())
		return false
	}
	if err := p.ensureSubscription(); err != nil {
		p.log.Warn("bus subscription failed", "error", err)
		p.brk.Failure()
		return false
	}

	data, err := json.Marshal(domain.Envelope{
		OrgID:         orgID,
		Notification:  payload,
		TargetUserIDs: targetUserIDs,
	})
	if err != nil {
		p.log.Warn("envelope marshal failed", "notification_id", payload.ID, "error", err)
		return false
	}
	if err := p.bus.Publish(p.prefix+"."+orgID, data); err != nil {
		p.brk.Failure()
		p.log.Warn("bus publish failed, delivering locally",
			"org_id", orgID, "notification_id", payload.ID, "error", err)
		return false
	}
	p.brk.Success()
	return true
}

func (p *Publisher) ensureSubscription() error {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	if p.subscription != nil {
		return nil
	}
	sub, err := p.bus.Subscribe(p.prefix+".>", p.onBusMessage)
	if err != nil {
		return err
	}
	p.subscription = sub
	p.log.Info("bus subscription installed", "subject", p.prefix+".>")
	return nil
}

// onBusMessage handles one inbound envelope. A bad message is dropped
// with a log line; the receive loop never dies on one.
func (p *Publisher) onBusMessage(data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metricBusDecodeErrorsTotal.Inc()
		p.log.Warn("dropping undecodable bus envelope", "bytes", len(data), "error", err)
		return
	}
	if env.OrgID == "" {
		metricBusDecodeErrorsTotal.Inc()
		p.log.Warn("dropping bus envelope without org id", "notification_id", env.Notification.ID)
		return
	}
	p.deliverLocal(env.OrgID, env.Notification, env.TargetUserIDs)
}

// deliverLocal is the single local delivery routine, reached from both
// the bus echo and the direct fallback.
func (p *Publisher) deliverLocal(orgID string, payload domain.NotificationPayload, targetUserIDs []string) {
	p.reg.ForEachMatching(orgID, targetUserIDs, func(sub Subscription) error {
		sub.Sink(payload)
		return nil
	})
}
