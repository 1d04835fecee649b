// Package realtime implements tenant-scoped fan-out of notification
// payloads to live streaming connections: an in-process subscription
// registry with per-user admission control, a staleness sweeper, and a
// publisher that prefers the cross-instance bus and degrades to
// local-only delivery.
package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
)

// Defaults applied by NewRegistry when an option is zero.
const (
	DefaultMaxPerUser = 5
	DefaultStaleAfter = 5 * time.Minute
	DefaultSweepEvery = time.Minute
)

// ErrConnectionLimit is returned by Subscribe when the caller already
// holds the maximum number of connections for one user. Non-fatal:
// the serving layer closes that connection cleanly and moves on.
var ErrConnectionLimit = errors.New("connection limit exceeded")

// Sink delivers one payload to a single connection. Implementations must
// not block: the serving layer backs each sink with a bounded queue and
// drops frames for that subscriber when it is full.
type Sink func(payload domain.NotificationPayload)

// Subscription is one connected client. The registry owns it
// exclusively; callers hold only the id returned by Subscribe.
type Subscription struct {
	ID            string
	OrgID         string
	UserID        string
	Sink          Sink
	ConnectedAt   time.Time
	LastHeartbeat time.Time
}

// Options configures a Registry. Zero values fall back to the package
// defaults.
type Options struct {
	MaxPerUser int
	StaleAfter time.Duration
	SweepEvery time.Duration
	Logger     *slog.Logger
}

// Registry is the single synchronization point for subscriber state.
// Connections arrive and depart independently of publish traffic, so
// every operation is safe for concurrent use.
type Registry struct {
	log        *slog.Logger
	maxPerUser int
	staleAfter time.Duration
	sweepEvery time.Duration

	mu   sync.RWMutex
	subs map[string]*Subscription

	sweepMu   sync.Mutex
	sweepStop chan struct{}
	sweepDone chan struct{}
}

// NewRegistry builds an empty registry. The sweeper starts lazily on the
// first Subscribe.
func NewRegistry(opts Options) *Registry {
	if opts.MaxPerUser <= 0 {
		opts.MaxPerUser = DefaultMaxPerUser
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = DefaultSweepEvery
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		log:        opts.Logger,
		maxPerUser: opts.MaxPerUser,
		staleAfter: opts.StaleAfter,
		sweepEvery: opts.SweepEvery,
		subs:       make(map[string]*Subscription),
	}
}

// Subscribe registers a connection for userID under orgID and returns
// its subscription id. When the user already holds the per-user maximum
// the call registers nothing and returns ErrConnectionLimit.
func (r *Registry) Subscribe(orgID, userID string, sink Sink) (string, error) {
	if sink == nil {
		return "", errors.New("subscribe: nil sink")
	}

	r.mu.Lock()
	if n := r.countForUserLocked(userID); n >= r.maxPerUser {
		r.mu.Unlock()
		return "", fmt.Errorf("user %s already has %d connections: %w", userID, n, ErrConnectionLimit)
	}
	now := time.Now()
	sub := &Subscription{
		ID:            uuid.NewString(),
		OrgID:         orgID,
		UserID:        userID,
		Sink:          sink,
		ConnectedAt:   now,
		LastHeartbeat: now,
	}
	r.subs[sub.ID] = sub
	total := len(r.subs)
	r.mu.Unlock()

	metricActiveSubscriptions.Inc()
	r.startSweeper()
	r.log.Debug("subscription registered",
		"subscription_id", sub.ID, "org_id", orgID, "user_id", userID, "total", total)
	return sub.ID, nil
}

// Unsubscribe removes a subscription. Unknown ids are a no-op, never an
// error, so disconnect paths can call it unconditionally.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	sub, ok := r.subs[id]
	if ok {
		delete(r.subs, id)
	}
	r.mu.Unlock()

	if ok {
		metricActiveSubscriptions.Dec()
		r.log.Debug("subscription removed",
			"subscription_id", id, "org_id", sub.OrgID, "user_id", sub.UserID)
	}
}

// Touch refreshes the heartbeat of a subscription after an explicit
// keep-alive reached the client. Unknown ids are ignored.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	if sub, ok := r.subs[id]; ok {
		sub.LastHeartbeat = time.Now()
	}
	r.mu.Unlock()
}

// CountForUser returns the number of active subscriptions held by
// userID across all orgs.
func (r *Registry) CountForUser(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countForUserLocked(userID)
}

// CountForOrg returns the number of active subscriptions under orgID.
// An empty orgID counts every subscription across all tenants.
func (r *Registry) CountForOrg(orgID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if orgID == "" {
		return len(r.subs)
	}
	n := 0
	for _, sub := range r.subs {
		if sub.OrgID == orgID {
			n++
		}
	}
	return n
}

func (r *Registry) countForUserLocked(userID string) int {
	n := 0
	for _, sub := range r.subs {
		if sub.UserID == userID {
			n++
		}
	}
	return n
}

// ForEachMatching invokes fn once per subscription in orgID, restricted
// to targetUserIDs when non-empty. It iterates a snapshot, so
// subscriptions added or removed mid-pass neither crash the pass nor
// receive duplicates. Each invocation is isolated: a panic or error from
// one subscriber is logged and the remaining subscribers still get
// theirs. A successful invocation refreshes that subscription's
// heartbeat.
func (r *Registry) ForEachMatching(orgID string, targetUserIDs []string, fn func(sub Subscription) error) {
	var want map[string]struct{}
	if len(targetUserIDs) > 0 {
		want = make(map[string]struct{}, len(targetUserIDs))
		for _, id := range targetUserIDs {
			want[id] = struct{}{}
		}
	}

	r.mu.RLock()
	snapshot := make([]Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.OrgID != orgID {
			continue
		}
		if want != nil {
			if _, ok := want[sub.UserID]; !ok {
				continue
			}
		}
		snapshot = append(snapshot, *sub)
	}
	r.mu.RUnlock()

	for _, sub := range snapshot {
		if err := invoke(sub, fn); err != nil {
			metricDeliveryErrorsTotal.Inc()
			r.log.Warn("subscriber delivery failed",
				"subscription_id", sub.ID, "org_id", sub.OrgID, "user_id", sub.UserID, "error", err)
			continue
		}
		metricDeliveredTotal.Inc()
		r.Touch(sub.ID)
	}
}

// invoke shields the iteration from a misbehaving subscriber callback.
func invoke(sub Subscription, fn func(Subscription) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sink panicked: %v", rec)
		}
	}()
	return fn(sub)
}

// ResetForTesting drops every subscription and stops the sweeper so unit
// tests get a cold registry without waiting on timers.
func (r *Registry) ResetForTesting() {
	r.mu.Lock()
	n := len(r.subs)
	r.subs = make(map[string]*Subscription)
	r.mu.Unlock()

	metricActiveSubscriptions.Sub(float64(n))
	r.stopSweeper()
}

// Close stops the sweeper. Subscriptions are left in place for the
// serving layer to drain during shutdown.
func (r *Registry) Close() {
	r.stopSweeper()
}
