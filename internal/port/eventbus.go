package port

import "io"

// EventBus abstracts the external publish/subscribe bus used for
// cross-instance fan-out. Implementations: NATS-backed and no-op
// (local-only), selected at startup by configuration presence.
type EventBus interface {
	// Enabled reports whether an external bus is configured at all.
	// False means the instance runs local-only and publishes never
	// attempt the bus.
	Enabled() bool
	// Connect is lazy and idempotent. The no-op bus returns nil and
	// stays disconnected; the NATS bus dials once and lets the client
	// retry with backoff afterwards.
	Connect() error
	// Connected reports whether a live bus connection exists right now.
	Connected() bool
	// Publish is a best-effort send; callers fall back to local
	// delivery on error.
	Publish(subject string, data []byte) error
	// Subscribe installs a handler for every message on subject
	// (wildcards allowed). The returned closer tears the subscription
	// down.
	Subscribe(subject string, handler func(data []byte)) (io.Closer, error)
	Close() error
}
