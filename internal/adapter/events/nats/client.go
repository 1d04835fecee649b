package nats

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	natspkg "github.com/nats-io/nats.go"
)

// Bus is the NATS-backed event bus. Connect dials with
// RetryOnFailedConnect, so an unreachable server keeps being retried
// with backoff in the background while Connected reports false and
// publishes fall back to local delivery. Subscriptions installed in the
// meantime become live automatically once the connection comes up.
type Bus struct {
	url string
	log *slog.Logger

	mu sync.Mutex
	nc *natspkg.Conn
}

// New builds a bus adapter for the given server URL.
func New(url string, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{url: url, log: log}
}

func (b *Bus) Enabled() bool {
	return b.url != ""
}

// Connect is idempotent. An error here means the URL or options are
// unusable; a merely-down server is not an error, the client retries it.
func (b *Bus) Connect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nc != nil {
		return nil
	}

	nc, err := natspkg.Connect(b.url,
		natspkg.Name("fixzit-notifyd"),
		natspkg.RetryOnFailedConnect(true),
		natspkg.MaxReconnects(-1),
		natspkg.ReconnectWait(2*time.Second),
		natspkg.DisconnectErrHandler(func(_ *natspkg.Conn, err error) {
			if err != nil {
				b.log.Warn("bus disconnected", "error", err)
			}
		}),
		natspkg.ReconnectHandler(func(nc *natspkg.Conn) {
			b.log.Info("bus reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", b.url, err)
	}
	b.nc = nc
	return nil
}

func (b *Bus) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nc != nil && b.nc.Status() == natspkg.CONNECTED
}

func (b *Bus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	nc := b.nc
	b.mu.Unlock()
	if nc == nil {
		return errors.New("bus not connected")
	}
	return nc.Publish(subject, data)
}

func (b *Bus) Subscribe(subject string, handler func(data []byte)) (io.Closer, error) {
	b.mu.Lock()
	nc := b.nc
	b.mu.Unlock()
	if nc == nil {
		return nil, errors.New("bus not connected")
	}
	sub, err := nc.Subscribe(subject, func(msg *natspkg.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return subscription{sub: sub}, nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nc != nil {
		b.nc.Close()
		b.nc = nil
	}
	return nil
}

type subscription struct {
	sub *natspkg.Subscription
}

func (s subscription) Close() error {
	return s.sub.Unsubscribe()
}
