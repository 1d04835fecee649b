// Package http exposes the notification delivery endpoints: the SSE
// and WebSocket streams, the publish and announcement APIs, and the
// presence lookup.
package http

import (
	"net/http"
	"time"

	"github.com/EngSayh/Fixzit-sub007/internal/pkg/presence"
	"github.com/EngSayh/Fixzit-sub007/internal/port"
	"github.com/EngSayh/Fixzit-sub007/internal/realtime"
)

// Per-connection frame buffer. A subscriber that stays this far behind
// starts losing frames rather than blocking the delivery loop.
const sinkBuffer = 32

type Handler struct {
	registry      *realtime.Registry
	notifier      port.Notifier
	notifications port.Notifications
	presence      *presence.Tracker
	bus           port.EventBus

	heartbeatInterval time.Duration
	retryMillis       int
}

type HandlerOptions struct {
	Registry      *realtime.Registry
	Notifier      port.Notifier
	Notifications port.Notifications
	Presence      *presence.Tracker
	Bus           port.EventBus

	HeartbeatInterval time.Duration
	RetryMillis       int
}

func NewHandler(opts HandlerOptions) *Handler {
	h := &Handler{
		registry:          opts.Registry,
		notifier:          opts.Notifier,
		notifications:     opts.Notifications,
		presence:          opts.Presence,
		bus:               opts.Bus,
		heartbeatInterval: opts.HeartbeatInterval,
		retryMillis:       opts.RetryMillis,
	}
	if h.heartbeatInterval <= 0 {
		h.heartbeatInterval = 30 * time.Second
	}
	if h.retryMillis <= 0 {
		h.retryMillis = 3000
	}
	return h
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"busEnabled":    h.bus.Enabled(),
		"busConnected":  h.bus.Connected(),
		"subscriptions": h.registry.CountForOrg(""),
	})
}
