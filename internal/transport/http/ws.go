package http

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/errors"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/logger"
	"github.com/EngSayh/Fixzit-sub007/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS middleware upstream.
	CheckOrigin: func(*http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// ws serves GET /api/v1/notifications/ws for clients that prefer a
// WebSocket over SSE. Each frame is one notification payload as JSON;
// liveness runs over ping/pong instead of comment heartbeats.
func (h *Handler) ws(w http.ResponseWriter, r *http.Request) {
	orgID := CurrentOrgID(r)
	userID := CurrentUserID(r)

	events := make(chan domain.NotificationPayload, sinkBuffer)
	subID, err := h.registry.Subscribe(orgID, userID, func(payload domain.NotificationPayload) {
		select {
		case events <- payload:
		default:
			streamDroppedFrames.Inc()
		}
	})
	if err != nil {
		if stderrors.Is(err, realtime.ErrConnectionLimit) {
			errors.WriteError(w, r, errors.New(http.StatusTooManyRequests, "Too Many Connections", "per-user connection limit reached"))
			return
		}
		errors.WriteError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		h.registry.Unsubscribe(subID)
		return
	}

	h.presence.Set(r.Context(), userID, true, time.Now())
	defer func() {
		conn.Close()
		h.registry.Unsubscribe(subID)
		if h.registry.CountForUser(userID) == 0 {
			h.presence.Set(context.Background(), userID, false, time.Now())
		}
	}()

	log := logger.From(r.Context()).With("subscription_id", subID, "user_id", userID, "org_id", orgID)
	log.Info("websocket opened")
	defer log.Info("websocket closed")

	// The read pump discards inbound frames; it exists to notice the
	// close handshake and pong replies. A pong is the liveness signal,
	// so that is where the heartbeat gets refreshed.
	pongWait := h.heartbeatInterval * 2
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		h.registry.Touch(subID)
		return nil
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case payload := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		case <-heartbeat.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
