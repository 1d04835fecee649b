package http

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/errors"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/logger"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/sse"
	"github.com/EngSayh/Fixzit-sub007/internal/realtime"
)

// stream serves GET /api/v1/notifications/stream as Server-Sent Events.
// The connection stays open until the client goes away; notifications
// arrive through a buffered sink so a slow reader loses frames instead
// of stalling delivery to everyone else.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		errors.WriteError(w, r, errors.New(http.StatusInternalServerError, "Streaming Unsupported", "response writer cannot flush"))
		return
	}
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

	h.presence.Set(r.Context(), userID, true, time.Now())
	defer func() {
		h.registry.Unsubscribe(subID)
		// Only the last connection flips the user offline. The request
		// context is gone here, presence must not inherit it.
		if h.registry.CountForUser(userID) == 0 {
			h.presence.Set(context.Background(), userID, false, time.Now())
		}
	}()

	log := logger.From(r.Context()).With("subscription_id", subID, "user_id", userID, "org_id", orgID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	frame, err := sse.FormatMessage(subID, "connected", map[string]string{"subscriptionId": subID}, h.retryMillis)
	if err != nil {
		log.Error("encode connected frame", "error", err)
		return
	}
	if _, err := io.WriteString(w, frame); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	log.Info("stream opened")
	defer log.Info("stream closed")

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-events:
			frame, err := sse.FormatMessage(payload.ID, string(payload.Type), payload, 0)
			if err != nil {
				log.Warn("encode frame", "error", err)
				continue
			}
			if _, err := io.WriteString(w, frame); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(w, sse.Heartbeat()); err != nil {
				return
			}
			flusher.Flush()
			h.registry.Touch(subID)
		}
	}
}
