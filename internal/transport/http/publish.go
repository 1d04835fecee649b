package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/EngSayh/Fixzit-sub007/internal/domain"
	"github.com/EngSayh/Fixzit-sub007/internal/pkg/errors"
)

type publishRequest struct {
	Type          string   `json:"type" validate:"omitempty,oneof=notification work_order_update bid_received payment_confirmed maintenance_alert system_announcement"`
	Title         string   `json:"title" validate:"required,max=200"`
	Message       string   `json:"message" validate:"required,max=2000"`
	Link          string   `json:"link" validate:"omitempty,uri,max=500"`
	Priority      string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	TargetUserIDs []string `json:"targetUserIds" validate:"omitempty,max=100,dive,required"`
}

// publish serves POST /api/v1/notifications/publish. The notification
// goes to the caller's own org; cross-org publishing is not a thing
// this API can express.
func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		errors.WriteError(w, r, errors.New(http.StatusBadRequest, "Bad Request", "invalid JSON body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	payload := domain.NotificationPayload{
		ID:       uuid.NewString(),
		Type:     domain.EventType(req.Type),
		Title:    req.Title,
		Message:  req.Message,
		Link:     req.Link,
		Priority: domain.Priority(req.Priority),
	}
	if err := h.notifier.Publish(r.Context(), CurrentOrgID(r), payload, req.TargetUserIDs); err != nil {
		errors.WriteError(w, r, errors.New(http.StatusInternalServerError, "Publish Failed", "notification could not be delivered"))
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"id": payload.ID, "status": "accepted"})
}

type announceRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=2000"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}

// announce serves POST /api/v1/announcements, a system announcement to
// every connected member of the caller's org.
func (h *Handler) announce(w http.ResponseWriter, r *http.Request) {
	var req announceRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		errors.WriteError(w, r, errors.New(http.StatusBadRequest, "Bad Request", "invalid JSON body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, r, err)
		return
	}

	if err := h.notifications.Announce(r.Context(), CurrentOrgID(r), req.Title, req.Message, domain.Priority(req.Priority)); err != nil {
		errors.WriteError(w, r, errors.New(http.StatusInternalServerError, "Publish Failed", "announcement could not be delivered"))
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
