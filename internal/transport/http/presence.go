package http

import (
	"net/http"
	"strings"

	"github.com/EngSayh/Fixzit-sub007/internal/pkg/errors"
)

const maxPresenceIDs = 100

// presenceStatus serves GET /api/v1/presence?ids=a,b,c. Users with no
// presence entry are simply absent from the response.
func (h *Handler) presenceStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		errors.WriteError(w, r, errors.New(http.StatusBadRequest, "Bad Request", "ids query parameter required"))
		return
	}

	ids := make([]string, 0, 8)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 || len(ids) > maxPresenceIDs {
		errors.WriteError(w, r, errors.New(http.StatusBadRequest, "Bad Request", "ids must name between 1 and 100 users"))
		return
	}

	statuses := h.presence.GetMany(r.Context(), ids)
	respondJSON(w, http.StatusOK, map[string]any{"statuses": statuses})
}
