package handler

import (
	"log/slog"
	"net/http"

	"github.com/bookbase/bookbase-admin/internal/model"
)

// activityLimit is how many audit events the activity page shows.
const activityLimit = 50

type activityPage struct {
	Events []model.AuditEvent
	Err    string
}

// Activity lists the latest audited actions.
// GET /activity
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	events, err := h.audit.Recent(r.Context(), activityLimit)
	page := activityPage{Events: events}
	if err != nil {
		h.logger.WarnContext(r.Context(), "audit log unavailable", slog.String("error", err.Error()))
		page.Err = msgActivityFailed
	}

	h.render(w, r, http.StatusOK, "activity.html", pageData{
		Title:  "Atividade Recente",
		Active: "/activity",
		Data:   page,
	})
}
