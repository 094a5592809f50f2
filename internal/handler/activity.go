package handler

import (
	"log/slog"
	"net/http"

	"github.com/ngvan/tunebox/internal/model"
	"github.com/ngvan/tunebox/internal/service"
)

// ActivityHandler exposes the read side of the activity log.
type ActivityHandler struct {
	activity *service.ActivityService
	logger   *slog.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(activity *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activity: activity, logger: logger}
}

// HandleList returns the caller's activity entries, oldest first.
//
// HTTP: GET /api/activity
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	entries, err := h.activity.ListFor(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}
