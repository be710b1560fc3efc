package handlers

import (
	"net/http"

	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/httpx"
	"github.com/diewo77/bookbuddy/internal/policy"
	"github.com/diewo77/bookbuddy/internal/services"
	"github.com/diewo77/bookbuddy/internal/store"
)

type NotificationHandler struct {
	inbox *services.NotificationService
	gate  *policy.AuthGate
}

func NewNotificationHandler(inbox *services.NotificationService, ag *policy.AuthGate) *NotificationHandler {
	return &NotificationHandler{inbox: inbox, gate: ag}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.inbox.List(r.Context(), currentUser(r))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// MarkRead answers 404 for notifications the caller does not own, so ids of
// other inboxes are not disclosed.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	n, err := h.inbox.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.gate.Authorize(r.Context(), gate.ActionUpdate, policy.ResourceNotification, n); err != nil {
		httpx.Error(w, r, store.ErrNotificationNotFound)
		return
	}
	if err := h.inbox.MarkRead(r.Context(), currentUser(r), id); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.inbox.MarkAllRead(r.Context(), currentUser(r))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}
