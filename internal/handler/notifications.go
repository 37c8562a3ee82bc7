package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"classservice/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	list, err := h.notifications.List(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *NotificationHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.notifications.MarkSeen(r.Context(), chi.URLParam(r, "id"), principal.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "notification marked as seen")
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.notifications.Delete(r.Context(), chi.URLParam(r, "id"), principal.ID); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "notification deleted")
}
