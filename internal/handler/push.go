package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cradlehealth/cradle/internal/auth"
	"github.com/cradlehealth/cradle/internal/store"
)

type PushHandler struct {
	pushStore      *store.PushStore
	vapidPublicKey string
	logger         *slog.Logger
}

func NewPushHandler(ps *store.PushStore, vapidPublicKey string, logger *slog.Logger) *PushHandler {
	return &PushHandler{
		pushStore:      ps,
		vapidPublicKey: vapidPublicKey,
		logger:         logger,
	}
}

// VAPIDKey handles GET /api/user/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.vapidPublicKey == "" {
		writeMessage(w, http.StatusServiceUnavailable, "Push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.vapidPublicKey})
}

// Subscribe handles POST /api/user/push/subscribe
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
		P256dh   string `json:"p256dh"`
		Auth     string `json:"auth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeMessage(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.Upsert(auth.UserID(r.Context()), req.Endpoint, req.P256dh, req.Auth)
	if err != nil {
		h.logger.Error("save subscription", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error saving subscription")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "Subscribed to vaccine reminders",
		"subscription": sub,
	})
}

// Unsubscribe handles DELETE /api/user/push/subscriptions/{id}
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid subscription ID")
		return
	}

	deleted, err := h.pushStore.Delete(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("delete subscription", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error deleting subscription")
		return
	}
	if !deleted {
		writeMessage(w, http.StatusNotFound, "Subscription not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
