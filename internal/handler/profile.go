package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cradlehealth/cradle/internal/auth"
	"github.com/cradlehealth/cradle/internal/store"
)

type ProfileHandler struct {
	userStore *store.UserStore
	logger    *slog.Logger
}

func NewProfileHandler(us *store.UserStore, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{userStore: us, logger: logger}
}

// Get handles GET /api/user/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get profile", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching profile")
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Update handles PUT /api/user/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string  `json:"name"`
		Phone                *string `json:"phone"`
		PregnancyWeek        *int    `json:"pregnancyWeek"`
		ExpectedDeliveryDate *string `json:"expectedDeliveryDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.PregnancyWeek != nil && (*req.PregnancyWeek < 1 || *req.PregnancyWeek > 42) {
		writeMessage(w, http.StatusBadRequest, "pregnancyWeek must be between 1 and 42")
		return
	}

	var expectedDelivery *time.Time
	if req.ExpectedDeliveryDate != nil && strings.TrimSpace(*req.ExpectedDeliveryDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.ExpectedDeliveryDate))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "expectedDeliveryDate must be a valid date in YYYY-MM-DD format")
			return
		}
		expectedDelivery = &parsed
	}

	user, err := h.userStore.UpdateProfile(auth.UserID(r.Context()), req.Name, req.Phone, req.PregnancyWeek, expectedDelivery)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error updating profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
