package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cradlehealth/cradle/internal/auth"
	"github.com/cradlehealth/cradle/internal/model"
	"github.com/cradlehealth/cradle/internal/registration"
	"github.com/cradlehealth/cradle/internal/store"
)

type ChildHandler struct {
	registrations *registration.Service
	records       *store.ChildVaccineStore
	logger        *slog.Logger
}

func NewChildHandler(registrations *registration.Service, records *store.ChildVaccineStore, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{
		registrations: registrations,
		records:       records,
		logger:        logger,
	}
}

// Register handles POST /api/user/register-child
func (h *ChildHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BabyName    string `json:"babyName"`
		DateOfBirth string `json:"dateOfBirth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := h.registrations.RegisterChild(auth.UserID(r.Context()), req.BabyName, req.DateOfBirth)
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrMissingFields), errors.Is(err, registration.ErrInvalidDate):
			writeMessage(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, registration.ErrDuplicateChild):
			writeMessage(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("register child", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Error registering child")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf(
			"Child %s registered and %d vaccines scheduled successfully",
			result.BabyName, result.VaccinesCount,
		),
		"babyName":      result.BabyName,
		"vaccinesCount": result.VaccinesCount,
	})
}

// ListChildren handles GET /api/user/children
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.records.ListChildren(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list children", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching children")
		return
	}
	if children == nil {
		children = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": children})
}

// ListVaccines handles GET /api/user/vaccines?babyName=
func (h *ChildHandler) ListVaccines(w http.ResponseWriter, r *http.Request) {
	babyName := strings.TrimSpace(r.URL.Query().Get("babyName"))
	if babyName == "" {
		writeMessage(w, http.StatusBadRequest, "babyName query param is required")
		return
	}

	records, err := h.records.ListByChild(auth.UserID(r.Context()), babyName)
	if err != nil {
		h.logger.Error("list vaccines", "error", err, "baby_name", babyName)
		writeMessage(w, http.StatusInternalServerError, "Error fetching vaccines")
		return
	}
	if records == nil {
		records = []model.ChildVaccine{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vaccines": records})
}

// MarkDone handles POST /api/user/vaccines/{id}/done
func (h *ChildHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid vaccine record ID")
		return
	}

	record, err := h.records.MarkDone(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("mark vaccine done", "error", err, "record_id", id)
		writeMessage(w, http.StatusInternalServerError, "Error updating vaccine")
		return
	}
	if record == nil {
		writeMessage(w, http.StatusNotFound, "Vaccine record not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Vaccine marked as done",
		"vaccine": record,
	})
}
