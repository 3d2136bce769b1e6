package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cradlehealth/cradle/internal/model"
	"github.com/cradlehealth/cradle/internal/store"
)

// VaccineAdminHandler manages the vaccine catalog. All routes require the
// admin role.
type VaccineAdminHandler struct {
	vaccines *store.VaccineStore
	logger   *slog.Logger
}

func NewVaccineAdminHandler(vs *store.VaccineStore, logger *slog.Logger) *VaccineAdminHandler {
	return &VaccineAdminHandler{vaccines: vs, logger: logger}
}

type vaccineRequest struct {
	Name       string `json:"name"`
	AgeInWeeks *int   `json:"ageInWeeks"`
	IsDefault  *bool  `json:"isDefault"`
}

func (req *vaccineRequest) validate() (string, bool) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required", false
	}
	if req.AgeInWeeks == nil {
		return "ageInWeeks is required", false
	}
	if *req.AgeInWeeks < 0 {
		return "ageInWeeks must be zero or greater", false
	}
	return "", true
}

// List handles GET /api/admin/vaccines
func (h *VaccineAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	vaccines, err := h.vaccines.List()
	if err != nil {
		h.logger.Error("list catalog", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching vaccines")
		return
	}
	if vaccines == nil {
		vaccines = []model.Vaccine{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"vaccines": vaccines})
}

// Create handles POST /api/admin/vaccines
func (h *VaccineAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vaccineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg, ok := req.validate(); !ok {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	isDefault := true
	if req.IsDefault != nil {
		isDefault = *req.IsDefault
	}

	vaccine, err := h.vaccines.Create(req.Name, *req.AgeInWeeks, isDefault)
	if err != nil {
		h.logger.Error("create vaccine", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error creating vaccine")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Vaccine created successfully",
		"vaccine": vaccine,
	})
}

// Update handles PUT /api/admin/vaccines/{id}
func (h *VaccineAdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid vaccine ID")
		return
	}

	var req vaccineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg, ok := req.validate(); !ok {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.vaccines.GetByID(id)
	if err != nil {
		h.logger.Error("get vaccine", "error", err, "vaccine_id", id)
		writeMessage(w, http.StatusInternalServerError, "Error updating vaccine")
		return
	}
	if existing == nil {
		writeMessage(w, http.StatusNotFound, "Vaccine not found")
		return
	}

	isDefault := existing.IsDefault
	if req.IsDefault != nil {
		isDefault = *req.IsDefault
	}

	vaccine, err := h.vaccines.Update(id, req.Name, *req.AgeInWeeks, isDefault)
	if err != nil {
		h.logger.Error("update vaccine", "error", err, "vaccine_id", id)
		writeMessage(w, http.StatusInternalServerError, "Error updating vaccine")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Vaccine updated successfully",
		"vaccine": vaccine,
	})
}

// Delete handles DELETE /api/admin/vaccines/{id}
func (h *VaccineAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid vaccine ID")
		return
	}

	existing, err := h.vaccines.GetByID(id)
	if err != nil {
		h.logger.Error("get vaccine", "error", err, "vaccine_id", id)
		writeMessage(w, http.StatusInternalServerError, "Error deleting vaccine")
		return
	}
	if existing == nil {
		writeMessage(w, http.StatusNotFound, "Vaccine not found")
		return
	}

	referenced, err := h.vaccines.Referenced(id)
	if err != nil {
		h.logger.Error("check vaccine references", "error", err, "vaccine_id", id)
		writeMessage(w, http.StatusInternalServerError, "Error deleting vaccine")
		return
	}
	if referenced {
		writeMessage(w, http.StatusConflict, "Vaccine is referenced by child schedules and cannot be deleted")
		return
	}

	if err := h.vaccines.Delete(id); err != nil {
		h.logger.Error("delete vaccine", "error", err, "vaccine_id", id)
		writeMessage(w, http.StatusInternalServerError, "Error deleting vaccine")
		return
	}

	writeMessage(w, http.StatusOK, "Vaccine deleted successfully")
}
