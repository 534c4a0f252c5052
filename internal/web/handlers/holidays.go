package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtpl/face-attendance/internal/database"
)

// HolidaysHandler serves the holiday calendar.
type HolidaysHandler struct {
	holidays database.HolidayStore
}

// NewHolidaysHandler creates a new holidays handler.
func NewHolidaysHandler(holidays database.HolidayStore) *HolidaysHandler {
	return &HolidaysHandler{holidays: holidays}
}

// List handles GET /holidays.
func (h *HolidaysHandler) List(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.holidays.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load holidays")
		return
	}
	if holidays == nil {
		holidays = []database.Holiday{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"holidays": holidays})
}

// AddHolidayRequest is the holiday insert body.
type AddHolidayRequest struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Name      string `json:"name"`
	IsWeekoff bool   `json:"is_weekoff"`
}

// Add handles POST /holidays.
func (h *HolidaysHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddHolidayRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if _, err := time.Parse(time.DateOnly, req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name required")
		return
	}

	holiday, err := h.holidays.Add(r.Context(), req.Date, req.Name, req.IsWeekoff)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not store holiday")
		return
	}
	respondJSON(w, http.StatusCreated, holiday)
}

// Delete handles DELETE /holidays/{id}.
func (h *HolidaysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.holidays.Delete(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "holiday not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "could not delete holiday")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
