package handlers

import (
	"net/http"
	"time"

	"github.com/mtpl/face-attendance/internal/attendance"
	"github.com/mtpl/face-attendance/internal/database"
)

// StatsHandler serves daily attendance aggregates.
type StatsHandler struct {
	records   attendance.Repository
	templates database.TemplateStore
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(records attendance.Repository, templates database.TemplateStore) *StatsHandler {
	return &StatsHandler{records: records, templates: templates}
}

// Day handles GET /attendance/stats. The date parameter defaults to today
// in the site timezone.
func (h *StatsHandler) Day(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = attendance.DayOf(time.Now())
	} else if _, err := time.Parse(time.DateOnly, day); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	stats, err := h.records.StatsForDay(r.Context(), day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load stats")
		return
	}
	enrolled, err := h.templates.CountActive(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not count templates")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":        day,
		"enrolled":    enrolled,
		"present":     stats.Present,
		"on_break":    stats.OnBreak,
		"clocked_out": stats.ClockedOut,
		"absent":      max(enrolled-stats.Present, 0),
	})
}
