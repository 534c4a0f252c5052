package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mtpl/face-attendance/internal/attendance"
)

// defaultLatestLimit bounds the latest-records listing when the caller does
// not ask for a specific count.
const defaultLatestLimit = 20

// LiveHandler serves the live camera presence endpoint and the recent
// activity listing.
type LiveHandler struct {
	service *attendance.Service
	records attendance.Repository
}

// NewLiveHandler creates a new live presence handler.
func NewLiveHandler(service *attendance.Service, records attendance.Repository) *LiveHandler {
	return &LiveHandler{service: service, records: records}
}

// LiveMarkRequest is the live presence request body.
type LiveMarkRequest struct {
	Image string `json:"image"` // data URL or base64
}

// Mark handles POST /attendance/live. A frame with no recognizable face is
// a normal outcome; the camera keeps streaming regardless.
func (h *LiveHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req LiveMarkRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image required")
		return
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image data")
		return
	}

	result, err := h.service.LiveMark(r.Context(), image)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	body := map[string]any{"matched": result.Matched}
	if result.Matched {
		body["user_id"] = result.UserID
		body["match_distance"] = result.Distance
		body["created"] = result.Created
		if result.Record != nil {
			body["marked_at"] = result.Record.MarkedAt
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// Status handles GET /attendance/status. Returns the user's record for the
// given date, today when unset. An absent day yields state "absent" with no
// record.
func (h *LiveHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "user_id must be a positive integer")
		return
	}

	day := r.URL.Query().Get("date")
	if day == "" {
		day = attendance.DayOf(time.Now())
	} else if _, err := time.Parse(time.DateOnly, day); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	record, err := h.records.Get(r.Context(), userID, day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load record")
		return
	}

	state := attendance.StateAbsent
	if record != nil {
		state = record.State
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"date":    day,
		"state":   state,
		"record":  record,
	})
}

// Latest handles GET /attendance/latest.
func (h *LiveHandler) Latest(w http.ResponseWriter, r *http.Request) {
	limit := defaultLatestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	records, err := h.records.Latest(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load records")
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
	})
}
