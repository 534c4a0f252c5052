package handlers

import (
	"net/http"

	"github.com/mtpl/face-attendance/internal/attendance"
)

// ClockHandler serves the face-gated clock in/out and break endpoints.
type ClockHandler struct {
	service *attendance.Service
}

// NewClockHandler creates a new clock handler.
func NewClockHandler(service *attendance.Service) *ClockHandler {
	return &ClockHandler{service: service}
}

// ClockRequest is the clock endpoint request body.
type ClockRequest struct {
	Image         string   `json:"image"` // data URL or base64
	Action        string   `json:"action"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	ClaimedUserID int64    `json:"claimed_user_id,omitempty"`
}

// ClockResponse is the clock endpoint success body.
type ClockResponse struct {
	Success            bool               `json:"success"`
	UserID             int64              `json:"user_id"`
	Attendance         *attendance.Record `json:"attendance"`
	MatchDistance      float64            `json:"match_distance"`
	DistanceFromOffice float64            `json:"distance_from_office"`
}

// Clock handles POST /attendance/clock.
func (h *ClockHandler) Clock(w http.ResponseWriter, r *http.Request) {
	var req ClockRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	action := attendance.Action(req.Action)
	if action != attendance.ActionClockIn && action != attendance.ActionClockOut {
		respondError(w, http.StatusBadRequest, "action must be clock_in or clock_out")
		return
	}
	if req.Image == "" {
		respondError(w, http.StatusBadRequest, "image required")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondError(w, http.StatusBadRequest, "location required")
		return
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image data")
		return
	}

	result, err := h.service.Clock(r.Context(), attendance.ClockRequest{
		Image:         image,
		Action:        action,
		ClientAddr:    clientAddr(r),
		Latitude:      *req.Latitude,
		Longitude:     *req.Longitude,
		ClaimedUserID: req.ClaimedUserID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ClockResponse{
		Success:            true,
		UserID:             result.UserID,
		Attendance:         result.Record,
		MatchDistance:      result.Distance,
		DistanceFromOffice: result.DistanceMeters,
	})
}

// BreakRequest is the break endpoint request body. The user is identified by
// the authenticated session, not by a face probe.
type BreakRequest struct {
	UserID    int64    `json:"user_id"`
	Action    string   `json:"action"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Break handles POST /attendance/break.
func (h *ClockHandler) Break(w http.ResponseWriter, r *http.Request) {
	var req BreakRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	action := attendance.Action(req.Action)
	if action != attendance.ActionBreakIn && action != attendance.ActionBreakOut {
		respondError(w, http.StatusBadRequest, "action must be break_in or break_out")
		return
	}
	if req.UserID == 0 {
		respondError(w, http.StatusBadRequest, "user_id required")
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		respondError(w, http.StatusBadRequest, "location required")
		return
	}

	record, err := h.service.BreakToggle(r.Context(), req.UserID, action, clientAddr(r), *req.Latitude, *req.Longitude)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"attendance": record,
	})
}
