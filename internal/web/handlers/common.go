package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mtpl/face-attendance/internal/attendance"
	"github.com/mtpl/face-attendance/internal/database"
	"github.com/mtpl/face-attendance/internal/geofence"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps expected attendance outcomes to HTTP statuses.
// Anything unrecognized is an infrastructure fault.
func respondDomainError(w http.ResponseWriter, err error) {
	var dup *attendance.DuplicateFaceError
	var origin *geofence.OriginError
	var fence *geofence.GeofenceError

	switch {
	case errors.Is(err, attendance.ErrNoFaceDetected),
		errors.Is(err, attendance.ErrMultipleFaces),
		errors.Is(err, database.ErrInvalidEmbedding):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, attendance.ErrUnknownFace):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &dup):
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":           err.Error(),
			"matched_user_id": dup.UserID,
		})
	case errors.As(err, &origin):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &fence):
		respondJSON(w, http.StatusForbidden, map[string]any{
			"error":                err.Error(),
			"distance_from_office": fence.DistanceMeters,
		})
	case errors.Is(err, attendance.ErrIdentityMismatch),
		errors.Is(err, attendance.ErrAccountInactive):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, attendance.ErrAlreadyClockedIn),
		errors.Is(err, attendance.ErrNoClockInFound),
		errors.Is(err, attendance.ErrAlreadyClockedOut),
		errors.Is(err, attendance.ErrNoOpenClockIn),
		errors.Is(err, attendance.ErrAlreadyOnBreak),
		errors.Is(err, attendance.ErrNoBreakInFound),
		errors.Is(err, attendance.ErrAlreadyBrokeOut):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSONBody decodes the request body into v, answering 400 on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// clientAddr extracts the client IP for the origin gate. chi's RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// decodeImage accepts either a browser data URL or plain base64 image data.
func decodeImage(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return raw, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
