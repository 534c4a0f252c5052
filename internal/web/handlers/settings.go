package handlers

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mtpl/face-attendance/internal/database"
	"github.com/mtpl/face-attendance/internal/geofence"
)

// SettingsHandler serves the geofence configuration and origin allow-list.
type SettingsHandler struct {
	settings database.SettingsStore
	ips      database.AllowedIPStore
	policy   *geofence.Loader
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings database.SettingsStore, ips database.AllowedIPStore, policy *geofence.Loader) *SettingsHandler {
	return &SettingsHandler{settings: settings, ips: ips, policy: policy}
}

// GeofenceSettings is the geofence part of the settings payload.
type GeofenceSettings struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policy.Policy(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load settings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"geofence": GeofenceSettings{
			Latitude:     policy.Latitude,
			Longitude:    policy.Longitude,
			RadiusMeters: policy.RadiusMeters,
		},
	})
}

// UpdateSettingsRequest is the settings update body. Omitted fields are left
// untouched.
type UpdateSettingsRequest struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters *float64 `json:"radius_meters"`
}

// Update handles PUT /settings. Changes take effect on the very next clock
// attempt; nothing is cached.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		respondError(w, http.StatusBadRequest, "latitude out of range")
		return
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		respondError(w, http.StatusBadRequest, "longitude out of range")
		return
	}
	if req.RadiusMeters != nil && *req.RadiusMeters <= 0 {
		respondError(w, http.StatusBadRequest, "radius must be positive")
		return
	}

	updates := map[string]*float64{
		geofence.SettingLatitude:  req.Latitude,
		geofence.SettingLongitude: req.Longitude,
		geofence.SettingRadius:    req.RadiusMeters,
	}
	for key, value := range updates {
		if value == nil {
			continue
		}
		if err := h.settings.Set(r.Context(), key, strconv.FormatFloat(*value, 'f', -1, 64)); err != nil {
			respondError(w, http.StatusInternalServerError, "could not store settings")
			return
		}
	}

	h.Get(w, r)
}

// allowedIPPayload shapes an allow-list row for JSON.
func allowedIPPayload(ip *database.AllowedIP) map[string]any {
	return map[string]any{
		"id":          ip.ID,
		"address":     ip.Address,
		"description": ip.Description,
		"is_active":   ip.IsActive,
		"created_at":  ip.CreatedAt,
	}
}

// ListAllowedIPs handles GET /settings/allowed-ips.
func (h *SettingsHandler) ListAllowedIPs(w http.ResponseWriter, r *http.Request) {
	ips, err := h.ips.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load allowed IPs")
		return
	}

	payload := make([]map[string]any, 0, len(ips))
	for i := range ips {
		payload = append(payload, allowedIPPayload(&ips[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"allowed_ips": payload})
}

// AddAllowedIPRequest is the allow-list insert body.
type AddAllowedIPRequest struct {
	Address     string `json:"address"`
	Description string `json:"description"`
}

// AddAllowedIP handles POST /settings/allowed-ips.
func (h *SettingsHandler) AddAllowedIP(w http.ResponseWriter, r *http.Request) {
	var req AddAllowedIPRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if net.ParseIP(req.Address) == nil {
		respondError(w, http.StatusBadRequest, "address must be a valid IP")
		return
	}

	ip, err := h.ips.Add(r.Context(), req.Address, req.Description)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not store allowed IP")
		return
	}
	respondJSON(w, http.StatusCreated, allowedIPPayload(ip))
}

// DeleteAllowedIP handles DELETE /settings/allowed-ips/{id}.
func (h *SettingsHandler) DeleteAllowedIP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.ips.Delete(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "allowed IP not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "could not delete allowed IP")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ToggleAllowedIP handles POST /settings/allowed-ips/{id}/toggle.
func (h *SettingsHandler) ToggleAllowedIP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ip, err := h.ips.Toggle(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "allowed IP not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "could not toggle allowed IP")
		return
	}
	respondJSON(w, http.StatusOK, allowedIPPayload(ip))
}
