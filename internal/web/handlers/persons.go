package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtpl/face-attendance/internal/database"
)

// PersonsHandler lists enrolled people and revokes templates.
type PersonsHandler struct {
	templates database.TemplateStore
	directory database.UserDirectory // optional, nil leaves names empty
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(templates database.TemplateStore, directory database.UserDirectory) *PersonsHandler {
	return &PersonsHandler{templates: templates, directory: directory}
}

// Person is one enrolled user in the listing.
type Person struct {
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name,omitempty"`
	TemplateUID string    `json:"template_uid"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// List handles GET /persons. An optional q parameter filters by name,
// case- and accent-insensitively.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.ActiveTemplates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load templates")
		return
	}

	query := foldName(r.URL.Query().Get("q"))
	persons := make([]Person, 0, len(templates))
	for _, t := range templates {
		p := Person{
			UserID:      t.UserID,
			TemplateUID: t.UID,
			EnrolledAt:  t.CreatedAt,
		}
		if h.directory != nil {
			user, err := h.directory.Get(r.Context(), t.UserID)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "could not load user directory")
				return
			}
			if user != nil {
				p.Name = user.Name()
			}
		}
		if query != "" && !strings.Contains(foldName(p.Name), query) {
			continue
		}
		persons = append(persons, p)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"persons": persons,
	})
}

// RevokeTemplate handles DELETE /persons/{userID}/template. The template is
// deactivated, not deleted; the user can re-enroll later.
func (h *PersonsHandler) RevokeTemplate(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.templates.Deactivate(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "could not revoke template")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user_id": userID,
	})
}
