package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/mtpl/face-attendance/internal/attendance"
)

// maxEnrollUpload caps the multipart form size for enrollment photos.
const maxEnrollUpload = 16 << 20 // 16 MB

// EnrollHandler serves template enrollment.
type EnrollHandler struct {
	service *attendance.Service
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(service *attendance.Service) *EnrollHandler {
	return &EnrollHandler{service: service}
}

// Enroll handles POST /enroll. The request is a multipart form with a
// user_id field and an image file.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEnrollUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "user_id must be a positive integer")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read image file")
		return
	}

	result, err := h.service.Enroll(r.Context(), image, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"user_id":      result.UserID,
		"template_id":  result.TemplateID,
		"template_uid": result.TemplateUID,
	})
}
