package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/capsule-api/internal/application/media"
	"github.com/capsule-api/internal/domain"
	"github.com/capsule-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20 // 32 MiB

// MediaHandler handles media upload and retrieval.
type MediaHandler struct {
	svc media.Service
}

func NewMediaHandler(svc media.Service) *MediaHandler { return &MediaHandler{svc: svc} }

// Upload accepts a multipart form with a "file" part. An optional "capsule_id"
// field attaches the media to one of the uploader's scheduled capsules.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	m, err := h.svc.Upload(r.Context(), media.UploadInput{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		CapsuleID:   r.FormValue("capsule_id"),
		UploaderID:  claims.UserID,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	body, m, err := h.svc.Download(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.Role == domain.RoleAdmin)
	if err != nil {
		httpError(w, err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", m.Type)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", m.Name))
	if m.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(m.Size, 10))
	}
	_, _ = io.Copy(w, body)
}

// PresignedURL returns a short-lived direct link to the object.
func (h *MediaHandler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	url, err := h.svc.PresignedURL(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.Role == domain.RoleAdmin, 15*time.Minute)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
