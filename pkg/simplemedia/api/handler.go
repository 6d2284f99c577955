// Package api exposes the simplemedia service over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

// maxUploadMemory bounds how much of a multipart body is held in memory
// before spilling to disk.
const maxUploadMemory = 32 << 20 // 32 MiB

// ErrorResponse is the error payload returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse is the payload returned after a successful delete
type DeleteResponse struct {
	Success bool `json:"success"`
}

// Handler handles HTTP requests for media entries
type Handler struct {
	service simplemedia.Service
	logger  *slog.Logger
}

// NewHandler creates a new media entries handler
func NewHandler(service simplemedia.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the routes for the media entries API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/upload", h.Upload)
	r.Get("/entries", h.ListEntries)
	r.Delete("/entry/{id}", h.DeleteEntry)
	r.Get("/ping", h.Ping)

	return r
}

// Upload handles POST /upload: multipart form with a required "file", an
// optional "audio" track and an optional "caption".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.renderError(w, r, simplemedia.ErrNoFile)
		return
	}

	req := simplemedia.UploadRequest{
		Caption: r.FormValue("caption"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderError(w, r, simplemedia.ErrNoFile)
		return
	}
	defer file.Close()
	req.Primary = &simplemedia.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        file,
	}

	audio, audioHeader, err := r.FormFile("audio")
	if err == nil {
		defer audio.Close()
		req.Audio = &simplemedia.File{
			Name:        audioHeader.Filename,
			ContentType: audioHeader.Header.Get("Content-Type"),
			Data:        audio,
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		h.renderError(w, r, simplemedia.ErrNoFile)
		return
	}

	entry, err := h.service.Upload(r.Context(), r.Header.Get("Authorization"), req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, entry)
}

// ListEntries handles GET /entries
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListEntries(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, entries)
}

// DeleteEntry handles DELETE /entry/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	if err := h.service.DeleteEntry(r.Context(), r.Header.Get("Authorization"), entryID); err != nil {
		h.renderError(w, r, err)
		return
	}

	render.JSON(w, r, DeleteResponse{Success: true})
}

// Ping handles GET /ping, the unauthenticated liveness probe
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// renderError maps service errors onto HTTP statuses
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var message string

	switch {
	case errors.Is(err, simplemedia.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, simplemedia.ErrNoFile):
		status, message = http.StatusBadRequest, "No file uploaded"
	case errors.Is(err, simplemedia.ErrEntryNotFound):
		status, message = http.StatusNotFound, "Entry not found"
	case errors.Is(err, simplemedia.ErrTranscodeFailed):
		status, message = http.StatusInternalServerError, "Video synthesis failed"
	default:
		status, message = http.StatusInternalServerError, "Internal server error"
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
