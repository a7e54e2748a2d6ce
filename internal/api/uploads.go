package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/store"
)

// UploadsHandler stores item and proof photos and serves them back.
type UploadsHandler struct {
	DB *sql.DB

	// PublicURL prefixes returned image URLs. Empty means relative URLs.
	PublicURL string
}

type uploadResponse struct {
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl"`
}

// Upload handles POST /api/upload.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		serviceError(w, err, "failed to process image")
		return
	}

	claims := GetClaims(r.Context())
	id, err := store.CreateImage(r.Context(), h.DB, photo.Data, photo.MIME, claims.UserID)
	if err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "Image upload failed")
		return
	}

	url := fmt.Sprintf("%s/api/images/%d", strings.TrimSuffix(h.PublicURL, "/"), id)
	slog.Info("image uploaded", "image", id, "user", claims.UserID, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, uploadResponse{URL: url, ImageURL: url})
}

// Image handles GET /api/images/{id}.
func (h *UploadsHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	data, mime, err := store.GetImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}

	// Stored images never change.
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}
