package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/gorilla/mux"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/storage"
)

const (
	defaultMaxUpload = 10 << 20
	// multipart framing on top of the file itself
	multipartOverhead = 1 << 20
)

// readUpload reads the "file" part of a multipart request. The returned
// cleanup closes the part and removes any temporary files.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (storage.Upload, func(), error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return storage.Upload{}, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return storage.Upload{}, nil, fmt.Errorf("%w: missing file part: %v", domain.ErrInvalidInput, err)
	}

	cleanup := func() {
		file.Close()
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}
	return storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, cleanup, nil
}

// MediaHandler serves files kept by the local media store
type MediaHandler struct {
	files MediaFiles
}

func NewMediaHandler(files MediaFiles) *MediaHandler {
	return &MediaHandler{files: files}
}

// HandleDownload streams a stored file by its public id and extension
func (h *MediaHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["publicId"]
	if key == "" {
		writeMessage(w, http.StatusBadRequest, "Missing media key.")
		return
	}

	file, err := h.files.Open(key)
	if err != nil {
		if errors.Is(err, domain.ErrMediaNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, fmt.Errorf("open media %s: %w", key, err))
		return
	}
	defer file.Close()

	// Determine content type from file extension
	contentType := "application/octet-stream"
	switch path.Ext(key) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	case ".pdf":
		contentType = "application/pdf"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, file); err != nil {
		logger.Warn("Failed to stream media", "key", key, "error", err)
	}
}

// RegisterMediaRoutes registers the local media download endpoint
func RegisterMediaRoutes(router *mux.Router, files MediaFiles) {
	handler := NewMediaHandler(files)
	router.HandleFunc("/media/{publicId:.+}", handler.HandleDownload).Methods(http.MethodGet)
}
