package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"revify/internal/ingest"

	"github.com/google/uuid"
)

type imageUploadRequest struct {
	Image string `json:"image"`
}

// handleUpload accepts either a multipart audio upload, which is handed
// to the ingest pipeline, or a JSON base64 image upload, which goes
// straight to the asset host and returns its public URL.
func (ms *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if ms.assets == nil {
		ms.respondWithError(w, r, http.StatusServiceUnavailable, "Object storage is not configured", nil)
		return
	}

	if !ms.requireAuth(w, r) {
		return
	}

	maxBytes := ms.config.Auth.MaxUploadSize * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 100 * 1024 * 1024
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		ms.handleImageUpload(w, r)
		return
	}
	ms.handleAudioUpload(w, r)
}

func (ms *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	var req imageUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Image == "" {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "image",
			Message: "Image data is required",
			Code:    "MISSING_IMAGE_DATA",
		}})
		return
	}

	url, err := ms.assets.UploadCoverBase64(r.Context(), uuid.New().String(), req.Image)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadGateway, "Image upload failed", err)
		return
	}

	ms.respondJSON(w, map[string]string{"url": url})
}

func (ms *Server) handleAudioUpload(w http.ResponseWriter, r *http.Request) {
	if ms.pipeline == nil {
		ms.respondWithError(w, r, http.StatusServiceUnavailable, "Ingest is disabled", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Audio file is required", err)
		return
	}
	defer file.Close()

	if !ms.extractor.IsAudioFile(header.Filename) {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "file",
			Message: fmt.Sprintf("Unsupported file type: %s", filepath.Ext(header.Filename)),
			Code:    "UNSUPPORTED_FILE_TYPE",
		}})
		return
	}

	// Spool to a temp file; the pipeline works from paths and removes
	// the source once the job completes.
	tmpPath, err := ms.spoolUpload(file, header.Filename)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to store upload", err)
		return
	}

	overrides := ingest.Overrides{
		Title:       sanitizeInput(r.FormValue("title")),
		Artist:      sanitizeInput(r.FormValue("artist")),
		Genre:       sanitizeInput(r.FormValue("genre")),
		CoverBase64: r.FormValue("cover"),
	}

	job, err := ms.pipeline.Submit(tmpPath, overrides, true)
	if err != nil {
		os.Remove(tmpPath)
		ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to queue upload", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	ms.respondJSON(w, job)
}

func (ms *Server) spoolUpload(src io.Reader, filename string) (string, error) {
	// Keep the original base name so metadata extraction can fall back
	// to it for untagged files.
	dir := os.TempDir()
	base := filepath.Base(strings.ReplaceAll(filename, "\x00", ""))
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], base)
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
