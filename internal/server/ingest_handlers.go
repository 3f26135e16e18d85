package server

import (
	"net/http"
)

// handleIngestJobs lists all known ingest jobs, newest first.
func (ms *Server) handleIngestJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	if ms.pipeline == nil {
		ms.respondWithError(w, r, http.StatusServiceUnavailable, "Ingest is disabled", nil)
		return
	}

	ms.respondJSON(w, ms.pipeline.Jobs())
}

// handleIngestJob returns a single ingest job by ID.
func (ms *Server) handleIngestJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	if ms.pipeline == nil {
		ms.respondWithError(w, r, http.StatusServiceUnavailable, "Ingest is disabled", nil)
		return
	}

	parts := pathSegments(r.URL.Path)
	if len(parts) < 4 || parts[3] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	job := ms.pipeline.Job(parts[3])
	if job == nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}

	ms.respondJSON(w, job)
}
