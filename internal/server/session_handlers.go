package server

import (
	"net/http"
)

// handleSessions lists live playback sessions (GET) or tears down the
// caller's own session (DELETE).
func (ms *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.respondJSON(w, map[string]interface{}{
			"count":    ms.sessions.Count(),
			"sessions": ms.sessions.All(),
		})
	case http.MethodDelete:
		id := r.Header.Get(sessionHeader)
		if id == "" {
			ms.respondWithError(w, r, http.StatusBadRequest, "Session ID header is required", nil)
			return
		}
		ms.sessions.Remove(id)
		ms.respondJSON(w, map[string]bool{"success": true})
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}
