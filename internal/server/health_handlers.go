package server

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// handleHealthCheck reports process health plus a few liveness facts.
func (ms *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	status := "healthy"
	code := http.StatusOK

	songs, err := ms.db.GetAllSongs()
	if err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"status":   status,
		"uptime":   time.Since(startTime).Round(time.Second).String(),
		"songs":    len(songs),
		"sessions": ms.sessions.Count(),
	}
	if url := ms.ngrokService.GetPublicURL(); url != "" {
		body["public_url"] = url
	}

	w.WriteHeader(code)
	ms.respondJSON(w, body)
}
