package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"revify/internal/database"
	"revify/internal/player"
)

// sessionHeader carries the playback session ID. Every player endpoint
// is scoped to one session's coordinator.
const sessionHeader = "X-Session-ID"

// deviceHeader optionally pins the durable device profile, so a client
// that lost its session still rehydrates its own saved state.
const deviceHeader = "X-Device-Profile"

// sessionCoordinator looks up the coordinator for the request's session
// header. Returns nil when the header is absent or the session expired.
func (ms *Server) sessionCoordinator(r *http.Request) *player.Coordinator {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		return nil
	}
	_, coordinator, ok := ms.sessions.Get(id)
	if !ok {
		return nil
	}
	return coordinator
}

// coordinatorFor resolves the request's coordinator, creating a fresh
// session when none exists. New session IDs are echoed back in the
// response header so clients can adopt them.
func (ms *Server) coordinatorFor(w http.ResponseWriter, r *http.Request) *player.Coordinator {
	if id := r.Header.Get(sessionHeader); id != "" {
		if _, coordinator, ok := ms.sessions.Get(id); ok {
			w.Header().Set(sessionHeader, id)
			return coordinator
		}
	}

	session := ms.sessions.Create(r.Header.Get(deviceHeader), r.UserAgent(), r.RemoteAddr)
	w.Header().Set(sessionHeader, session.ID)

	_, coordinator, ok := ms.sessions.Get(session.ID)
	if !ok {
		return nil
	}
	return coordinator
}

// respondSnapshot writes the coordinator's full state. Mutating player
// endpoints all return it so clients never need a follow-up read.
func (ms *Server) respondSnapshot(w http.ResponseWriter, coordinator *player.Coordinator) {
	ms.respondJSON(w, coordinator.Snapshot())
}

// playerError maps coordinator errors onto HTTP statuses.
func (ms *Server) playerError(w http.ResponseWriter, r *http.Request, err error) {
	var queueEmpty *player.QueueEmptyError
	var service *player.ServiceError

	switch {
	case errors.As(err, &queueEmpty):
		ms.respondWithError(w, r, http.StatusConflict, "Nothing to play", err)
	case errors.Is(err, database.ErrNotFound):
		ms.respondWithError(w, r, http.StatusNotFound, "Song not found", err)
	case errors.As(err, &service):
		ms.respondWithError(w, r, http.StatusBadGateway, "Account operation failed", err)
	default:
		ms.respondWithError(w, r, http.StatusInternalServerError, "Player error", err)
	}
}

// handlePlayerState returns the session's full playback snapshot.
func (ms *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	ms.respondSnapshot(w, coordinator)
}

// handlePlayerPlay starts (or resumes) playback of a song by ID.
func (ms *Server) handlePlayerPlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	parts := pathSegments(r.URL.Path)
	songID, verr := validateSongID(parts, 3)
	if verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	if err := coordinator.Play(songID); err != nil {
		ms.playerError(w, r, err)
		return
	}
	ms.respondSnapshot(w, coordinator)
}

func (ms *Server) handlePlayerPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	coordinator.Pause()
	ms.respondSnapshot(w, coordinator)
}

func (ms *Server) handlePlayerNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	if err := coordinator.Next(); err != nil {
		ms.playerError(w, r, err)
		return
	}
	ms.respondSnapshot(w, coordinator)
}

func (ms *Server) handlePlayerPrevious(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	if err := coordinator.Previous(); err != nil {
		ms.playerError(w, r, err)
		return
	}
	ms.respondSnapshot(w, coordinator)
}

type seekRequest struct {
	Position float64 `json:"position"`
	// Phase marks scrub boundaries: "start" mutes before the drag,
	// "end" unmutes after it. Empty for a plain seek.
	Phase string `json:"phase,omitempty"`
}

func (ms *Server) handlePlayerSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	if req.Phase == "start" {
		coordinator.BeginScrub()
	}
	coordinator.Seek(req.Position)
	if req.Phase == "end" {
		coordinator.EndScrub()
	}
	ms.respondSnapshot(w, coordinator)
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

func (ms *Server) handlePlayerVolume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if verr := validateVolume(req.Volume); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	coordinator.SetVolume(req.Volume)
	ms.respondSnapshot(w, coordinator)
}

func (ms *Server) handlePlayerShuffle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	if _, err := coordinator.ToggleShuffle(); err != nil {
		ms.playerError(w, r, err)
		return
	}
	ms.respondSnapshot(w, coordinator)
}

func (ms *Server) handlePlayerRepeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	coordinator.CycleRepeat()
	ms.respondSnapshot(w, coordinator)
}

type queueRequest struct {
	SongID int `json:"songId"`
	Index  int `json:"index"`
}

// handlePlayerQueue adds (POST) or removes (DELETE) manual queue entries.
func (ms *Server) handlePlayerQueue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	coordinator := ms.coordinatorFor(w, r)

	switch r.Method {
	case http.MethodPost:
		if req.SongID <= 0 {
			ms.respondWithValidationError(w, r, []ValidationError{{
				Field:   "songId",
				Message: "Song ID must be positive",
				Code:    "INVALID_SONG_ID_VALUE",
			}})
			return
		}
		if err := coordinator.Enqueue(req.SongID); err != nil {
			ms.playerError(w, r, err)
			return
		}
	case http.MethodDelete:
		coordinator.Dequeue(req.Index)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	ms.respondSnapshot(w, coordinator)
}

// handlePlayerLike toggles a like for the session's logged-in user.
func (ms *Server) handlePlayerLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	parts := pathSegments(r.URL.Path)
	songID, verr := validateSongID(parts, 3)
	if verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	if coordinator.Username() == "" {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Login required to like songs", nil)
		return
	}

	if err := coordinator.ToggleLike(songID); err != nil {
		ms.playerError(w, r, err)
		return
	}
	ms.respondSnapshot(w, coordinator)
}

// handlePlayerHistory returns the played-song history and the short
// recently-played view.
func (ms *Server) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	coordinator := ms.coordinatorFor(w, r)
	snapshot := coordinator.Snapshot()
	ms.respondJSON(w, map[string]interface{}{
		"history":        snapshot.History,
		"recentlyPlayed": snapshot.RecentlyPlayed,
	})
}
