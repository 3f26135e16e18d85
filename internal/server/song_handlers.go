package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"revify/internal/database"
	"revify/pkg/models"
)

// handleSongs lists the catalog (GET, with optional ?search=) or creates
// a song record directly (POST, for assets already on the asset host).
func (ms *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.handleListSongs(w, r)
	case http.MethodPost:
		ms.handleCreateSong(w, r)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func (ms *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	searchQuery := r.URL.Query().Get("search")
	if verr := validateSearchQuery(searchQuery); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	var songs []models.Song
	var err error

	if searchQuery != "" {
		songs, err = ms.catalog.Search(sanitizeInput(searchQuery))
	} else {
		songs, err = ms.catalog.ListSongs()
	}

	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	if songs == nil {
		songs = []models.Song{}
	}
	ms.respondJSON(w, songs)
}

type createSongRequest struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Genre    string `json:"genre"`
	Duration int    `json:"duration"`
	AudioURL string `json:"audioUrl"`
	CoverURL string `json:"coverUrl"`
}

func (ms *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	if !ms.requireAuth(w, r) {
		return
	}

	var req createSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req.Title = sanitizeInput(req.Title)
	req.Artist = sanitizeInput(req.Artist)
	if req.Title == "" || req.Artist == "" || req.AudioURL == "" {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "song",
			Message: "Title, artist and audioUrl are required",
			Code:    "MISSING_SONG_FIELDS",
		}})
		return
	}

	song := models.Song{
		Title:    req.Title,
		Artist:   req.Artist,
		Genre:    sanitizeInput(req.Genre),
		Duration: req.Duration,
		AudioURL: req.AudioURL,
		CoverURL: req.CoverURL,
	}

	id, err := ms.db.InsertSong(song)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error creating song", err)
		return
	}
	ms.catalog.Invalidate()

	created, err := ms.catalog.GetSong(id)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading created song", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	ms.respondJSON(w, created)
}

// handleSongByID returns or deletes one song by its path ID.
func (ms *Server) handleSongByID(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path)
	songID, verr := validateSongID(parts, 2)
	if verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	switch r.Method {
	case http.MethodGet:
		song, err := ms.catalog.GetSong(songID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				ms.respondWithError(w, r, http.StatusNotFound, "Song not found", nil)
				return
			}
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving song", err)
			return
		}
		ms.respondJSON(w, song)
	case http.MethodDelete:
		if !ms.requireAuth(w, r) {
			return
		}
		if err := ms.db.DeleteSong(songID); err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting song", err)
			return
		}
		ms.catalog.Invalidate()
		ms.respondJSON(w, map[string]bool{"success": true})
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}
