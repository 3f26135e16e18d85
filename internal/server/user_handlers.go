package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"revify/internal/database"
)

// handleUsers routes everything under /api/users/{username}: the user
// record, likes and playlists.
func (ms *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path)
	if len(parts) < 3 {
		ms.respondWithError(w, r, http.StatusNotFound, "Not found", nil)
		return
	}

	username := parts[2]
	if verr := validateUsername(username); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	switch {
	case len(parts) == 3:
		ms.handleGetUser(w, r, username)
	case parts[3] == "likes":
		ms.handleUserLikes(w, r, username, parts)
	case parts[3] == "playlists":
		ms.handleUserPlaylists(w, r, username, parts)
	default:
		ms.respondWithError(w, r, http.StatusNotFound, "Not found", nil)
	}
}

// handleGetUser returns the full user record: identity, liked song IDs
// and playlists with songs populated.
func (ms *Server) handleGetUser(w http.ResponseWriter, r *http.Request, username string) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	user, err := ms.db.GetUser(username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "User not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving user", err)
		return
	}

	ms.respondJSON(w, user)
}

// handleUserLikes serves GET (full liked songs) and POST/DELETE on
// /likes/{songId}.
func (ms *Server) handleUserLikes(w http.ResponseWriter, r *http.Request, username string, parts []string) {
	if len(parts) == 4 {
		if r.Method != http.MethodGet {
			ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
			return
		}
		songs, err := ms.db.GetLikedSongs(username)
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving liked songs", err)
			return
		}
		ms.respondJSON(w, songs)
		return
	}

	songID, verr := validateSongID(parts, 4)
	if verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	if !ms.requireUser(w, r, username) {
		return
	}

	var err error
	switch r.Method {
	case http.MethodPost:
		err = ms.db.LikeSong(username, songID)
	case http.MethodDelete:
		err = ms.db.UnlikeSong(username, songID)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error updating likes", err)
		return
	}

	// Like toggles return the updated record so clients can refresh in
	// one round trip.
	user, err := ms.db.GetUser(username)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving user", err)
		return
	}
	ms.respondJSON(w, user)
}

type playlistRequest struct {
	Name   string `json:"name"`
	SongID int    `json:"songId"`
}

// handleUserPlaylists serves playlist CRUD plus song membership:
// /playlists, /playlists/{id} and /playlists/{id}/songs.
func (ms *Server) handleUserPlaylists(w http.ResponseWriter, r *http.Request, username string, parts []string) {
	if len(parts) == 4 {
		switch r.Method {
		case http.MethodGet:
			ms.handleListPlaylists(w, r, username)
		case http.MethodPost:
			ms.handleCreatePlaylist(w, r, username)
		default:
			ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		}
		return
	}

	playlistID, verr := validatePlaylistID(parts, 4)
	if verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	if len(parts) >= 6 && parts[5] == "songs" {
		ms.handlePlaylistSongs(w, r, username, playlistID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ms.handleGetPlaylist(w, r, username, playlistID)
	case http.MethodPut:
		ms.handleRenamePlaylist(w, r, username, playlistID)
	case http.MethodDelete:
		ms.handleDeletePlaylist(w, r, username, playlistID)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func (ms *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request, username string) {
	playlists, err := ms.db.GetPlaylists(username)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlists", err)
		return
	}
	ms.respondJSON(w, playlists)
}

func (ms *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request, username string) {
	if !ms.requireUser(w, r, username) {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req.Name = sanitizeInput(req.Name)
	if verr := validatePlaylistName(req.Name); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	id, err := ms.db.CreatePlaylist(username, req.Name)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error creating playlist", err)
		return
	}

	playlist, err := ms.db.GetPlaylist(username, id)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error loading created playlist", err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	ms.respondJSON(w, playlist)
}

func (ms *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request, username string, playlistID int) {
	playlist, err := ms.db.GetPlaylist(username, playlistID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlist", err)
		return
	}
	ms.respondJSON(w, playlist)
}

func (ms *Server) handleRenamePlaylist(w http.ResponseWriter, r *http.Request, username string, playlistID int) {
	if !ms.requireUser(w, r, username) {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req.Name = sanitizeInput(req.Name)
	if verr := validatePlaylistName(req.Name); verr != nil {
		ms.respondWithValidationError(w, r, []ValidationError{*verr})
		return
	}

	if err := ms.db.RenamePlaylist(username, playlistID, req.Name); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error renaming playlist", err)
		return
	}

	ms.handleGetPlaylist(w, r, username, playlistID)
}

func (ms *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request, username string, playlistID int) {
	if !ms.requireUser(w, r, username) {
		return
	}

	if err := ms.db.DeletePlaylist(username, playlistID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting playlist", err)
		return
	}
	ms.respondJSON(w, map[string]bool{"success": true})
}

// handlePlaylistSongs adds or removes a song from a playlist, verifying
// ownership first.
func (ms *Server) handlePlaylistSongs(w http.ResponseWriter, r *http.Request, username string, playlistID int) {
	if !ms.requireUser(w, r, username) {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.SongID <= 0 {
		ms.respondWithValidationError(w, r, []ValidationError{{
			Field:   "songId",
			Message: "Song ID must be positive",
			Code:    "INVALID_SONG_ID_VALUE",
		}})
		return
	}

	if _, err := ms.db.GetPlaylist(username, playlistID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlist", err)
		return
	}

	var err error
	switch r.Method {
	case http.MethodPost:
		err = ms.db.AddSongToPlaylist(playlistID, req.SongID)
	case http.MethodDelete:
		err = ms.db.RemoveSongFromPlaylist(playlistID, req.SongID)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error updating playlist songs", err)
		return
	}

	ms.handleGetPlaylist(w, r, username, playlistID)
}
