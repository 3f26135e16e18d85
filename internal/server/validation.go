package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// respondWithValidationError sends a structured validation error response
func (ms *Server) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	ms.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errors,
	}).Warn("Validation failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	result := ValidationResult{
		Valid:  false,
		Errors: errors,
	}

	ms.respondJSON(w, result)
}

// respondWithError sends a structured error response
func (ms *Server) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ms.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})

	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	}

	ms.respondJSON(w, response)
}

// validateSongID validates and parses a song ID from URL path segments
func validateSongID(pathParts []string, index int) (int, *ValidationError) {
	if len(pathParts) <= index || pathParts[index] == "" {
		return 0, &ValidationError{
			Field:   "song_id",
			Message: "Song ID is required",
			Code:    "MISSING_SONG_ID",
		}
	}

	songID, err := strconv.Atoi(pathParts[index])
	if err != nil {
		return 0, &ValidationError{
			Field:   "song_id",
			Message: "Song ID must be a valid integer",
			Code:    "INVALID_SONG_ID_FORMAT",
		}
	}

	if songID <= 0 {
		return 0, &ValidationError{
			Field:   "song_id",
			Message: "Song ID must be positive",
			Code:    "INVALID_SONG_ID_VALUE",
		}
	}

	return songID, nil
}

// validatePlaylistID validates and parses a playlist ID from URL path segments
func validatePlaylistID(pathParts []string, index int) (int, *ValidationError) {
	if len(pathParts) <= index || pathParts[index] == "" {
		return 0, &ValidationError{
			Field:   "playlist_id",
			Message: "Playlist ID is required",
			Code:    "MISSING_PLAYLIST_ID",
		}
	}

	playlistID, err := strconv.Atoi(pathParts[index])
	if err != nil {
		return 0, &ValidationError{
			Field:   "playlist_id",
			Message: "Playlist ID must be a valid integer",
			Code:    "INVALID_PLAYLIST_ID_FORMAT",
		}
	}

	if playlistID <= 0 {
		return 0, &ValidationError{
			Field:   "playlist_id",
			Message: "Playlist ID must be positive",
			Code:    "INVALID_PLAYLIST_ID_VALUE",
		}
	}

	return playlistID, nil
}

// validateUsername checks a username path segment against the same rules
// the auth service enforces at registration.
func validateUsername(username string) *ValidationError {
	if username == "" {
		return &ValidationError{
			Field:   "username",
			Message: "Username is required",
			Code:    "MISSING_USERNAME",
		}
	}

	if len(username) < 3 || len(username) > 32 {
		return &ValidationError{
			Field:   "username",
			Message: "Username must be between 3 and 32 characters",
			Code:    "INVALID_USERNAME_LENGTH",
		}
	}

	for _, c := range username {
		alnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !alnum && c != '_' && c != '-' {
			return &ValidationError{
				Field:   "username",
				Message: "Username contains invalid characters",
				Code:    "INVALID_USERNAME_CHARACTERS",
			}
		}
	}

	return nil
}

// validateSearchQuery validates search query parameters
func validateSearchQuery(query string) *ValidationError {
	if len(query) > 1000 {
		return &ValidationError{
			Field:   "search",
			Message: "Search query too long (max 1000 characters)",
			Code:    "SEARCH_QUERY_TOO_LONG",
		}
	}

	if strings.Contains(query, "\x00") {
		return &ValidationError{
			Field:   "search",
			Message: "Search query contains invalid characters",
			Code:    "INVALID_SEARCH_CHARACTERS",
		}
	}

	return nil
}

// validatePlaylistName validates playlist name
func validatePlaylistName(name string) *ValidationError {
	if name == "" {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name is required",
			Code:    "MISSING_PLAYLIST_NAME",
		}
	}

	if len(name) > 255 {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name too long (max 255 characters)",
			Code:    "PLAYLIST_NAME_TOO_LONG",
		}
	}

	if strings.Contains(name, "\x00") || strings.Contains(name, "\n") || strings.Contains(name, "\r") {
		return &ValidationError{
			Field:   "name",
			Message: "Playlist name contains invalid characters",
			Code:    "INVALID_PLAYLIST_NAME_CHARACTERS",
		}
	}

	return nil
}

// validateVolume validates a volume value from the player API
func validateVolume(volume float64) *ValidationError {
	if volume < 0 || volume > 1 {
		return &ValidationError{
			Field:   "volume",
			Message: "Volume must be between 0.0 and 1.0",
			Code:    "INVALID_VOLUME_RANGE",
		}
	}
	return nil
}

// sanitizeInput sanitizes user input to prevent injection attacks
func sanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	return input
}
