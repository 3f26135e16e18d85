package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"revify/internal/auth"
	"revify/pkg/models"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// handleRegister creates a new account and returns it with a signed token.
func (ms *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if !ms.auth.IsEnabled() {
		ms.respondWithError(w, r, http.StatusServiceUnavailable, "Authentication is disabled", nil)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, token, err := ms.auth.Register(sanitizeInput(req.Username), req.Password)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ms.logger.WithField("username", user.Username).Info("User registered")

	w.WriteHeader(http.StatusCreated)
	ms.respondJSON(w, authResponse{User: user, Token: token})
}

// handleLogin verifies credentials and returns the user with a signed
// token. When the request carries a session ID the session coordinator
// is logged in as well, so likes sync immediately.
func (ms *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, token, err := ms.auth.Login(sanitizeInput(req.Username), req.Password)
	if err != nil {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	if coordinator := ms.sessionCoordinator(r); coordinator != nil {
		if err := coordinator.Login(user.Username); err != nil {
			ms.logger.WithError(err).Warn("Session like sync failed on login")
		}
	}

	ms.logger.WithField("username", user.Username).Info("User logged in")
	ms.respondJSON(w, authResponse{User: user, Token: token})
}

// handleLogout clears the session coordinator's account state. Tokens
// are stateless; clients drop them on their side.
func (ms *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if coordinator := ms.sessionCoordinator(r); coordinator != nil {
		coordinator.Logout()
	}

	ms.respondJSON(w, map[string]bool{"success": true})
}

// requireUser parses the Authorization bearer token and checks that it
// belongs to the given username. With auth disabled every request
// passes.
func (ms *Server) requireUser(w http.ResponseWriter, r *http.Request, username string) bool {
	if !ms.auth.IsEnabled() {
		return true
	}

	claims, err := ms.bearerClaims(r)
	if err != nil {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", err)
		return false
	}

	if claims.Username != username {
		ms.respondWithError(w, r, http.StatusForbidden, "Not allowed for this user", nil)
		return false
	}

	return true
}

// requireAuth checks for any valid bearer token. Catalog mutations are
// open only to authenticated users; with auth disabled every request
// passes.
func (ms *Server) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	if !ms.auth.IsEnabled() {
		return true
	}
	if _, err := ms.bearerClaims(r); err != nil {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", err)
		return false
	}
	return true
}

func (ms *Server) bearerClaims(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header {
		return nil, errMissingToken
	}
	return ms.auth.ParseToken(token)
}

var errMissingToken = errors.New("missing bearer token")
