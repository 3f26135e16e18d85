package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"revify/internal/config"
	"revify/internal/database"
	"revify/pkg/models"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// Service provides registration and login backed by the user table,
// issuing signed tokens for authenticated requests.
type Service struct {
	db                *database.Database
	secret            []byte
	tokenDuration     time.Duration
	allowRegistration bool
	enabled           bool
}

// NewService creates a new authentication service
func NewService(cfg *config.AuthConfig, db *database.Database) (*Service, error) {
	if !cfg.Enabled {
		return &Service{enabled: false}, nil
	}

	duration, err := time.ParseDuration(cfg.TokenDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid token duration: %w", err)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Ephemeral secret: tokens stop working across restarts, but the
		// server still comes up in dev setups with no secret configured.
		generated, err := generateRandomSecret(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		secret = generated
	}

	return &Service{
		db:                db,
		secret:            []byte(secret),
		tokenDuration:     duration,
		allowRegistration: cfg.AllowRegistration,
		enabled:           true,
	}, nil
}

// IsEnabled returns whether authentication is enabled
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// IsRegistrationAllowed returns whether user registration is enabled
func (s *Service) IsRegistrationAllowed() bool {
	return s.enabled && s.allowRegistration
}

// Register creates a new user account and returns a signed token for it.
func (s *Service) Register(username, password string) (*models.User, string, error) {
	if !s.IsRegistrationAllowed() {
		return nil, "", fmt.Errorf("registration is disabled")
	}

	if !usernamePattern.MatchString(username) {
		return nil, "", fmt.Errorf("username must be 3-32 characters: letters, numbers, - and _")
	}
	if len(password) < 6 {
		return nil, "", fmt.Errorf("password must be at least 6 characters")
	}

	exists, err := s.db.UserExists(username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, "", fmt.Errorf("username %s is already taken", username)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.db.CreateUser(username, hash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateToken(id, username)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:        id,
		Username:  username,
		CreatedAt: time.Now(),
		Likes:     []int{},
	}
	return user, token, nil
}

// Login verifies credentials and returns the full user record plus a token.
func (s *Service) Login(username, password string) (*models.User, string, error) {
	if !s.enabled {
		return nil, "", fmt.Errorf("authentication is disabled")
	}

	id, hash, err := s.db.GetUserCredentials(username)
	if err != nil {
		// Same message as a wrong password so usernames can't be probed
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	token, err := s.GenerateToken(id, username)
	if err != nil {
		return nil, "", err
	}

	user, err := s.db.GetUser(username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	return user, token, nil
}

// hashPassword creates a bcrypt hash of the given password
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// generateRandomSecret generates a cryptographically secure random hex string
func generateRandomSecret(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
