package auth

import (
	"path/filepath"
	"testing"

	"revify/internal/config"
	"revify/internal/database"
)

func newTestService(t *testing.T, cfg config.AuthConfig) *Service {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc, err := NewService(&cfg, db)
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}
	return svc
}

func enabledConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:           true,
		JWTSecret:         "test-secret",
		TokenDuration:     "1h",
		AllowRegistration: true,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, enabledConfig())

	user, token, err := svc.Register("alice", "password123")
	if err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if user.Username != "alice" || token == "" {
		t.Errorf("Unexpected register result: user=%+v token=%q", user, token)
	}

	// Duplicate registration must fail
	if _, _, err := svc.Register("alice", "password456"); err == nil {
		t.Error("Expected error for duplicate username")
	}

	t.Run("ValidLogin", func(t *testing.T) {
		user, token, err := svc.Login("alice", "password123")
		if err != nil {
			t.Fatalf("Failed to login: %v", err)
		}
		if user.Username != "alice" || token == "" {
			t.Errorf("Unexpected login result: user=%+v", user)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := svc.Login("alice", "nope123")
		if err == nil {
			t.Fatal("Expected error for wrong password")
		}
	})

	t.Run("UnknownUserSameError", func(t *testing.T) {
		_, _, errUnknown := svc.Login("nobody", "password123")
		_, _, errWrong := svc.Login("alice", "nope123")
		if errUnknown == nil || errWrong == nil {
			t.Fatal("Expected errors for both failure modes")
		}
		if errUnknown.Error() != errWrong.Error() {
			t.Errorf("Failure modes should be indistinguishable: %q vs %q", errUnknown, errWrong)
		}
	})
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, enabledConfig())

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "password123"},
		{"bad characters", "bad user!", "password123"},
		{"short password", "charlie", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Register(tt.username, tt.password); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t, enabledConfig())

	token, err := svc.GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("Failed to parse token: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("Unexpected claims: %+v", claims)
	}

	if _, err := svc.ParseToken(token + "tampered"); err == nil {
		t.Error("Expected error for tampered token")
	}
}

func TestDisabledService(t *testing.T) {
	svc := newTestService(t, config.AuthConfig{Enabled: false})

	if svc.IsEnabled() {
		t.Error("Expected service to be disabled")
	}
	if svc.IsRegistrationAllowed() {
		t.Error("Registration should be disallowed when disabled")
	}
	if _, _, err := svc.Register("alice", "password123"); err == nil {
		t.Error("Expected error registering against disabled service")
	}
	if _, _, err := svc.Login("alice", "password123"); err == nil {
		t.Error("Expected error logging into disabled service")
	}
}

func TestRegistrationDisallowed(t *testing.T) {
	cfg := enabledConfig()
	cfg.AllowRegistration = false
	svc := newTestService(t, cfg)

	if _, _, err := svc.Register("alice", "password123"); err == nil {
		t.Error("Expected error when registration is disabled")
	}
}
