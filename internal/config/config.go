package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Auth     AuthConfig     `toml:"auth"`
	Ingest   IngestConfig   `toml:"ingest"`
	Player   PlayerConfig   `toml:"player"`
	Logging  LoggingConfig  `toml:"logging"`
	Ngrok    NgrokConfig    `toml:"ngrok"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port           string   `toml:"port"`
	Host           string   `toml:"host"`
	StaticDir      string   `toml:"static_dir"`
	EnableCORS     bool     `toml:"enable_cors"`
	AllowedOrigins []string `toml:"allowed_origins"`
	ReadTimeout    int      `toml:"read_timeout_seconds"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path           string `toml:"path"`
	MaxConnections int    `toml:"max_connections"`
}

// StorageConfig contains asset host (S3-compatible) configuration.
// AccessKey and SecretKey may be left empty in the file and provided
// through the REVIFY_STORAGE_ACCESS_KEY / REVIFY_STORAGE_SECRET_KEY
// environment variables instead.
type StorageConfig struct {
	Endpoint      string `toml:"endpoint"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	UseSSL        bool   `toml:"use_ssl"`
	PublicBaseURL string `toml:"public_base_url"`
}

// AuthConfig contains authentication configuration. JWTSecret may be
// provided through the REVIFY_JWT_SECRET environment variable.
type AuthConfig struct {
	Enabled           bool   `toml:"enabled"`
	JWTSecret         string `toml:"jwt_secret"`
	TokenDuration     string `toml:"token_duration"`
	AllowRegistration bool   `toml:"allow_registration"`
	MaxUploadSize     int64  `toml:"max_upload_size_mb"`
}

// IngestConfig contains configuration for the upload/ingest pipeline
type IngestConfig struct {
	Enabled          bool     `toml:"enabled"`
	DropDir          string   `toml:"drop_dir"`
	WatchDropDir     bool     `toml:"watch_drop_dir"`
	MaxConcurrent    int      `toml:"max_concurrent_jobs"`
	SupportedFormats []string `toml:"supported_formats"`
}

// PlayerConfig contains playback coordinator configuration
type PlayerConfig struct {
	HistorySize    int    `toml:"history_size"`
	RecentSize     int    `toml:"recent_size"`
	SessionTimeout string `toml:"session_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	File           string `toml:"file"`
	RequestLogging bool   `toml:"request_logging"`
}

// NgrokConfig contains ngrok tunnel configuration
type NgrokConfig struct {
	Enabled   bool   `toml:"enabled"`
	AuthToken string `toml:"auth_token"`
	Domain    string `toml:"domain"`
	Region    string `toml:"region"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "0.0.0.0",
			StaticDir:      "./static",
			EnableCORS:     true,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			ReadTimeout:    30,
		},
		Database: DatabaseConfig{
			Path:           "./revify.db",
			MaxConnections: 10,
		},
		Storage: StorageConfig{
			Endpoint: "localhost:9000",
			Bucket:   "revify",
			Region:   "us-east-1",
			UseSSL:   false,
		},
		Auth: AuthConfig{
			Enabled:           true,
			TokenDuration:     "24h",
			AllowRegistration: true,
			MaxUploadSize:     50,
		},
		Ingest: IngestConfig{
			Enabled:          true,
			DropDir:          "./ingest",
			WatchDropDir:     true,
			MaxConcurrent:    2,
			SupportedFormats: []string{".mp3", ".flac", ".wav", ".m4a"},
		},
		Player: PlayerConfig{
			HistorySize:    50,
			RecentSize:     6,
			SessionTimeout: "30m",
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			File:           "",
			RequestLogging: true,
		},
		Ngrok: NgrokConfig{
			Enabled: false,
			Region:  "us",
		},
	}
}

// LoadConfig loads configuration from a TOML file, then applies
// environment overrides for secrets.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
	} else {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides reads secrets from the environment, loading a .env
// file first if one is present next to the binary.
func (c *Config) applyEnvOverrides() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	if v := os.Getenv("REVIFY_STORAGE_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("REVIFY_STORAGE_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
	if v := os.Getenv("REVIFY_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("NGROK_AUTHTOKEN"); v != "" && c.Ngrok.AuthToken == "" {
		c.Ngrok.AuthToken = v
	}
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create or open file
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	header := `# Revify Music Server Configuration
# This file contains all configuration options for the Revify streaming server.
# Secrets (asset-store keys, JWT secret) may also be supplied via environment
# variables or a .env file; values set there take precedence.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	// Encode configuration to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	// Validate database config
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	// Validate storage config. An empty endpoint disables object storage
	// (and with it uploads/ingest).
	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket cannot be empty")
	}

	// Validate player config
	if c.Player.HistorySize < 1 {
		return fmt.Errorf("player history size must be at least 1")
	}
	if c.Player.RecentSize < 1 || c.Player.RecentSize > c.Player.HistorySize {
		return fmt.Errorf("player recent size must be between 1 and history size")
	}

	// Validate ingest config
	if c.Ingest.Enabled && len(c.Ingest.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format must be specified")
	}
	if c.Ingest.Enabled && c.Ingest.MaxConcurrent < 1 {
		return fmt.Errorf("ingest max concurrent jobs must be at least 1")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// IsFormatSupported checks if an audio format is supported for ingest
func (c *Config) IsFormatSupported(format string) bool {
	for _, supported := range c.Ingest.SupportedFormats {
		if supported == format {
			return true
		}
	}
	return false
}
