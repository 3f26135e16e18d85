package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"revify/internal/auth"
	"revify/internal/cache"
	"revify/internal/config"
	"revify/internal/database"
	"revify/internal/ingest"
	"revify/internal/metadata"
	"revify/internal/ngrok"
	"revify/internal/player"
	"revify/internal/session"
	"revify/internal/storage"

	"github.com/sirupsen/logrus"
)

// Server is the main HTTP server. It owns the catalog, the per-session
// playback coordinators and the ingest pipeline.
type Server struct {
	db           *database.Database
	config       *config.Config
	auth         *auth.Service
	sessions     *session.Manager
	pipeline     *ingest.Pipeline
	assets       *storage.AssetStore
	extractor    *metadata.Extractor
	catalog      *catalogService
	users        *userService
	ngrokService *ngrok.Service
	logger       *logrus.Logger
	httpServer   *http.Server
}

// New creates a server instance wired to the given dependencies. The
// assets store may be nil when object storage is disabled, which also
// disables the ingest pipeline.
func New(cfg *config.Config, db *database.Database, assets *storage.AssetStore, logger *logrus.Logger) (*Server, error) {
	authSvc, err := auth.NewService(&cfg.Auth, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	ngrokSvc, err := ngrok.NewService(&cfg.Ngrok)
	if err != nil {
		logger.WithError(err).Warn("Ngrok service not available")
		ngrokSvc = nil
	}

	extractor := metadata.NewExtractor(cfg.Ingest.SupportedFormats, logger)
	catalog := newCatalogService(db, cache.NewSongCache())
	users := &userService{db: db}

	var pipeline *ingest.Pipeline
	if cfg.Ingest.Enabled && assets != nil {
		pipeline = ingest.New(&cfg.Ingest, db, assets, extractor, logger)
	}

	srv := &Server{
		db:           db,
		config:       cfg,
		auth:         authSvc,
		pipeline:     pipeline,
		assets:       assets,
		extractor:    extractor,
		catalog:      catalog,
		users:        users,
		ngrokService: ngrokSvc,
		logger:       logger,
	}

	timeout, err := time.ParseDuration(cfg.Player.SessionTimeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Minute
	}
	srv.sessions = session.NewManager(timeout, srv.buildCoordinator, logger)

	return srv, nil
}

// buildCoordinator constructs the playback coordinator for one session
// profile. Each coordinator gets its own clock-driven audio resource.
func (ms *Server) buildCoordinator(profile string) *player.Coordinator {
	return player.NewCoordinator(player.Options{
		Factory:     &player.ClockFactory{},
		Store:       player.NewSQLStore(ms.db),
		Catalog:     ms.catalog,
		Users:       ms.users,
		Profile:     profile,
		HistorySize: ms.config.Player.HistorySize,
		RecentSize:  ms.config.Player.RecentSize,
		Logger:      ms.logger,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	})
}

// Pipeline exposes the ingest pipeline, nil when ingest is disabled.
func (ms *Server) Pipeline() *ingest.Pipeline {
	return ms.pipeline
}

// Start sets up routes and serves until the listener fails or Shutdown
// is called.
func (ms *Server) Start() error {
	mux := http.NewServeMux()
	ms.setupRoutes(mux)

	handler := ms.panicRecoveryMiddleware(ms.requestLoggingMiddleware(ms.corsMiddleware(mux)))

	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())

	songs, err := ms.db.GetAllSongs()
	if err == nil {
		ms.logger.WithField("songs", len(songs)).Info("Catalog loaded")
	}
	ms.logger.WithFields(logrus.Fields{
		"address": localAddress,
		"auth":    ms.auth.IsEnabled(),
		"ingest":  ms.pipeline != nil,
	}).Info("Revify server starting")

	if ms.ngrokService != nil {
		ctx := context.Background()
		if err := ms.ngrokService.StartTunnel(ctx, localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start ngrok tunnel")
		}
	}

	ms.httpServer = &http.Server{
		Addr:        ms.config.GetAddress(),
		Handler:     handler,
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	if err := ms.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (ms *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", ms.handleHome)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(ms.config.Server.StaticDir))))
	mux.HandleFunc("/health", ms.handleHealthCheck)

	mux.HandleFunc("/api/songs", ms.handleSongs)
	mux.HandleFunc("/api/songs/", ms.handleSongByID)
	mux.HandleFunc("/api/upload", ms.handleUpload)

	mux.HandleFunc("/api/auth/register", ms.handleRegister)
	mux.HandleFunc("/api/auth/login", ms.handleLogin)
	mux.HandleFunc("/api/auth/logout", ms.handleLogout)

	mux.HandleFunc("/api/users/", ms.handleUsers)

	mux.HandleFunc("/api/player/state", ms.handlePlayerState)
	mux.HandleFunc("/api/player/play/", ms.handlePlayerPlay)
	mux.HandleFunc("/api/player/pause", ms.handlePlayerPause)
	mux.HandleFunc("/api/player/next", ms.handlePlayerNext)
	mux.HandleFunc("/api/player/previous", ms.handlePlayerPrevious)
	mux.HandleFunc("/api/player/seek", ms.handlePlayerSeek)
	mux.HandleFunc("/api/player/volume", ms.handlePlayerVolume)
	mux.HandleFunc("/api/player/shuffle", ms.handlePlayerShuffle)
	mux.HandleFunc("/api/player/repeat", ms.handlePlayerRepeat)
	mux.HandleFunc("/api/player/queue", ms.handlePlayerQueue)
	mux.HandleFunc("/api/player/like/", ms.handlePlayerLike)
	mux.HandleFunc("/api/player/history", ms.handlePlayerHistory)

	mux.HandleFunc("/api/sessions", ms.handleSessions)

	mux.HandleFunc("/api/ingest/jobs", ms.handleIngestJobs)
	mux.HandleFunc("/api/ingest/jobs/", ms.handleIngestJob)
}

// Shutdown gracefully stops the HTTP listener, the sessions and the
// ngrok tunnel.
func (ms *Server) Shutdown(ctx context.Context) {
	ms.logger.Info("Shutting down server")

	if ms.httpServer != nil {
		if err := ms.httpServer.Shutdown(ctx); err != nil {
			ms.logger.WithError(err).Warn("HTTP shutdown error")
		}
	}

	ms.sessions.Close()

	if ms.ngrokService != nil {
		if err := ms.ngrokService.Stop(); err != nil {
			ms.logger.WithError(err).Warn("Ngrok shutdown error")
		}
	}

	ms.logger.Info("Server shutdown complete")
}

// handleHome serves the SPA index file from the configured static dir.
func (ms *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(ms.config.Server.StaticDir, "index.html"))
}

func (ms *Server) respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ms.logger.WithError(err).Error("Failed to encode response")
	}
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(path string) []string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}
