package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revify/internal/config"
	"revify/internal/database"
	"revify/internal/ingest"
	"revify/internal/server"
	"revify/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Error loading configuration")
	}

	logger := newLogger(&cfg.Logging)

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing database")
	}
	defer db.Close()

	var assets *storage.AssetStore
	if cfg.Storage.Endpoint != "" {
		assets, err = storage.New(&cfg.Storage, logger)
		if err != nil {
			logger.WithError(err).Warn("Object storage unavailable, uploads disabled")
			assets = nil
		}
	}

	srv, err := server.New(cfg, db, assets, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating server")
	}

	var watcher *ingest.Watcher
	if pipeline := srv.Pipeline(); pipeline != nil && cfg.Ingest.WatchDropDir {
		watcher, err = ingest.NewWatcher(pipeline)
		if err != nil {
			logger.WithError(err).Warn("Could not start drop-dir watcher")
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-c
	logger.Info("Received shutdown signal")

	if watcher != nil {
		watcher.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func newLogger(cfg *config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.WithError(err).Warn("Could not open log file, using stderr")
		} else {
			logger.SetOutput(f)
		}
	}

	return logger
}
