// Package main is the entry point for the tunebox server.
//
// Its only jobs: read configuration, create the logger, and start the
// application. All actual logic lives in internal/.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ngvan/tunebox/internal/server"
	"github.com/ngvan/tunebox/internal/service"
)

func main() {
	// A .env file is optional; real environment variables win either way.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := server.Config{
		Port:              envInt("PORT", 8080),
		DBPath:            envStr("DB_PATH", "data/music_app.db"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AvatarDir:         envStr("AVATAR_DIR", "avatars"),
		ShareBaseURL:      envStr("SHARE_BASE_URL", "https://example.com"),
		StrictRename:      envBool("STRICT_RENAME", false),
		ActivityRetention: envInt("ACTIVITY_RETENTION", service.DefaultMaxEntriesPerUser),
	}

	if cfg.JWTSecret == "" {
		// Sessions cannot be signed without a secret; refuse to start.
		// Generate one with: openssl rand -hex 32
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	// Ensure the database directory exists (like `mkdir -p`).
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
