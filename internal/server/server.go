// Package server is the composition root: it wires the gateway, services,
// and handlers together, mounts the routes, and owns the process lifecycle.
//
// DEPENDENCY FLOW:
//
//	main.go reads config →
//	  server.New builds: sqlite.DB → ActivityService
//	                               → UserService / PlaylistService
//	                               → handlers → routes
//
// All wiring happens here, nowhere else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ngvan/tunebox/internal/auth"
	"github.com/ngvan/tunebox/internal/avatar"
	"github.com/ngvan/tunebox/internal/handler"
	"github.com/ngvan/tunebox/internal/middleware"
	"github.com/ngvan/tunebox/internal/music"
	"github.com/ngvan/tunebox/internal/service"
	"github.com/ngvan/tunebox/internal/store/sqlite"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port         int
	DBPath       string
	JWTSecret    string
	AvatarDir    string
	ShareBaseURL string

	// StrictRename makes playlist renames re-check name uniqueness.
	StrictRename bool

	// ActivityRetention caps activity entries per user (0 = unbounded).
	ActivityRetention int
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqlite.DB
}

// New builds the full dependency graph and mounts all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	// Global middleware, in order: request ID → real IP → panic recovery →
	// rate limit → metrics → logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RateLimitPerIP(rate.Limit(50), 100))
	s.router.Use(middleware.Metrics())
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	avatars, err := avatar.NewStore(s.config.AvatarDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating avatar store: %w", err)
	}

	// Services. The activity service doubles as the Recorder every other
	// service logs through.
	activitySvc := service.NewActivityService(s.db, s.logger, s.config.ActivityRetention)
	userSvc := service.NewUserService(s.db, auth.NewPasswordService(), tokens, activitySvc, s.logger)
	playlistSvc := service.NewPlaylistService(s.db, activitySvc, s.logger, service.PlaylistConfig{
		ShareBaseURL: s.config.ShareBaseURL,
		StrictRename: s.config.StrictRename,
	})

	stub := music.StubProvider{}

	authHandler := handler.NewAuthHandler(userSvc, s.logger)
	playlistHandler := handler.NewPlaylistHandler(playlistSvc, s.logger)
	activityHandler := handler.NewActivityHandler(activitySvc, s.logger)
	profileHandler := handler.NewProfileHandler(userSvc, avatars, s.logger)
	musicHandler := handler.NewMusicHandler(stub, stub, s.logger)

	// Stored avatars are plain files; serve them statically. Directory
	// requests are refused — a listing would enumerate every avatar
	// filename, and those embed usernames.
	avatarFS := noDirListing(http.FileServer(http.Dir(avatars.Dir())))
	s.router.Handle("/avatars/*", http.StripPrefix("/avatars/", avatarFS))

	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Anonymous routes: the way in.
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		// Everything else requires an authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)

			r.Put("/profile", profileHandler.HandleUpdate)
			r.With(maxBody(avatar.MaxUploadBytes+1024)).
				Post("/profile/avatar", profileHandler.HandleAvatarUpload)

			r.Get("/playlists", playlistHandler.HandleList)
			r.Post("/playlists", playlistHandler.HandleCreate)
			r.Put("/playlists/{name}", playlistHandler.HandleEdit)
			r.Delete("/playlists/{name}", playlistHandler.HandleDelete)
			r.Post("/playlists/{name}/songs", playlistHandler.HandleAddSong)
			r.Get("/playlists/{name}/share", playlistHandler.HandleShare)
			r.Get("/playlists/{name}/export", playlistHandler.HandleExport)

			r.Get("/activity", activityHandler.HandleList)

			r.Get("/search", musicHandler.HandleSearch)
			r.Get("/recommendations", musicHandler.HandleRecommendations)
		})
	})

	return nil
}

// noDirListing serves files only: empty and trailing-slash paths, which
// http.FileServer would answer with a directory listing, get a 404.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// maxBody caps the request body. The small slack over the avatar limit
// leaves room for the multipart framing; the store enforces the exact file
// limit.
func maxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("avatarDir", s.config.AvatarDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
