// Package web provides the HTTP API server.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultAddr is the default server address.
const DefaultAddr = ":8080"

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
}

// NewServer creates a new API server around the given handlers.
func NewServer(addr string, handlers *Handlers) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	// General limit across the API; uploads get a stricter hourly budget.
	general := newIPLimiter(100, 15*time.Minute, 10)
	uploads := newIPLimiter(100, time.Hour, 5)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(general.middleware)

		r.Get("/health", h.Health)

		r.Post("/users/register", h.Register)
		r.Post("/users/login", h.Login)
		r.Get("/users/{userID}", h.GetProfile)
		r.Put("/users/{userID}", h.UpdateProfile)

		r.Get("/auth/genres", h.Genres)
		r.Get("/auth/genre-cover/{genre}", h.GenreCover)
		r.Get("/auth/genre-covers", h.GenreCovers)
		r.Get("/auth/verify", h.VerifyConnection)

		r.Post("/preferences", h.SavePreferences)
		r.Get("/preferences/{userID}", h.GetPreferences)

		r.Get("/recommendations", h.Recommendations)
		r.Get("/search", h.SearchTracks)
		r.Get("/audio-features/{trackID}", h.AudioFeatures)
		r.Get("/tracks/random", h.RandomTrack)
		r.Get("/tracks/info", h.TrackInfo)
		r.Get("/player/current", h.CurrentlyPlaying)

		r.With(uploads.middleware).Post("/analyze", h.Analyze)
		r.Get("/analysis/history/{userID}", h.AnalysisHistory)
		r.Get("/analysis/latest/{userID}", h.LatestAnalysis)
		r.Get("/analysis/moods/{userID}", h.AnalysisMoods)

		r.Get("/narrative/report/{userID}", h.NarrativeReport)
		r.Get("/narrative/mood/{userID}", h.NarrativeMood)
		r.Get("/narrative/genres/{userID}", h.NarrativeGenres)

		r.Get("/github/activity", h.GithubActivity)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Endpoint not found")
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server at %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Println("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
