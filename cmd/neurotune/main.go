package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/neurotune/backend/internal/analysis"
	"github.com/neurotune/backend/internal/config"
	"github.com/neurotune/backend/internal/db"
	"github.com/neurotune/backend/internal/github"
	"github.com/neurotune/backend/internal/narrative"
	"github.com/neurotune/backend/internal/spotify"
	"github.com/neurotune/backend/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// A missing .env is fine; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("creating upload directory: %w", err)
	}

	broker := spotify.NewBroker(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	catalog := spotify.NewClient(broker)
	gateway := analysis.NewGateway(cfg.AnalysisInterpreter, cfg.AnalysisScript, cfg.AnalysisTimeout)
	narrator := narrative.NewGenerator(cfg.GithubToken, cfg.LLMModel)
	activity := github.NewClient()

	handlers := web.NewHandlers(web.HandlersConfig{
		Users:    database.Users(),
		Prefs:    database.Preferences(),
		Results:  database.Results(),
		Catalog:  catalog,
		Tokens:   broker,
		Gateway:  gateway,
		Narrator: narrator,
		Activity: activity,
		Uploads: web.UploadConfig{
			Dir:         cfg.UploadDir,
			MaxFileSize: cfg.MaxFileSize,
			Retain:      cfg.RetainUploads,
		},
	})

	server := web.NewServer(cfg.Addr, handlers)
	return server.Run()
}
