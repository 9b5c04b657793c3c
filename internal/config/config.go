// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")

// Config holds all runtime configuration. Credentials and tunables come from
// the environment; core logic never reads env vars directly.
type Config struct {
	Addr        string
	DatabaseURL string

	SpotifyClientID     string
	SpotifyClientSecret string

	AnalysisInterpreter string
	AnalysisScript      string
	AnalysisTimeout     time.Duration

	UploadDir     string
	MaxFileSize   int64
	RetainUploads bool

	GithubToken string
	LLMModel    string
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	maxFileSize, err := envInt64("MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return nil, err
	}

	timeout, err := envDuration("ANALYSIS_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, err
	}

	retain, err := envBool("RETAIN_UPLOADS", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		Addr:                ":" + envString("PORT", "8080"),
		DatabaseURL:         databaseURL,
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		AnalysisInterpreter: envString("ANALYSIS_INTERPRETER", "python3"),
		AnalysisScript:      envString("ANALYSIS_SCRIPT", "analysis/eeg_process.py"),
		AnalysisTimeout:     timeout,
		UploadDir:           envString("UPLOAD_DIR", "uploads"),
		MaxFileSize:         maxFileSize,
		RetainUploads:       retain,
		GithubToken:         os.Getenv("GITHUB_TOKEN"),
		LLMModel:            envString("LLM_MODEL", "gpt-4o"),
	}, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}
