// Package db provides PostgreSQL persistence for users, preferences and
// analysis results.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// EnsureSchema creates the tables if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			nickname TEXT NOT NULL,
			api_keys JSONB NOT NULL DEFAULT '{}',
			genres TEXT[] NOT NULL DEFAULT '{}',
			last_login TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			user_id TEXT PRIMARY KEY,
			genres TEXT[] NOT NULL,
			top_artists TEXT[] NOT NULL DEFAULT '{}',
			top_tracks TEXT[] NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT 'anonymous',
			eeg1_path TEXT NOT NULL,
			eeg2_path TEXT NOT NULL,
			ecg_path TEXT NOT NULL,
			gsr_path TEXT NOT NULL,
			theta_power DOUBLE PRECISION NOT NULL,
			hrv DOUBLE PRECISION NOT NULL,
			p300_latency DOUBLE PRECISION NOT NULL,
			engagement DOUBLE PRECISION NOT NULL,
			arousal DOUBLE PRECISION NOT NULL,
			valence DOUBLE PRECISION NOT NULL,
			overall_preference DOUBLE PRECISION NOT NULL,
			focus DOUBLE PRECISION NOT NULL,
			relax DOUBLE PRECISION NOT NULL,
			excite DOUBLE PRECISION NOT NULL,
			preference DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_results_user_created
			ON analysis_results (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// Users returns a UserRepository.
func (db *DB) Users() *UserRepository {
	return &UserRepository{pool: db.pool}
}

// Preferences returns a PreferenceRepository.
func (db *DB) Preferences() *PreferenceRepository {
	return &PreferenceRepository{pool: db.pool}
}

// Results returns a ResultRepository.
func (db *DB) Results() *ResultRepository {
	return &ResultRepository{pool: db.pool}
}
