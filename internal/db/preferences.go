package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferenceRepository handles user music preference operations.
type PreferenceRepository struct {
	pool *pgxpool.Pool
}

// Upsert creates or replaces a user's preferences.
func (r *PreferenceRepository) Upsert(ctx context.Context, userID string, genres, topArtists, topTracks []string) (*Preference, error) {
	if topArtists == nil {
		topArtists = []string{}
	}
	if topTracks == nil {
		topTracks = []string{}
	}

	query := `
		INSERT INTO user_preferences (user_id, genres, top_artists, top_tracks, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET genres = EXCLUDED.genres,
		    top_artists = EXCLUDED.top_artists,
		    top_tracks = EXCLUDED.top_tracks,
		    updated_at = NOW()
		RETURNING user_id, genres, top_artists, top_tracks, updated_at
	`
	var pref Preference
	err := r.pool.QueryRow(ctx, query, userID, genres, topArtists, topTracks).Scan(
		&pref.UserID,
		&pref.Genres,
		&pref.TopArtists,
		&pref.TopTracks,
		&pref.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting preferences: %w", err)
	}
	return &pref, nil
}

// Get retrieves a user's preferences.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (*Preference, error) {
	query := `
		SELECT user_id, genres, top_artists, top_tracks, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`
	var pref Preference
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&pref.UserID,
		&pref.Genres,
		&pref.TopArtists,
		&pref.TopTracks,
		&pref.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying preferences: %w", err)
	}
	return &pref, nil
}
