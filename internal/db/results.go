package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository handles analysis result database operations.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// Create persists one analysis run and fills in its id and timestamp.
func (r *ResultRepository) Create(ctx context.Context, result *AnalysisResult) error {
	result.ID = uuid.New()
	result.CreatedAt = time.Now()
	if result.UserID == "" {
		result.UserID = "anonymous"
	}

	query := `
		INSERT INTO analysis_results (
			id, user_id, eeg1_path, eeg2_path, ecg_path, gsr_path,
			theta_power, hrv, p300_latency, engagement, arousal, valence,
			overall_preference, focus, relax, excite, preference, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := r.pool.Exec(ctx, query,
		result.ID,
		result.UserID,
		result.EEG1Path,
		result.EEG2Path,
		result.ECGPath,
		result.GSRPath,
		result.ThetaPower,
		result.HRV,
		result.P300Latency,
		result.Engagement,
		result.Arousal,
		result.Valence,
		result.OverallPreference,
		result.Focus,
		result.Relax,
		result.Excite,
		result.Preference,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting analysis result: %w", err)
	}
	return nil
}

// resultColumns are the fields returned by list queries. File paths are
// deliberately excluded from responses.
const resultColumns = `
	id, user_id,
	theta_power, hrv, p300_latency, engagement, arousal, valence,
	overall_preference, focus, relax, excite, preference, created_at
`

// Latest retrieves the most recent result for a user.
func (r *ResultRepository) Latest(ctx context.Context, userID string) (*AnalysisResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM analysis_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	result, err := scanResult(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest result: %w", err)
	}
	return result, nil
}

// History retrieves a page of results for a user, newest first.
func (r *ResultRepository) History(ctx context.Context, userID string, limit, offset int) ([]AnalysisResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM analysis_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying result history: %w", err)
	}
	defer rows.Close()

	var results []AnalysisResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return results, nil
}

// Count returns the total number of results for a user.
func (r *ResultRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analysis_results WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting results: %w", err)
	}
	return count, nil
}

// scanResult scans one row of resultColumns.
func scanResult(row pgx.Row) (*AnalysisResult, error) {
	var result AnalysisResult
	err := row.Scan(
		&result.ID,
		&result.UserID,
		&result.ThetaPower,
		&result.HRV,
		&result.P300Latency,
		&result.Engagement,
		&result.Arousal,
		&result.Valence,
		&result.OverallPreference,
		&result.Focus,
		&result.Relax,
		&result.Excite,
		&result.Preference,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
