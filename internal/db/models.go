package db

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Nickname     string
	APIKeys      APIKeys
	Genres       []string
	LastLogin    *time.Time // nullable
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// APIKeys holds per-user credentials for external services. Stored as JSONB.
type APIKeys struct {
	SpotifyClientID     string `json:"spotifyClientId,omitempty"`
	SpotifyClientSecret string `json:"spotifyClientSecret,omitempty"`
	GithubToken         string `json:"githubToken,omitempty"`
	TestMode            bool   `json:"testMode,omitempty"`
}

// Preference is a user's stored music taste.
type Preference struct {
	UserID     string
	Genres     []string
	TopArtists []string
	TopTracks  []string
	UpdatedAt  time.Time
}

// AnalysisResult is one persisted analysis run. File paths are kept for
// operator inspection but never exposed through list queries.
type AnalysisResult struct {
	ID                uuid.UUID
	UserID            string
	EEG1Path          string
	EEG2Path          string
	ECGPath           string
	GSRPath           string
	ThetaPower        float64
	HRV               float64
	P300Latency       float64
	Engagement        float64
	Arousal           float64
	Valence           float64
	OverallPreference float64
	Focus             float64
	Relax             float64
	Excite            float64
	Preference        float64
	CreatedAt         time.Time
}
