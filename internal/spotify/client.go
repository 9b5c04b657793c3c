package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const baseURL = "https://api.spotify.com/v1"

// Sentinel errors for catalog operations.
var (
	// ErrRecommendationsUnavailable is returned when both the recommendations
	// endpoint and the genre-search fallback fail.
	ErrRecommendationsUnavailable = errors.New("recommendations unavailable")

	// ErrSearch is returned when a track search fails.
	ErrSearch = errors.New("spotify search failed")
)

// Client wraps catalog search, recommendation and metadata calls.
// All operations obtain a bearer token from the Broker implicitly.
type Client struct {
	baseURL    string
	httpClient *http.Client
	broker     *Broker

	// intn is the random source for pagination offsets and track picks.
	intn func(n int) int
}

// NewClient creates a catalog client backed by the given broker.
func NewClient(broker *Broker) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		broker: broker,
		intn:   rand.IntN,
	}
}

// RecommendationResult is the outcome of a recommendations call.
// Fallback is true when the track list came from the search fallback rather
// than the recommendations endpoint.
type RecommendationResult struct {
	Tracks   []Track
	Fallback bool
}

// Recommendations fetches track recommendations biased by the given targets.
// At most the first 5 seed genres are sent; targets are clamped to [0,1].
// If the recommendations endpoint fails (including the common case where the
// provider blocks it for the account tier), a single track search on the
// first seed genre is attempted instead.
func (c *Client) Recommendations(ctx context.Context, seedGenres []string, targetValence, targetEnergy float64, limit int) (*RecommendationResult, error) {
	if len(seedGenres) == 0 {
		return nil, fmt.Errorf("%w: at least one seed genre required", ErrRecommendationsUnavailable)
	}
	if limit <= 0 {
		limit = 20
	}
	seeds := seedGenres
	if len(seeds) > 5 {
		seeds = seeds[:5]
	}

	q := url.Values{
		"seed_genres":    {strings.Join(seeds, ",")},
		"target_valence": {formatTarget(clamp01(targetValence))},
		"target_energy":  {formatTarget(clamp01(targetEnergy))},
		"limit":          {strconv.Itoa(limit)},
	}

	var rec recommendationsResponse
	err := c.get(ctx, "/recommendations", q, &rec)
	if err == nil {
		return &RecommendationResult{Tracks: rec.Tracks}, nil
	}

	log.Printf("spotify: recommendations endpoint failed, falling back to genre search: %v", err)

	tracks, searchErr := c.searchTrackPage(ctx, fmt.Sprintf("genre:%q", seeds[0]), limit, 0)
	if searchErr != nil {
		return nil, fmt.Errorf("%w: %v (fallback: %v)", ErrRecommendationsUnavailable, err, searchErr)
	}
	return &RecommendationResult{Tracks: tracks, Fallback: true}, nil
}

// SearchTracks performs a free-text track search.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 20
	}
	tracks, err := c.searchTrackPage(ctx, query, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	return tracks, nil
}

// AudioFeatures fetches the audio features for a single track.
func (c *Client) AudioFeatures(ctx context.Context, trackID string) (*AudioFeatures, error) {
	var features AudioFeatures
	if err := c.get(ctx, "/audio-features/"+url.PathEscape(trackID), nil, &features); err != nil {
		return nil, fmt.Errorf("fetching audio features: %w", err)
	}
	return &features, nil
}

// SearchTrackInfo resolves a track's metadata by title and artist.
// Returns (nil, nil) when no match is found.
func (c *Client) SearchTrackInfo(ctx context.Context, title, artist string) (*Track, error) {
	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	tracks, err := c.searchTrackPage(ctx, query, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return &tracks[0], nil
}

// searchTrackPage issues one search call for a page of tracks.
func (c *Client) searchTrackPage(ctx context.Context, query string, limit, offset int) ([]Track, error) {
	q := url.Values{
		"q":      {query},
		"type":   {"track"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var resp searchResponse
	if err := c.get(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks.Items, nil
}

// get performs an authenticated GET against the catalog API and decodes the
// JSON response into v.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	token, err := c.broker.Token(ctx)
	if err != nil {
		return err
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// formatTarget renders a target audio-feature value for the query string.
func formatTarget(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
