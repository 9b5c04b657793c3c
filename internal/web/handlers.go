package web

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/sync/errgroup"

	"github.com/neurotune/backend/internal/affect"
	"github.com/neurotune/backend/internal/analysis"
	"github.com/neurotune/backend/internal/db"
	"github.com/neurotune/backend/internal/github"
	"github.com/neurotune/backend/internal/spotify"
)

// Collaborator interfaces consumed by the handlers. Concrete implementations
// live in their own packages; tests substitute stubs.

type catalog interface {
	Recommendations(ctx context.Context, seedGenres []string, targetValence, targetEnergy float64, limit int) (*spotify.RecommendationResult, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
	AudioFeatures(ctx context.Context, trackID string) (*spotify.AudioFeatures, error)
	GenreSeeds(ctx context.Context) ([]string, error)
	RandomTrackByGenreAndYear(ctx context.Context, genre, year string) (*spotify.Track, error)
	GenreAlbumCover(ctx context.Context, genre string) (string, error)
	SearchTrackInfo(ctx context.Context, title, artist string) (*spotify.Track, error)
}

type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

type resultStore interface {
	Create(ctx context.Context, result *db.AnalysisResult) error
	Latest(ctx context.Context, userID string) (*db.AnalysisResult, error)
	History(ctx context.Context, userID string, limit, offset int) ([]db.AnalysisResult, error)
	Count(ctx context.Context, userID string) (int64, error)
}

type preferenceStore interface {
	Upsert(ctx context.Context, userID string, genres, topArtists, topTracks []string) (*db.Preference, error)
	Get(ctx context.Context, userID string) (*db.Preference, error)
}

type analyzer interface {
	Run(ctx context.Context, input analysis.Input) (*analysis.Result, error)
}

type narrator interface {
	Report(ctx context.Context, scores affect.Scores) string
	MoodFromHistory(ctx context.Context, history []affect.Scores) string
	GenresFromHistory(ctx context.Context, history []affect.Scores) []string
}

type activitySource interface {
	AnalyzeActivity(ctx context.Context, token string) (*github.Activity, error)
}

// UploadConfig controls biosignal file upload handling.
type UploadConfig struct {
	Dir         string
	MaxFileSize int64

	// Retain keeps uploaded files after a successful analysis. Files are
	// always deleted when the analysis fails.
	Retain bool
}

// HandlersConfig wires the collaborators into the handlers.
type HandlersConfig struct {
	Users    userStore
	Prefs    preferenceStore
	Results  resultStore
	Catalog  catalog
	Tokens   tokenSource
	Gateway  analyzer
	Narrator narrator
	Activity activitySource
	Uploads  UploadConfig
}

// Handlers holds the HTTP handlers for the API.
type Handlers struct {
	users    userStore
	prefs    preferenceStore
	results  resultStore
	catalog  catalog
	tokens   tokenSource
	gateway  analyzer
	narrator narrator
	activity activitySource
	uploads  UploadConfig

	// currentlyPlaying is swappable in tests.
	currentlyPlaying func(ctx context.Context, userToken string) (*spotifyapi.CurrentlyPlaying, error)
}

// NewHandlers creates the handler set.
func NewHandlers(cfg HandlersConfig) *Handlers {
	return &Handlers{
		users:            cfg.Users,
		prefs:            cfg.Prefs,
		results:          cfg.Results,
		catalog:          cfg.Catalog,
		tokens:           cfg.Tokens,
		gateway:          cfg.Gateway,
		narrator:         cfg.Narrator,
		activity:         cfg.Activity,
		uploads:          cfg.Uploads,
		currentlyPlaying: spotify.CurrentlyPlaying,
	}
}

// Health reports service liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, envelope{
		"message":   "NeuroTune API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// trackView is the JSON shape of a track in API responses.
type trackView struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	AlbumArt   string   `json:"albumArt,omitempty"`
	Duration   int      `json:"duration"`
	PreviewURL string   `json:"previewUrl,omitempty"`
	SpotifyURL string   `json:"spotifyUrl,omitempty"`
}

func toTrackView(t spotify.Track) trackView {
	view := trackView{
		ID:         t.ID,
		Name:       t.Name,
		Album:      t.Album.Name,
		Duration:   t.DurationMs,
		PreviewURL: t.PreviewURL,
		SpotifyURL: t.ExternalURLs.Spotify,
	}
	for _, a := range t.Artists {
		view.Artists = append(view.Artists, a.Name)
	}
	if len(t.Album.Images) > 0 {
		view.AlbumArt = t.Album.Images[0].URL
	}
	return view
}

func toTrackViews(tracks []spotify.Track) []trackView {
	views := make([]trackView, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, toTrackView(t))
	}
	return views
}

// Recommendations returns an affect-biased playlist for a context label.
// The latest stored affect result for the user is read before the catalog
// query is constructed.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contextLabel := r.URL.Query().Get("context")
	if contextLabel == "" {
		contextLabel = "general"
	}
	userID := r.URL.Query().Get("userId")
	limit := queryInt(r, "limit", 20)

	var preferred []string
	var latest *affect.Scores
	var latestRecord *db.AnalysisResult

	if userID != "" {
		if pref, err := h.prefs.Get(ctx, userID); err == nil {
			preferred = pref.Genres
		} else if !errors.Is(err, db.ErrNotFound) {
			log.Printf("web: loading preferences for %s: %v", userID, err)
		}

		if record, err := h.results.Latest(ctx, userID); err == nil {
			latestRecord = record
			scores := scoresFromResult(record)
			latest = &scores
		} else if !errors.Is(err, db.ErrNotFound) {
			log.Printf("web: loading latest analysis for %s: %v", userID, err)
		}
	}

	targets := affect.MapContextToTargets(contextLabel, latest)
	seeds := affect.SeedGenres(preferred)

	result, err := h.catalog.Recommendations(ctx, seeds, targets.Valence, targets.Energy, limit)
	if err != nil {
		log.Printf("web: recommendations failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to get recommendations")
		return
	}

	playlist := toTrackViews(result.Tracks)
	body := envelope{
		"context": contextLabel,
		"parameters": envelope{
			"targetValence": round2(targets.Valence),
			"targetEnergy":  round2(targets.Energy),
			"seedGenres":    seeds,
			"eegModifier":   round2(targets.EEGModifier),
			"mood":          targets.Mood,
		},
		"fallback": result.Fallback,
		"count":    len(playlist),
		"data":     playlist,
	}
	if latestRecord != nil {
		body["eegData"] = envelope{
			"engagement":        latestRecord.Engagement,
			"arousal":           latestRecord.Arousal,
			"valence":           latestRecord.Valence,
			"overallPreference": latestRecord.OverallPreference,
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// SearchTracks performs a free-text track search.
func (h *Handlers) SearchTracks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	limit := queryInt(r, "limit", 20)

	tracks, err := h.catalog.SearchTracks(r.Context(), query, limit)
	if err != nil {
		log.Printf("web: search failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to search tracks")
		return
	}

	views := toTrackViews(tracks)
	respondJSON(w, http.StatusOK, envelope{
		"query": query,
		"count": len(views),
		"data":  views,
	})
}

// AudioFeatures returns the audio features for one track.
func (h *Handlers) AudioFeatures(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "trackID")

	features, err := h.catalog.AudioFeatures(r.Context(), trackID)
	if err != nil {
		log.Printf("web: audio features failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to get audio features")
		return
	}
	respondJSON(w, http.StatusOK, envelope{"data": features})
}

// Genres returns the valid seed genres for recommendation queries.
func (h *Handlers) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.GenreSeeds(r.Context())
	if err != nil {
		log.Printf("web: genre seeds failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to fetch genres")
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"count": len(genres),
		"data":  genres,
	})
}

// GenreCover returns a random album cover URL for a genre. Best effort: a
// failed lookup yields a null cover rather than an error response.
func (h *Handlers) GenreCover(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")

	coverURL, err := h.catalog.GenreAlbumCover(r.Context(), genre)
	if err != nil {
		log.Printf("web: genre cover for %q failed: %v", genre, err)
	}
	respondJSON(w, http.StatusOK, envelope{
		"genre":    genre,
		"coverUrl": nullableString(coverURL),
	})
}

// GenreCovers resolves covers for several genres at once. The per-genre
// lookups are independent and read-only, so they run in parallel.
func (h *Handlers) GenreCovers(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("genres")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "genres query parameter is required")
		return
	}
	genres := strings.Split(raw, ",")
	if len(genres) > 20 {
		genres = genres[:20]
	}

	covers := make([]envelope, len(genres))
	g, ctx := errgroup.WithContext(r.Context())
	for i, genre := range genres {
		g.Go(func() error {
			coverURL, err := h.catalog.GenreAlbumCover(ctx, genre)
			if err != nil {
				log.Printf("web: genre cover for %q failed: %v", genre, err)
			}
			covers[i] = envelope{
				"genre":    genre,
				"coverUrl": nullableString(coverURL),
			}
			return nil
		})
	}
	_ = g.Wait()

	respondJSON(w, http.StatusOK, envelope{
		"count": len(covers),
		"data":  covers,
	})
}

// VerifyConnection checks that catalog credentials work.
func (h *Handlers) VerifyConnection(w http.ResponseWriter, r *http.Request) {
	if _, err := h.tokens.Token(r.Context()); err != nil {
		log.Printf("web: catalog connection check failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to connect to Spotify API")
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"message": "Successfully connected to Spotify API",
	})
}

// RandomTrack picks a random track for a genre and optional year.
func (h *Handlers) RandomTrack(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	if genre == "" {
		respondError(w, http.StatusBadRequest, "genre query parameter is required")
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}

	track, err := h.catalog.RandomTrackByGenreAndYear(r.Context(), genre, year)
	if err != nil {
		log.Printf("web: random track for %q failed: %v", genre, err)
		respondError(w, http.StatusBadGateway, "Failed to pick a track")
		return
	}
	if track == nil {
		respondJSON(w, http.StatusOK, envelope{"data": nil})
		return
	}
	respondJSON(w, http.StatusOK, envelope{"data": toTrackView(*track)})
}

// TrackInfo resolves track metadata by title and artist.
func (h *Handlers) TrackInfo(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	artist := r.URL.Query().Get("artist")
	if title == "" || artist == "" {
		respondError(w, http.StatusBadRequest, "title and artist query parameters are required")
		return
	}

	track, err := h.catalog.SearchTrackInfo(r.Context(), title, artist)
	if err != nil {
		log.Printf("web: track info failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to look up track")
		return
	}
	if track == nil {
		respondJSON(w, http.StatusOK, envelope{"data": nil})
		return
	}
	respondJSON(w, http.StatusOK, envelope{"data": toTrackView(*track)})
}

// CurrentlyPlaying returns the caller's currently playing track. Requires a
// user-scoped bearer token, distinct from the client-credentials token.
func (h *Handlers) CurrentlyPlaying(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "A user access token is required")
		return
	}

	playing, err := h.currentlyPlaying(r.Context(), token)
	if err != nil {
		log.Printf("web: currently playing failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to get currently playing track")
		return
	}
	if playing == nil {
		respondJSON(w, http.StatusOK, envelope{"playing": false, "data": nil})
		return
	}
	respondJSON(w, http.StatusOK, envelope{"playing": playing.Playing, "data": playing})
}

// GithubActivity scores the caller's recent code-hosting activity.
func (h *Handlers) GithubActivity(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "A GitHub token is required")
		return
	}

	activity, err := h.activity.AnalyzeActivity(r.Context(), token)
	if err != nil {
		log.Printf("web: github activity failed: %v", err)
		respondError(w, http.StatusBadGateway, "Failed to analyze GitHub activity. Please check your token.")
		return
	}
	respondJSON(w, http.StatusOK, envelope{"data": activity})
}

// scoresFromResult converts a stored record to mapper input. Stress is not
// stored separately; arousal stands in for it.
func scoresFromResult(record *db.AnalysisResult) affect.Scores {
	return affect.Scores{
		Engagement:        record.Engagement,
		Arousal:           record.Arousal,
		Valence:           record.Valence,
		OverallPreference: record.OverallPreference,
		Focus:             record.Focus,
		Relax:             record.Relax,
		Stress:            record.Arousal,
	}
}

// bearerToken extracts a token from the Authorization header or the token
// query parameter.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	if after, ok := strings.CutPrefix(auth, "token "); ok {
		return after
	}
	return r.URL.Query().Get("token")
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// nullableString renders "" as JSON null.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
