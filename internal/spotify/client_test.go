package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient builds a client whose API and token endpoints both point at
// the given mux. The mux must serve /token.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	broker := &Broker{
		clientID:     "client-id",
		clientSecret: "client-secret",
		authURL:      srv.URL + "/token",
		httpClient:   srv.Client(),
		now:          time.Now,
	}
	return &Client{
		baseURL:    srv.URL,
		httpClient: srv.Client(),
		broker:     broker,
		intn:       func(n int) int { return 0 },
	}
}

func writeTracks(w http.ResponseWriter, tracks []Track) {
	json.NewEncoder(w).Encode(searchResponse{Tracks: struct {
		Items []Track `json:"items"`
	}{Items: tracks}})
}

func TestRecommendations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if got := q.Get("seed_genres"); got != "study,chill,ambient" {
			t.Errorf("seed_genres = %q", got)
		}
		if got := q.Get("target_valence"); got != "0.8" {
			t.Errorf("target_valence = %q", got)
		}
		if got := q.Get("limit"); got != "10" {
			t.Errorf("limit = %q", got)
		}
		json.NewEncoder(w).Encode(recommendationsResponse{Tracks: []Track{
			{ID: "t1", Name: "First"},
			{ID: "t2", Name: "Second"},
		}})
	})

	c := newTestClient(t, mux)
	result, err := c.Recommendations(context.Background(), []string{"study", "chill", "ambient"}, 0.8, 0.2, 10)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if result.Fallback {
		t.Error("Fallback = true, want false")
	}
	if len(result.Tracks) != 2 || result.Tracks[0].ID != "t1" {
		t.Errorf("Tracks = %+v", result.Tracks)
	}
}

func TestRecommendationsClampsAndTruncatesSeeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("seed_genres"); got != "a,b,c,d,e" {
			t.Errorf("seed_genres = %q, want first five", got)
		}
		if got := q.Get("target_valence"); got != "1" {
			t.Errorf("target_valence = %q, want clamped to 1", got)
		}
		if got := q.Get("target_energy"); got != "0" {
			t.Errorf("target_energy = %q, want clamped to 0", got)
		}
		json.NewEncoder(w).Encode(recommendationsResponse{Tracks: []Track{{ID: "t1"}}})
	})

	c := newTestClient(t, mux)
	if _, err := c.Recommendations(context.Background(), []string{"a", "b", "c", "d", "e", "f"}, 1.7, -0.3, 5); err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
}

func TestRecommendationsFallsBackToGenreSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":404}}`, http.StatusNotFound)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != `genre:"study"` {
			t.Errorf("q = %q", got)
		}
		writeTracks(w, []Track{{ID: "fb1", Name: "Fallback"}})
	})

	c := newTestClient(t, mux)
	result, err := c.Recommendations(context.Background(), []string{"study"}, 0.5, 0.5, 20)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if !result.Fallback {
		t.Error("Fallback = false, want true")
	}
	if len(result.Tracks) != 1 || result.Tracks[0].ID != "fb1" {
		t.Errorf("Tracks = %+v", result.Tracks)
	}
}

func TestRecommendationsBothPathsFail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	c := newTestClient(t, mux)
	if _, err := c.Recommendations(context.Background(), []string{"study"}, 0.5, 0.5, 20); !errors.Is(err, ErrRecommendationsUnavailable) {
		t.Errorf("error = %v, want ErrRecommendationsUnavailable", err)
	}
}

func TestRecommendationsNoSeeds(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	if _, err := c.Recommendations(context.Background(), nil, 0.5, 0.5, 20); !errors.Is(err, ErrRecommendationsUnavailable) {
		t.Errorf("error = %v, want ErrRecommendationsUnavailable", err)
	}
}

func TestSearchTracks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "lofi beats" {
			t.Errorf("q = %q", got)
		}
		if got := q.Get("type"); got != "track" {
			t.Errorf("type = %q", got)
		}
		writeTracks(w, []Track{{ID: "s1"}, {ID: "s2"}})
	})

	c := newTestClient(t, mux)
	tracks, err := c.SearchTracks(context.Background(), "lofi beats", 20)
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("len(tracks) = %d, want 2", len(tracks))
	}
}

func TestSearchTracksError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := newTestClient(t, mux)
	if _, err := c.SearchTracks(context.Background(), "lofi", 20); !errors.Is(err, ErrSearch) {
		t.Errorf("error = %v, want ErrSearch", err)
	}
}

func TestSearchTrackInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "track:Dynamite artist:BTS" {
			t.Errorf("q = %q", got)
		}
		if got := q.Get("limit"); got != "1" {
			t.Errorf("limit = %q", got)
		}
		writeTracks(w, []Track{{ID: "d1", Name: "Dynamite"}})
	})

	c := newTestClient(t, mux)
	track, err := c.SearchTrackInfo(context.Background(), "Dynamite", "BTS")
	if err != nil {
		t.Fatalf("SearchTrackInfo() error = %v", err)
	}
	if track == nil || track.ID != "d1" {
		t.Errorf("track = %+v", track)
	}
}

func TestSearchTrackInfoNoMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		writeTracks(w, nil)
	})

	c := newTestClient(t, mux)
	track, err := c.SearchTrackInfo(context.Background(), "No", "Body")
	if err != nil {
		t.Fatalf("SearchTrackInfo() error = %v", err)
	}
	if track != nil {
		t.Errorf("track = %+v, want nil", track)
	}
}

func TestAudioFeatures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/audio-features/abc123", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AudioFeatures{ID: "abc123", Valence: 0.4, Energy: 0.9})
	})

	c := newTestClient(t, mux)
	features, err := c.AudioFeatures(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("AudioFeatures() error = %v", err)
	}
	if features.ID != "abc123" || features.Energy != 0.9 {
		t.Errorf("features = %+v", features)
	}
}

func TestGenreSeeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendations/available-genre-seeds", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(genreSeedsResponse{Genres: []string{"pop", "rock"}})
	})

	c := newTestClient(t, mux)
	genres, err := c.GenreSeeds(context.Background())
	if err != nil {
		t.Fatalf("GenreSeeds() error = %v", err)
	}
	if len(genres) != 2 || genres[0] != "pop" {
		t.Errorf("genres = %v", genres)
	}
}

func TestGenreSeedsFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendations/available-genre-seeds", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	c := newTestClient(t, mux)
	first, err := c.GenreSeeds(context.Background())
	if err != nil {
		t.Fatalf("GenreSeeds() error = %v", err)
	}
	second, err := c.GenreSeeds(context.Background())
	if err != nil {
		t.Fatalf("GenreSeeds() second call error = %v", err)
	}

	if len(first) != len(fallbackGenreSeeds) {
		t.Errorf("len(genres) = %d, want %d", len(first), len(fallbackGenreSeeds))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("fallback list not deterministic at %d: %q != %q", i, first[i], second[i])
		}
	}
	if first[0] != "acoustic" || first[len(first)-1] != "world-music" {
		t.Errorf("fallback bounds = %q..%q", first[0], first[len(first)-1])
	}
}
