package spotify

import (
	"context"
	"net/http"
	"testing"
)

func TestGenreQuery(t *testing.T) {
	tests := []struct {
		genre string
		want  string
	}{
		{"jazz", `genre:"jazz"`},
		{"hip-hop", `genre:"hip-hop"`},
		{"k-pop", "k-pop"},
		{"K-Pop", "k-pop"},
	}
	for _, tt := range tests {
		if got := genreQuery(tt.genre); got != tt.want {
			t.Errorf("genreQuery(%q) = %q, want %q", tt.genre, got, tt.want)
		}
	}
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2016-03-25", 2016},
		{"2016-03", 2016},
		{"2016", 2016},
		{"", 0},
		{"??", 0},
		{"abcd-01-01", 0},
	}
	for _, tt := range tests {
		if got := releaseYear(tt.date); got != tt.want {
			t.Errorf("releaseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func properTrack(id, albumName string) Track {
	return Track{
		ID:   id,
		Name: id,
		Album: Album{
			Name:        albumName,
			AlbumType:   "album",
			ReleaseDate: "2021-05-01",
			Artists:     []Artist{{Name: "Some Artist"}},
			Images:      []Image{{URL: "https://img.example/" + id}},
		},
	}
}

func TestIsValidCoverTrack(t *testing.T) {
	tests := []struct {
		name  string
		track Track
		genre string
		want  bool
	}{
		{"proper album", properTrack("a", "Good Album"), "jazz", true},
		{"no images", func() Track {
			t := properTrack("a", "Good Album")
			t.Album.Images = nil
			return t
		}(), "jazz", false},
		{"compilation type", func() Track {
			t := properTrack("a", "Good Album")
			t.Album.AlbumType = "compilation"
			return t
		}(), "jazz", false},
		{"various artists", func() Track {
			t := properTrack("a", "Good Album")
			t.Album.Artists = []Artist{{Name: "Various Artists"}}
			return t
		}(), "jazz", false},
		{"greatest hits title", properTrack("a", "Greatest Hits Vol. 2"), "jazz", false},
		{"playlist title", properTrack("a", "Chill Playlist 2024"), "jazz", false},
		{"too old", func() Track {
			t := properTrack("a", "Good Album")
			t.Album.ReleaseDate = "2009-12-31"
			return t
		}(), "jazz", false},
		{"track named k-pop for k-pop genre", func() Track {
			t := properTrack("a", "Good Album")
			t.Name = "K-POP"
			return t
		}(), "k-pop", false},
		{"track named k-pop for other genre", func() Track {
			t := properTrack("a", "Good Album")
			t.Name = "K-POP"
			return t
		}(), "pop", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidCoverTrack(tt.track, tt.genre); got != tt.want {
				t.Errorf("isValidCoverTrack() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPickRandomTrackFilters(t *testing.T) {
	compilation := properTrack("bad", "Comp")
	compilation.Album.AlbumType = "compilation"
	good := properTrack("good", "Album")

	c := &Client{intn: func(n int) int { return 0 }}
	picked := c.pickRandomTrack([]Track{compilation, good})
	if picked.ID != "good" {
		t.Errorf("picked = %q, want good", picked.ID)
	}
}

func TestPickRandomTrackEmptyPoolFallsBack(t *testing.T) {
	noArt := properTrack("only", "Album")
	noArt.Album.Images = nil

	c := &Client{intn: func(n int) int { return 0 }}
	picked := c.pickRandomTrack([]Track{noArt})
	if picked == nil || picked.ID != "only" {
		t.Errorf("picked = %+v, want the unfiltered track", picked)
	}
}

func TestRandomTrackByGenreAndYear(t *testing.T) {
	var queries []string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		if q == `genre:"jazz" year:2023` {
			writeTracks(w, []Track{properTrack("j1", "Jazz Album")})
			return
		}
		writeTracks(w, nil)
	})

	c := newTestClient(t, mux)
	track, err := c.RandomTrackByGenreAndYear(context.Background(), "jazz", "2023")
	if err != nil {
		t.Fatalf("RandomTrackByGenreAndYear() error = %v", err)
	}
	if track == nil || track.ID != "j1" {
		t.Errorf("track = %+v", track)
	}
	if len(queries) != 1 {
		t.Errorf("queries = %v, want only the genre+year search", queries)
	}
}

func TestRandomTrackDegradesThroughStrategies(t *testing.T) {
	var queries []string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		if q == "jazz" {
			writeTracks(w, []Track{properTrack("kw1", "Album")})
			return
		}
		writeTracks(w, nil)
	})

	c := newTestClient(t, mux)
	track, err := c.RandomTrackByGenreAndYear(context.Background(), "jazz", "1890")
	if err != nil {
		t.Fatalf("RandomTrackByGenreAndYear() error = %v", err)
	}
	if track == nil || track.ID != "kw1" {
		t.Errorf("track = %+v", track)
	}
	want := []string{`genre:"jazz" year:1890`, `genre:"jazz"`, "jazz"}
	if len(queries) != len(want) {
		t.Fatalf("queries = %v, want %v", queries, want)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("queries[%d] = %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestRandomTrackNothingFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		writeTracks(w, nil)
	})

	c := newTestClient(t, mux)
	track, err := c.RandomTrackByGenreAndYear(context.Background(), "obscure", "2023")
	if err != nil {
		t.Fatalf("RandomTrackByGenreAndYear() error = %v", err)
	}
	if track != nil {
		t.Errorf("track = %+v, want nil", track)
	}
}

func TestGenreAlbumCover(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != `genre:"jazz"` {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("offset"); got != "0" {
			t.Errorf("offset = %q, want 0", got)
		}
		writeTracks(w, []Track{properTrack("j1", "Jazz Album")})
	})

	c := newTestClient(t, mux)
	cover, err := c.GenreAlbumCover(context.Background(), "jazz")
	if err != nil {
		t.Fatalf("GenreAlbumCover() error = %v", err)
	}
	if cover != "https://img.example/j1" {
		t.Errorf("cover = %q", cover)
	}
}

func TestGenreAlbumCoverKPopUsesKeyword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "k-pop" {
			t.Errorf("q = %q, want k-pop keyword", got)
		}
		writeTracks(w, []Track{properTrack("k1", "Idol Album")})
	})

	c := newTestClient(t, mux)
	cover, err := c.GenreAlbumCover(context.Background(), "k-pop")
	if err != nil {
		t.Fatalf("GenreAlbumCover() error = %v", err)
	}
	if cover != "https://img.example/k1" {
		t.Errorf("cover = %q", cover)
	}
}

func TestGenreAlbumCoverNoUsableArt(t *testing.T) {
	noArt := properTrack("n1", "Album")
	noArt.Album.Images = nil

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		writeTracks(w, []Track{noArt})
	})

	c := newTestClient(t, mux)
	cover, err := c.GenreAlbumCover(context.Background(), "jazz")
	if err != nil {
		t.Fatalf("GenreAlbumCover() error = %v", err)
	}
	if cover != "" {
		t.Errorf("cover = %q, want empty", cover)
	}
}
