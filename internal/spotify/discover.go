package spotify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// coverCutoffYear excludes releases older than this from genre cover picks.
const coverCutoffYear = 2010

// randomOffsetBound bounds the random pagination offset used to diversify
// results across calls.
const randomOffsetBound = 50

// genreQuery builds the search query for a genre tag. The k-pop tag search
// is unreliable on the catalog side, so it uses a bare keyword query.
func genreQuery(genre string) string {
	if strings.EqualFold(genre, "k-pop") {
		return "k-pop"
	}
	return fmt.Sprintf("genre:%q", genre)
}

// RandomTrackByGenreAndYear picks a random track matching a genre and year.
// Year may be a single year ("2023") or a range ("2010-2019"). The search
// degrades through three queries: genre+year, genre only, bare keyword.
// Returns (nil, nil) when no track is found at all.
func (c *Client) RandomTrackByGenreAndYear(ctx context.Context, genre, year string) (*Track, error) {
	base := genreQuery(genre)

	tracks, err := c.firstNonEmpty(ctx, []searchStrategy{
		{name: "genre+year", query: base + " year:" + year, limit: 20, offset: c.intn(randomOffsetBound)},
		{name: "genre", query: base, limit: 50, offset: c.intn(randomOffsetBound)},
		{name: "keyword", query: genre, limit: 50, offset: c.intn(randomOffsetBound)},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearch, err)
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	return c.pickRandomTrack(tracks), nil
}

// pickRandomTrack picks uniformly at random, preferring tracks on proper
// releases: no compilations, no Various Artists, album art present. When the
// filter empties the pool the unfiltered list is used instead of failing.
func (c *Client) pickRandomTrack(tracks []Track) *Track {
	var valid []Track
	for _, t := range tracks {
		if t.Album.AlbumType != "album" && t.Album.AlbumType != "single" {
			continue
		}
		if len(t.Album.Artists) > 0 && t.Album.Artists[0].Name == "Various Artists" {
			continue
		}
		if len(t.Album.Images) == 0 {
			continue
		}
		valid = append(valid, t)
	}

	pool := valid
	if len(pool) == 0 {
		pool = tracks
	}
	track := pool[c.intn(len(pool))]
	return &track
}

// GenreAlbumCover picks a random album cover URL for a genre, restricted to
// albums and singles with art and excluding compilation-style titles. Two
// alternating result pages (offset 0 or 50) vary the output over repeated
// calls for the same genre. Returns ("", nil) when nothing usable is found.
func (c *Client) GenreAlbumCover(ctx context.Context, genre string) (string, error) {
	offset := 0
	if c.intn(2) == 1 {
		offset = 50
	}

	var tracks []Track
	var err error
	if strings.EqualFold(genre, "k-pop") {
		// Keyword search directly; the genre tag search is unreliable here.
		tracks, err = c.searchTrackPage(ctx, "k-pop", 50, offset)
	} else {
		tracks, err = c.firstNonEmpty(ctx, []searchStrategy{
			{name: "genre-tag", query: fmt.Sprintf("genre:%q", genre), limit: 50, offset: offset},
			{name: "keyword", query: genre, limit: 50, offset: offset},
		})
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSearch, err)
	}
	if len(tracks) == 0 {
		return "", nil
	}

	var valid []Track
	for _, t := range tracks {
		if !isValidCoverTrack(t, genre) {
			continue
		}
		valid = append(valid, t)
	}

	pool := valid
	if len(pool) == 0 {
		pool = tracks
	}

	track := pool[c.intn(len(pool))]
	if len(track.Album.Images) == 0 {
		return "", nil
	}
	return track.Album.Images[0].URL, nil
}

// isValidCoverTrack reports whether a track's album is suitable as a genre
// cover: a recent album or single with art, not a compilation-style release.
func isValidCoverTrack(t Track, genre string) bool {
	if len(t.Album.Images) == 0 {
		return false
	}
	if t.Album.AlbumType != "album" && t.Album.AlbumType != "single" {
		return false
	}
	if len(t.Album.Artists) > 0 && t.Album.Artists[0].Name == "Various Artists" {
		return false
	}

	name := strings.ToLower(t.Album.Name)
	if strings.Contains(name, "best of") || strings.Contains(name, "greatest hits") || strings.Contains(name, "playlist") {
		return false
	}

	// The track literally named "K-POP" shows up for the k-pop genre and is
	// not representative of it.
	if strings.EqualFold(genre, "k-pop") && strings.EqualFold(t.Name, "k-pop") {
		return false
	}

	return releaseYear(t.Album.ReleaseDate) >= coverCutoffYear
}

// releaseYear parses the leading year of a release date ("2016-03-25",
// "2016-03" or "2016"). Unparseable dates yield 0.
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
