package spotify

// Image is an album cover image.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist is a track or album artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is the album a track belongs to.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AlbumType   string   `json:"album_type"`
	ReleaseDate string   `json:"release_date"`
	Artists     []Artist `json:"artists"`
	Images      []Image  `json:"images"`
}

// Track is a catalog track as returned by the search and recommendations
// endpoints. Read-only from this system's perspective.
type Track struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Artists      []Artist `json:"artists"`
	Album        Album    `json:"album"`
	DurationMs   int      `json:"duration_ms"`
	PreviewURL   string   `json:"preview_url"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// AudioFeatures holds the per-track audio analysis values.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Tempo            float64 `json:"tempo"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
}

// searchResponse is the wire shape of GET /search?type=track.
type searchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

// recommendationsResponse is the wire shape of GET /recommendations.
type recommendationsResponse struct {
	Tracks []Track `json:"tracks"`
}

// genreSeedsResponse is the wire shape of GET /recommendations/available-genre-seeds.
type genreSeedsResponse struct {
	Genres []string `json:"genres"`
}
