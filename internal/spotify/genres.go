package spotify

import (
	"context"
	"log"
	"slices"
)

// fallbackGenreSeeds is the known-valid seed list served when the live
// genre-seeds endpoint is unavailable. Kept in sync with the last list the
// endpoint returned before it was deprecated for client-credentials tiers.
var fallbackGenreSeeds = []string{
	"acoustic", "afrobeat", "alt-rock", "alternative", "ambient", "anime", "black-metal", "bluegrass", "blues", "bossanova",
	"brazil", "breakbeat", "british", "cantopop", "chicago-house", "children", "chill", "classical", "club", "comedy",
	"country", "dance", "dancehall", "death-metal", "deep-house", "disco", "disney", "drum-and-bass", "dub", "dubstep",
	"edm", "electro", "electronic", "emo", "folk", "forro", "french", "funk", "garage", "german",
	"gospel", "goth", "grindcore", "groove", "grunge", "guitar", "happy", "hard-rock", "hardcore", "hardstyle",
	"heavy-metal", "hip-hop", "holidays", "honky-tonk", "house", "idm", "indian", "indie", "indie-pop", "industrial",
	"iranian", "j-dance", "j-idol", "j-pop", "j-rock", "jazz", "k-pop", "kids", "latin", "latino",
	"malay", "mandopop", "metal", "metal-misc", "metalcore", "minimal-techno", "movies", "mpb", "new-age", "new-release",
	"opera", "pagode", "party", "philippines-opm", "piano", "pop", "pop-film", "post-dubstep", "power-pop", "progressive-house",
	"psych-rock", "punk", "punk-rock", "r-n-b", "rainy-day", "reggae", "reggaeton", "road-trip", "rock", "rock-n-roll",
	"rockabilly", "romance", "sad", "salsa", "samba", "sertanejo", "show-tunes", "singer-songwriter", "ska", "sleep",
	"songwriter", "soul", "soundtracks", "spanish", "study", "summer", "swedish", "synth-pop", "tango", "techno",
	"trance", "trip-hop", "turkish", "work-out", "world-music",
}

// GenreSeeds fetches the valid genre seed tokens for recommendation queries.
// When the live endpoint is unavailable the fixed fallback list is returned
// instead, so genre pickers stay populated. The fallback is deterministic:
// repeated calls return the same list.
func (c *Client) GenreSeeds(ctx context.Context) ([]string, error) {
	var resp genreSeedsResponse
	if err := c.get(ctx, "/recommendations/available-genre-seeds", nil, &resp); err != nil {
		log.Printf("spotify: genre-seeds endpoint failed, using fallback list: %v", err)
		return slices.Clone(fallbackGenreSeeds), nil
	}
	return resp.Genres, nil
}
