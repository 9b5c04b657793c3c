package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"

	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// CurrentlyPlaying returns the track the user is playing right now.
// This call requires a user-scoped bearer token supplied by the caller; the
// application-scoped client-credentials token cannot see player state.
// Returns (nil, nil) when nothing is playing.
func CurrentlyPlaying(ctx context.Context, userToken string) (*spotifyapi.CurrentlyPlaying, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: userToken,
		TokenType:   "Bearer",
	}))
	client := spotifyapi.New(httpClient)

	playing, err := client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		// A 204 with an empty body surfaces as EOF from the decoder.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching currently playing: %w", err)
	}
	if playing == nil || playing.Item == nil {
		return nil, nil
	}
	return playing, nil
}
