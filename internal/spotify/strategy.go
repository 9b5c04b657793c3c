package spotify

import (
	"context"
	"log"
)

// searchStrategy is one step in an ordered fallback chain of search queries.
type searchStrategy struct {
	name   string
	query  string
	limit  int
	offset int
}

// firstNonEmpty runs strategies in order and returns the first non-empty
// track page. Failed strategies are logged and skipped. Returns (nil, nil)
// when every strategy succeeds but yields nothing, and the last error when
// every strategy fails outright.
func (c *Client) firstNonEmpty(ctx context.Context, strategies []searchStrategy) ([]Track, error) {
	var lastErr error
	for _, s := range strategies {
		tracks, err := c.searchTrackPage(ctx, s.query, s.limit, s.offset)
		if err != nil {
			log.Printf("spotify: %s search failed: %v", s.name, err)
			lastErr = err
			continue
		}
		if len(tracks) > 0 {
			return tracks, nil
		}
		lastErr = nil
	}
	return nil, lastErr
}
