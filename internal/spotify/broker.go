// Package spotify provides a Spotify Web API client built on
// application-scoped client-credentials tokens.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultAuthURL is the Spotify client-credentials token endpoint.
	DefaultAuthURL = "https://accounts.spotify.com/api/token"

	// tokenExpiryBuffer is subtracted from the reported token lifetime so a
	// token is never used right at its expiry moment.
	tokenExpiryBuffer = 300 * time.Second
)

// Sentinel errors.
var (
	// ErrNotConfigured is returned when client credentials are not set.
	ErrNotConfigured = errors.New("spotify client credentials not configured")

	// ErrTokenExchange is returned when the client-credentials exchange fails.
	ErrTokenExchange = errors.New("spotify token exchange failed")
)

// Broker acquires and caches a client-credentials bearer token.
// The cached token is held in memory only and shared across all callers of
// one process instance; concurrent refreshes collapse into a single exchange.
type Broker struct {
	clientID     string
	clientSecret string
	authURL      string
	httpClient   *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewBroker creates a Broker for the given application credentials.
func NewBroker(clientID, clientSecret string) *Broker {
	return &Broker{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      DefaultAuthURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Token returns a valid bearer token, performing a client-credentials
// exchange only when no unexpired token is cached.
// Returns ErrNotConfigured when credentials are missing and ErrTokenExchange
// when the exchange itself fails; callers should propagate both immediately
// rather than retry.
func (b *Broker) Token(ctx context.Context) (string, error) {
	if b.clientID == "" || b.clientSecret == "" {
		return "", ErrNotConfigured
	}

	b.mu.Lock()
	if b.token != "" && b.now().Before(b.expiresAt) {
		token := b.token
		b.mu.Unlock()
		return token, nil
	}
	b.mu.Unlock()

	v, err, _ := b.group.Do("token", func() (any, error) {
		return b.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// exchange performs the client-credentials exchange and caches the result.
func (b *Broker) exchange(ctx context.Context) (string, error) {
	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.authURL, body)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrTokenExchange, err)
	}
	req.SetBasicAuth(b.clientID, b.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrTokenExchange, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrTokenExchange, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("%w: parsing response: %v", ErrTokenExchange, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token in response", ErrTokenExchange)
	}

	ttl := time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryBuffer

	b.mu.Lock()
	b.token = payload.AccessToken
	b.expiresAt = b.now().Add(ttl)
	b.mu.Unlock()

	return payload.AccessToken, nil
}
