package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"crossfade/services"

	"golang.org/x/oauth2"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
	baseURL  = "https://api.spotify.com/v1"

	// maxPlaylistAdd is the add-to-playlist endpoint cap.
	maxPlaylistAdd = 100
	// maxLikedAdd is the saved-tracks endpoint cap.
	maxLikedAdd = 50
)

// ErrNotAuthenticated means no user token has been obtained yet; the
// caller must complete the OAuth flow first.
var ErrNotAuthenticated = errors.New("not authenticated with Spotify")

// Client talks to the Spotify Web API on behalf of one authenticated
// user. The OAuth2 token is exchanged through the login/callback dance
// and refreshed automatically by the oauth2 transport.
type Client struct {
	config *oauth2.Config

	mu         sync.RWMutex
	httpClient *http.Client
	apiURL     string
}

// NewClient creates an unauthenticated client. apiURL may be empty to
// target the real Web API.
func NewClient(clientID, clientSecret, redirectURL, apiURL string) *Client {
	if apiURL == "" {
		apiURL = baseURL
	}
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
			"user-library-modify",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
	return &Client{config: config, apiURL: apiURL}
}

// AuthURL returns the authorization URL to send the user to.
func (c *Client) AuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and installs the
// auto-refreshing HTTP client.
func (c *Client) Exchange(ctx context.Context, code string) error {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	c.mu.Lock()
	c.httpClient = c.config.Client(context.Background(), token)
	c.mu.Unlock()
	return nil
}

// SetToken installs a token directly, bypassing the code exchange. Used
// by tests and by deployments that manage tokens externally.
func (c *Client) SetToken(token *oauth2.Token) {
	c.mu.Lock()
	c.httpClient = c.config.Client(context.Background(), token)
	c.mu.Unlock()
}

// Authenticated reports whether a user token is installed.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.httpClient != nil
}

// doRequest performs one authenticated API call, optionally sending a
// JSON body and decoding a JSON response.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	c.mu.RLock()
	client := c.httpClient
	c.mu.RUnlock()

	if client == nil {
		return ErrNotAuthenticated
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("spotify API error: status %d: %s", resp.StatusCode, string(excerpt))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchTrack issues a track-restricted search for the given structured
// query, requesting exactly one result.
func (c *Client) SearchTrack(ctx context.Context, query string) ([]services.SearchResult, error) {
	params := url.Values{
		"q":      {query},
		"type":   {"track"},
		"market": {"FR"},
		"limit":  {"1"},
	}

	var response SearchResponse
	if err := c.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	results := make([]services.SearchResult, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		results = append(results, services.SearchResult{ID: item.ID, URI: item.URI})
	}
	return results, nil
}

// CreatePlaylist creates a playlist owned by the authenticated user and
// returns its id.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return "", err
	}

	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var playlist Playlist
	endpoint := fmt.Sprintf("/users/%s/playlists", user.ID)
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return "", err
	}

	return playlist.ID, nil
}

// AddToPlaylist appends up to 100 track URIs to a playlist, in order.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	if playlistID == "" {
		return errors.New("playlist ID is required")
	}
	if len(uris) == 0 {
		return errors.New("no track URIs provided")
	}
	if len(uris) > maxPlaylistAdd {
		return fmt.Errorf("maximum %d track URIs allowed, got %d", maxPlaylistAdd, len(uris))
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	return c.doRequest(ctx, http.MethodPost, endpoint, map[string]any{"uris": uris}, nil)
}

// AddToLikedTracks saves up to 50 track IDs to the user's liked songs.
func (c *Client) AddToLikedTracks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.New("no track IDs provided")
	}
	if len(ids) > maxLikedAdd {
		return fmt.Errorf("maximum %d track IDs allowed, got %d", maxLikedAdd, len(ids))
	}

	return c.doRequest(ctx, http.MethodPut, "/me/tracks", map[string]any{"ids": ids}, nil)
}
