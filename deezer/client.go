package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crossfade/types"
)

const defaultBaseURL = "https://api.deezer.com"

// pageLimit is the maximum page size the public API accepts.
const pageLimit = 2000

// Client reads public playlists from the Deezer API. No authentication is
// required for public playlist reads.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Deezer client. baseURL may be empty to use the
// public API endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type trackPage struct {
	Data []struct {
		Title  string `json:"title"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album struct {
			Title string `json:"title"`
		} `json:"album"`
	} `json:"data"`
	Total int    `json:"total"`
	Next  string `json:"next"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// PlaylistTracks fetches the full ordered track list of a public
// playlist, following pagination links until exhausted.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]types.SourceTrack, error) {
	url := fmt.Sprintf("%s/playlist/%s/tracks?output=json&limit=%d", c.baseURL, playlistID, pageLimit)

	var tracks []types.SourceTrack
	for url != "" {
		page, err := c.fetchPage(ctx, url)
		if err != nil {
			return nil, err
		}
		if page.Error != nil {
			return nil, fmt.Errorf("deezer API error %d: %s", page.Error.Code, page.Error.Message)
		}

		for _, item := range page.Data {
			tracks = append(tracks, types.SourceTrack{
				TrackName:  item.Title,
				ArtistName: item.Artist.Name,
				AlbumName:  item.Album.Title,
			})
		}

		url = page.Next
	}

	return tracks, nil
}

func (c *Client) fetchPage(ctx context.Context, url string) (*trackPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("deezer returned status %d: %s", resp.StatusCode, string(body))
	}

	var page trackPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode playlist page: %w", err)
	}

	return &page, nil
}
