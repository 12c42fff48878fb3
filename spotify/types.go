// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

// User represents the authenticated Spotify user profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Track represents a Spotify track. ID and URI address the same track in
// different identifier spaces.
type Track struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// SearchResponse is the track-restricted search result envelope.
type SearchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
		Total int     `json:"total"`
	} `json:"tracks"`
}

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URI    string `json:"uri"`
	Public bool   `json:"public"`
}

// SnapshotResponse acknowledges a playlist mutation.
type SnapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}
