package types

// StartPlaylistExportRequest is the JSON body accepted by the
// start-playlist-export endpoint.
type StartPlaylistExportRequest struct {
	PlaylistURL string `json:"playlistUrl"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      *bool  `json:"public"`
	IsLikes     bool   `json:"isLikes"`
}

// StartExportResponse carries the task id handed back while the transfer
// runs in the background.
type StartExportResponse struct {
	TaskID string `json:"taskId"`
}

// SearchTrackRequest is the body of the direct track-search passthrough
// endpoint, kept around for testing against the live API.
type SearchTrackRequest struct {
	SongName   string `json:"songName"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName,omitempty"`
}
