package types

// SourceTrack is one track from the source catalog, not yet resolved to
// any Spotify identifier. Album is advisory and may be empty.
type SourceTrack struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName,omitempty"`
}

// Label returns the display string used for progress reporting and for
// the missing-tracks list.
func (t SourceTrack) Label() string {
	return t.TrackName + " - " + t.ArtistName
}

// SourcePlaylist is a parsed playlist: its display name plus the ordered
// track list.
type SourcePlaylist struct {
	PlaylistName string        `json:"playlistName"`
	Tracks       []SourceTrack `json:"tracks"`
}
