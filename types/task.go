package types

// TaskStatus represents the lifecycle state of a transfer task
type TaskStatus string

const (
	TaskStatusPending      TaskStatus = "pending"
	TaskStatusTransferring TaskStatus = "transferring"
	TaskStatusCompleted    TaskStatus = "completed"
	TaskStatusError        TaskStatus = "error"
)

// IsTerminal reports whether no further updates can follow this status
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// DestinationMode selects where matched tracks end up on Spotify
type DestinationMode int

const (
	// ModePlaylist appends track URIs to a named playlist
	ModePlaylist DestinationMode = iota
	// ModeLikedTracks saves bare track IDs to the user's liked songs
	ModeLikedTracks
)

// LikedTracksID is the sentinel collection identifier used when the
// destination is the user's liked songs rather than a real playlist.
const LikedTracksID = "Liked Tracks"

// TaskSnapshot is the serialized view of a transfer task pushed to
// progress subscribers on every state change. Field names match what the
// browser client consumes.
type TaskSnapshot struct {
	TaskID            string     `json:"taskId"`
	Status            TaskStatus `json:"status"`
	Percentage        int        `json:"percentage"`
	CurrentSong       int        `json:"currentSong"`
	TotalSongs        int        `json:"totalSongs"`
	SongName          string     `json:"songName,omitempty"`
	SpotifyPlaylistID string     `json:"spotifyPlaylistId,omitempty"`
	MissingTracks     []string   `json:"missingTracks,omitempty"`
	TimeTaken         string     `json:"timeTaken,omitempty"`
}
