package deezer

import (
	"strings"

	"crossfade/types"

	"github.com/charmbracelet/log"
)

// minCSVColumns is how many columns a well-formed Deezer export row has
// at minimum; shorter rows are skipped.
const minCSVColumns = 7

// ParseCSV parses a Deezer playlist export. The first line is assumed to
// be the header and skipped; each data row is
// title,artist,album,playlistName,... with values optionally quoted. Rows
// that are malformed or have no title are skipped. Returns nil when the
// file contains no usable tracks.
func ParseCSV(content string, logger *log.Logger) *types.SourcePlaylist {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) <= 1 {
		return nil
	}

	dataLines := lines[1:]
	playlistName := csvField(dataLines[0], 3)

	var tracks []types.SourceTrack
	for _, line := range dataLines {
		values := strings.Split(line, ",")
		if len(values) < minCSVColumns {
			logger.Warn("skipping malformed CSV line", "line", line)
			continue
		}

		track := types.SourceTrack{
			TrackName:  unquote(values[0]),
			ArtistName: unquote(values[1]),
			AlbumName:  unquote(values[2]),
		}

		if track.TrackName != "" {
			tracks = append(tracks, track)
		}
	}

	if len(tracks) == 0 {
		return nil
	}

	return &types.SourcePlaylist{
		PlaylistName: playlistName,
		Tracks:       tracks,
	}
}

func csvField(line string, index int) string {
	values := strings.Split(line, ",")
	if index >= len(values) {
		return ""
	}
	return unquote(values[index])
}

func unquote(value string) string {
	return strings.ReplaceAll(strings.TrimSpace(value), `"`, "")
}
