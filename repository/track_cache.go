// package repository provides the sqlite-backed persistence layer.
package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"crossfade/types"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS track_matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	track_name TEXT NOT NULL,
	artist_name TEXT NOT NULL,
	mode INTEGER NOT NULL,
	spotify_id TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(track_name, artist_name, mode)
);
`

// TrackCache is a lookaside store of resolved track matches. Repeated
// transfers of overlapping playlists skip the search round-trip for
// tracks already seen. Matches are keyed per destination mode because the
// two modes use different identifier spaces.
type TrackCache struct {
	db     *sql.DB
	logger *log.Logger
}

// OpenTrackCache opens (creating if needed) the cache database at path.
func OpenTrackCache(path string, logger *log.Logger) (*TrackCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}

	return &TrackCache{db: db, logger: logger}, nil
}

// Get looks up a previously resolved identifier. Lookup failures are
// logged and reported as cache misses so a broken cache never fails a
// transfer.
func (c *TrackCache) Get(trackName, artistName string, mode types.DestinationMode) (string, bool) {
	var id string
	err := c.db.QueryRow(
		`SELECT spotify_id FROM track_matches WHERE track_name = ? AND artist_name = ? AND mode = ?`,
		trackName, artistName, int(mode),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		c.logger.Warn("track cache lookup failed", "track", trackName, "err", err)
		return "", false
	}
	return id, true
}

// Put stores a resolved match. Duplicate entries are ignored.
func (c *TrackCache) Put(trackName, artistName string, mode types.DestinationMode, id string) error {
	_, err := c.db.Exec(
		`INSERT OR IGNORE INTO track_matches (track_name, artist_name, mode, spotify_id) VALUES (?, ?, ?, ?)`,
		trackName, artistName, int(mode), id,
	)
	if err != nil {
		return fmt.Errorf("failed to cache match: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *TrackCache) Close() error {
	return c.db.Close()
}
