package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"crossfade/types"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// parenthesized matches any "(...)" group plus surrounding whitespace,
// e.g. the "(Remastered)" suffix that often breaks exact search.
var parenthesized = regexp.MustCompile(`\s*\(.*?\)\s*`)

// SearchResult is one track returned by the destination catalog search.
// ID and URI address the same logical track in two different identifier
// spaces and must not be conflated.
type SearchResult struct {
	ID  string
	URI string
}

// TrackSearcher is the destination search boundary consumed by the matcher.
type TrackSearcher interface {
	SearchTrack(ctx context.Context, query string) ([]SearchResult, error)
}

// MatchCache is an optional lookaside store of previously resolved
// matches keyed by track, artist and destination mode.
type MatchCache interface {
	Get(trackName, artistName string, mode types.DestinationMode) (string, bool)
	Put(trackName, artistName string, mode types.DestinationMode, id string) error
}

// MatchResult is the outcome of matching one source track: either the
// destination identifier for the requested mode, or the display label of
// a track that could not be found.
type MatchResult struct {
	ID      string
	Missing string
}

// Found reports whether a destination identifier was resolved.
func (r MatchResult) Found() bool {
	return r.ID != ""
}

// TrackMatcher resolves source tracks to Spotify identifiers by fuzzy
// text search. Stateless apart from the shared rate limiter and cache.
type TrackMatcher struct {
	searcher TrackSearcher
	cache    MatchCache
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewTrackMatcher creates a matcher issuing at most ratePerSec search
// calls per second. cache may be nil.
func NewTrackMatcher(searcher TrackSearcher, cache MatchCache, ratePerSec float64, logger *log.Logger) *TrackMatcher {
	return &TrackMatcher{
		searcher: searcher,
		cache:    cache,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:   logger,
	}
}

// Match resolves one source track. The primary query carries track name,
// artist and album (when present); if it yields nothing, exactly one
// retry is made with parenthesized content stripped from the track name
// and the album dropped. Search transport errors propagate to the caller
// and are never reported as "not found".
func (m *TrackMatcher) Match(ctx context.Context, track types.SourceTrack, mode types.DestinationMode) (MatchResult, error) {
	if m.cache != nil {
		if id, ok := m.cache.Get(track.TrackName, track.ArtistName, mode); ok {
			return MatchResult{ID: id}, nil
		}
	}

	items, err := m.search(ctx, BuildQuery(track.TrackName, track.ArtistName, track.AlbumName))
	if err != nil {
		return MatchResult{}, err
	}

	if len(items) == 0 {
		clean := strings.TrimSpace(parenthesized.ReplaceAllString(track.TrackName, ""))
		items, err = m.search(ctx, BuildQuery(clean, track.ArtistName, ""))
		if err != nil {
			return MatchResult{}, err
		}
	}

	if len(items) == 0 {
		return MatchResult{Missing: track.Label()}, nil
	}

	// First item only; ranking is left to the catalog's own relevance order.
	id := items[0].URI
	if mode == types.ModeLikedTracks {
		id = items[0].ID
	}

	if m.cache != nil {
		if err := m.cache.Put(track.TrackName, track.ArtistName, mode, id); err != nil {
			m.logger.Warn("failed to cache match", "track", track.Label(), "err", err)
		}
	}

	return MatchResult{ID: id}, nil
}

func (m *TrackMatcher) search(ctx context.Context, query string) ([]SearchResult, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return m.searcher.SearchTrack(ctx, query)
}

// BuildQuery assembles Spotify's structured field-filter query.
func BuildQuery(trackName, artistName, albumName string) string {
	query := fmt.Sprintf("track:%s", strings.TrimSpace(trackName))
	if artistName != "" {
		query += fmt.Sprintf(" artist:%s", strings.TrimSpace(artistName))
	}
	if albumName != "" {
		query += fmt.Sprintf(" album:%s", strings.TrimSpace(albumName))
	}
	return query
}
