package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"crossfade/types"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	results map[string][]SearchResult
	err     error
	queries []string
}

func (s *stubSearcher) SearchTrack(ctx context.Context, query string) ([]SearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

type memoryCache struct {
	entries map[string]string
	putErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) key(trackName, artistName string, mode types.DestinationMode) string {
	return trackName + "|" + artistName + "|" + string(rune('0'+int(mode)))
}

func (c *memoryCache) Get(trackName, artistName string, mode types.DestinationMode) (string, bool) {
	id, ok := c.entries[c.key(trackName, artistName, mode)]
	return id, ok
}

func (c *memoryCache) Put(trackName, artistName string, mode types.DestinationMode, id string) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[c.key(trackName, artistName, mode)] = id
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestMatcher(searcher TrackSearcher, cache MatchCache) *TrackMatcher {
	return NewTrackMatcher(searcher, cache, 1000, testLogger())
}

func TestMatcherPrimaryQuery(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]SearchResult{
		"track:Nightcall artist:Kavinsky album:OutRun": {{ID: "id1", URI: "spotify:track:id1"}},
	}}

	matcher := newTestMatcher(searcher, nil)
	track := types.SourceTrack{TrackName: "Nightcall", ArtistName: "Kavinsky", AlbumName: "OutRun"}

	result, err := matcher.Match(context.Background(), track, types.ModePlaylist)
	require.NoError(t, err)
	assert.True(t, result.Found())
	assert.Equal(t, "spotify:track:id1", result.ID)
	assert.Len(t, searcher.queries, 1)
}

func TestMatcherIdentifierSpacePerMode(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]SearchResult{
		"track:Nightcall artist:Kavinsky": {{ID: "id1", URI: "spotify:track:id1"}},
	}}

	matcher := newTestMatcher(searcher, nil)
	track := types.SourceTrack{TrackName: "Nightcall", ArtistName: "Kavinsky"}

	result, err := matcher.Match(context.Background(), track, types.ModeLikedTracks)
	require.NoError(t, err)
	assert.Equal(t, "id1", result.ID, "liked mode must use the bare id, not the URI")
}

func TestMatcherRetryStripsParentheses(t *testing.T) {
	// Primary query yields nothing; the cleaned title matches.
	searcher := &stubSearcher{results: map[string][]SearchResult{
		"track:Title artist:Artist": {{ID: "id2", URI: "spotify:track:id2"}},
	}}

	matcher := newTestMatcher(searcher, nil)
	track := types.SourceTrack{TrackName: "Title (Live)", ArtistName: "Artist"}

	result, err := matcher.Match(context.Background(), track, types.ModePlaylist)
	require.NoError(t, err)
	assert.True(t, result.Found())
	assert.Equal(t, "spotify:track:id2", result.ID)

	require.Len(t, searcher.queries, 2)
	assert.Equal(t, "track:Title (Live) artist:Artist", searcher.queries[0])
	assert.Equal(t, "track:Title artist:Artist", searcher.queries[1])
}

func TestMatcherRetryDropsAlbum(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]SearchResult{}}

	matcher := newTestMatcher(searcher, nil)
	track := types.SourceTrack{TrackName: "Song (Remastered)", ArtistName: "Band", AlbumName: "Anthology"}

	result, err := matcher.Match(context.Background(), track, types.ModePlaylist)
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, "Song (Remastered) - Band", result.Missing)

	require.Len(t, searcher.queries, 2)
	assert.Equal(t, "track:Song (Remastered) artist:Band album:Anthology", searcher.queries[0])
	assert.Equal(t, "track:Song artist:Band", searcher.queries[1])
}

func TestMatcherTransportErrorPropagates(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("boom")}

	matcher := newTestMatcher(searcher, nil)
	track := types.SourceTrack{TrackName: "Song", ArtistName: "Band"}

	_, err := matcher.Match(context.Background(), track, types.ModePlaylist)
	require.Error(t, err, "a search failure must never be reported as not found")
}

func TestMatcherCacheHitSkipsSearch(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.Put("Song", "Band", types.ModePlaylist, "spotify:track:cached"))

	searcher := &stubSearcher{}
	matcher := newTestMatcher(searcher, cache)

	result, err := matcher.Match(context.Background(), types.SourceTrack{TrackName: "Song", ArtistName: "Band"}, types.ModePlaylist)
	require.NoError(t, err)
	assert.Equal(t, "spotify:track:cached", result.ID)
	assert.Empty(t, searcher.queries)
}

func TestMatcherStoresMatchInCache(t *testing.T) {
	cache := newMemoryCache()
	searcher := &stubSearcher{results: map[string][]SearchResult{
		"track:Song artist:Band": {{ID: "id3", URI: "spotify:track:id3"}},
	}}

	matcher := newTestMatcher(searcher, cache)

	_, err := matcher.Match(context.Background(), types.SourceTrack{TrackName: "Song", ArtistName: "Band"}, types.ModeLikedTracks)
	require.NoError(t, err)

	id, ok := cache.Get("Song", "Band", types.ModeLikedTracks)
	assert.True(t, ok)
	assert.Equal(t, "id3", id)
}
