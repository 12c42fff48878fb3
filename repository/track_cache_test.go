package repository

import (
	"io"
	"path/filepath"
	"testing"

	"crossfade/types"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *TrackCache {
	t.Helper()
	cache, err := OpenTrackCache(filepath.Join(t.TempDir(), "nested", "cache.db"), log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestTrackCachePutGet(t *testing.T) {
	cache := openTestCache(t)

	_, ok := cache.Get("Nightcall", "Kavinsky", types.ModePlaylist)
	assert.False(t, ok)

	require.NoError(t, cache.Put("Nightcall", "Kavinsky", types.ModePlaylist, "spotify:track:abc"))

	id, ok := cache.Get("Nightcall", "Kavinsky", types.ModePlaylist)
	require.True(t, ok)
	assert.Equal(t, "spotify:track:abc", id)
}

func TestTrackCacheModesAreIndependent(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("Nightcall", "Kavinsky", types.ModePlaylist, "spotify:track:abc"))

	_, ok := cache.Get("Nightcall", "Kavinsky", types.ModeLikedTracks)
	assert.False(t, ok, "playlist-mode entries must not answer liked-mode lookups")

	require.NoError(t, cache.Put("Nightcall", "Kavinsky", types.ModeLikedTracks, "abc"))
	id, ok := cache.Get("Nightcall", "Kavinsky", types.ModeLikedTracks)
	require.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestTrackCacheDuplicatePutKeepsFirst(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Put("Song", "Artist", types.ModePlaylist, "first"))
	require.NoError(t, cache.Put("Song", "Artist", types.ModePlaylist, "second"))

	id, ok := cache.Get("Song", "Artist", types.ModePlaylist)
	require.True(t, ok)
	assert.Equal(t, "first", id)
}
