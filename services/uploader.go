package services

import (
	"context"
	"errors"
	"fmt"

	"crossfade/types"
)

const (
	// playlistFlushThreshold leaves margin below Spotify's 100-item cap
	// on the add-to-playlist endpoint.
	playlistFlushThreshold = 90
	// likedFlushThreshold equals the saved-tracks endpoint cap, which is
	// stricter than the playlist one.
	likedFlushThreshold = 50

	maxLikedBatch = 50
)

// ErrBatchTooLarge signals a client-side usage error: a liked-tracks
// flush was attempted with more identifiers than the endpoint accepts.
// This is a contract violation, not a transient failure, and is never
// retried.
var ErrBatchTooLarge = errors.New("liked-tracks batch exceeds 50 items")

// DestinationMutator is the Spotify mutation boundary consumed by the
// uploader.
type DestinationMutator interface {
	AddToPlaylist(ctx context.Context, playlistID string, uris []string) error
	AddToLikedTracks(ctx context.Context, ids []string) error
}

// BatchUploader accumulates destination identifiers and flushes them in
// bounded batches. One uploader serves one transfer run; the in-flight
// batch lives only in memory and is cleared after each successful flush.
// A failed flush may leave a prefix of the batch applied on the
// destination side; nothing is rolled back.
type BatchUploader struct {
	mutator      DestinationMutator
	mode         types.DestinationMode
	collectionID string
	threshold    int
	batch        []string
}

// NewBatchUploader creates an uploader targeting either the given
// playlist or, in liked mode, the user's saved tracks. The flush
// threshold is chosen per destination mode since the two mutation
// endpoints enforce different caps.
func NewBatchUploader(mutator DestinationMutator, mode types.DestinationMode, collectionID string) *BatchUploader {
	threshold := playlistFlushThreshold
	if mode == types.ModeLikedTracks {
		threshold = likedFlushThreshold
	}
	return &BatchUploader{
		mutator:      mutator,
		mode:         mode,
		collectionID: collectionID,
		threshold:    threshold,
	}
}

// Add appends one identifier to the in-flight batch, flushing
// synchronously when the batch reaches the threshold.
func (u *BatchUploader) Add(ctx context.Context, id string) error {
	u.batch = append(u.batch, id)
	if len(u.batch) >= u.threshold {
		return u.flush(ctx)
	}
	return nil
}

// FlushRemaining submits whatever is left in the batch. Called once after
// the source track list is exhausted.
func (u *BatchUploader) FlushRemaining(ctx context.Context) error {
	if len(u.batch) == 0 {
		return nil
	}
	return u.flush(ctx)
}

func (u *BatchUploader) flush(ctx context.Context) error {
	if u.mode == types.ModeLikedTracks {
		if len(u.batch) > maxLikedBatch {
			return fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(u.batch))
		}
		if err := u.mutator.AddToLikedTracks(ctx, u.batch); err != nil {
			return fmt.Errorf("failed to save tracks: %w", err)
		}
	} else {
		if err := u.mutator.AddToPlaylist(ctx, u.collectionID, u.batch); err != nil {
			return fmt.Errorf("failed to add tracks to playlist %s: %w", u.collectionID, err)
		}
	}

	u.batch = u.batch[:0]
	return nil
}
