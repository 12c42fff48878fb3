package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crossfade/types"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	// ErrNoDestination means neither a playlist name nor the liked-tracks
	// flag was supplied, so there is nowhere to put matched tracks.
	ErrNoDestination = errors.New("no destination playlist name and liked tracks not requested")
	// ErrEmptyPlaylist means the source yielded zero tracks.
	ErrEmptyPlaylist = errors.New("source playlist has no tracks")
)

// PlaylistCreator is the destination playlist-creation boundary.
type PlaylistCreator interface {
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)
}

// TrackSource supplies the ordered source track list for one transfer.
// Fetching happens inside the background run, so an unfetchable source
// surfaces as a task error rather than a request error.
type TrackSource interface {
	FetchTracks(ctx context.Context) ([]types.SourceTrack, error)
}

// SourceFunc adapts a plain function to TrackSource.
type SourceFunc func(ctx context.Context) ([]types.SourceTrack, error)

func (f SourceFunc) FetchTracks(ctx context.Context) ([]types.SourceTrack, error) {
	return f(ctx)
}

// StaticSource wraps an already-materialized track list, e.g. from an
// uploaded CSV export.
func StaticSource(tracks []types.SourceTrack) TrackSource {
	return SourceFunc(func(context.Context) ([]types.SourceTrack, error) {
		return tracks, nil
	})
}

// TransferRequest is a resolved, already-validated transfer order.
type TransferRequest struct {
	Source      TrackSource
	Name        string
	Description string
	Public      bool
	IsLikes     bool
}

// TransferService orchestrates transfer runs: one independent background
// run per task id, reporting every state change through the registry.
type TransferService struct {
	registry *TaskRegistry
	matcher  *TrackMatcher
	mutator  DestinationMutator
	creator  PlaylistCreator
	metrics  *Metrics
	logger   *log.Logger
}

// NewTransferService wires the orchestrator to its collaborators.
func NewTransferService(registry *TaskRegistry, matcher *TrackMatcher, mutator DestinationMutator, creator PlaylistCreator, metrics *Metrics, logger *log.Logger) *TransferService {
	return &TransferService{
		registry: registry,
		matcher:  matcher,
		mutator:  mutator,
		creator:  creator,
		metrics:  metrics,
		logger:   logger,
	}
}

// newTaskID builds a process-unique, opaque task id.
func newTaskID() string {
	return fmt.Sprintf("task_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Start registers a new task and launches its transfer run in the
// background. The caller gets the task id immediately and never waits on
// the run itself.
func (s *TransferService) Start(req TransferRequest) string {
	taskID := newTaskID()
	s.registry.CreateTask(taskID)
	s.metrics.TransfersStarted.Inc()

	go s.run(context.Background(), taskID, req)

	return taskID
}

// run executes one transfer to completion or failure. Panics inside the
// run are recovered and reported as a task error so a background failure
// is never silently lost.
func (s *TransferService) run(ctx context.Context, taskID string, req TransferRequest) {
	var missing []string

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during transfer", "taskId", taskID, "panic", r)
			s.metrics.TransfersFailed.Inc()
			s.registry.Apply(taskID, Failed{Missing: missing})
		}
	}()

	start := time.Now()

	missing, err := s.transfer(ctx, taskID, req)
	if err != nil {
		s.logger.Error("transfer failed", "taskId", taskID, "err", err)
		s.metrics.TransfersFailed.Inc()
		s.registry.Apply(taskID, Failed{Missing: missing})
		return
	}

	s.metrics.TransfersCompleted.Inc()
	s.registry.Apply(taskID, Completed{Elapsed: time.Since(start), Missing: missing})
	s.logger.Info("transfer completed", "taskId", taskID, "missing", len(missing), "took", time.Since(start))
}

// transfer performs the per-track loop and returns the accumulated
// missing-track list. Any returned error translates into the error
// status; tracks flushed before the failure stay on the destination side.
func (s *TransferService) transfer(ctx context.Context, taskID string, req TransferRequest) ([]string, error) {
	mode := types.ModePlaylist
	if req.IsLikes {
		mode = types.ModeLikedTracks
	}

	collectionID, err := s.resolveCollection(ctx, req)
	if err != nil {
		return nil, err
	}
	s.registry.Apply(taskID, CollectionResolved{ID: collectionID})

	tracks, err := req.Source.FetchTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrEmptyPlaylist
	}

	s.registry.Apply(taskID, Started{TotalSongs: len(tracks)})

	uploader := NewBatchUploader(s.mutator, mode, collectionID)
	var missing []string

	for i, track := range tracks {
		result, err := s.matcher.Match(ctx, track, mode)
		if err != nil {
			return missing, fmt.Errorf("search failed for %q: %w", track.Label(), err)
		}

		if result.Found() {
			if err := uploader.Add(ctx, result.ID); err != nil {
				return missing, err
			}
			s.metrics.TracksMatched.Inc()
		} else {
			s.logger.Warn("track not found on Spotify", "track", result.Missing)
			s.metrics.TracksMissing.Inc()
			missing = append(missing, result.Missing)
		}

		s.registry.Apply(taskID, Progress{Index: i, Label: track.Label()})
	}

	if err := uploader.FlushRemaining(ctx); err != nil {
		return missing, err
	}

	return missing, nil
}

// resolveCollection decides where matched tracks go: the liked-tracks
// sentinel, a freshly created playlist, or a caller error when neither a
// name nor the liked flag was supplied.
func (s *TransferService) resolveCollection(ctx context.Context, req TransferRequest) (string, error) {
	if req.IsLikes {
		return types.LikedTracksID, nil
	}
	if req.Name == "" {
		return "", ErrNoDestination
	}

	playlistID, err := s.creator.CreatePlaylist(ctx, req.Name, req.Description, req.Public)
	if err != nil {
		return "", fmt.Errorf("failed to create playlist %q: %w", req.Name, err)
	}

	s.logger.Info("created Spotify playlist", "name", req.Name, "playlistId", playlistID)
	return playlistID, nil
}
