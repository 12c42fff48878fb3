package services

import (
	"fmt"
	"math"
	"sync"
	"time"

	"crossfade/types"

	"github.com/charmbracelet/log"
)

// subscriberBuffer is the per-observer channel capacity. A full channel
// means the observer stopped draining; the update is dropped for that
// observer only.
const subscriberBuffer = 256

// TaskUpdate is one state transition applied to a transfer task. Using
// explicit variants keeps illegal partial states unrepresentable: each
// variant touches only the fields it owns, everything else is untouched.
type TaskUpdate interface {
	apply(s *types.TaskSnapshot)
}

// Started fixes the track count once the source playlist has been fetched.
type Started struct {
	TotalSongs int
}

func (u Started) apply(s *types.TaskSnapshot) {
	s.TotalSongs = u.TotalSongs
}

// Progress reports one processed track. Index is the 0-based count of
// tracks processed so far.
type Progress struct {
	Index int
	Label string
}

func (u Progress) apply(s *types.TaskSnapshot) {
	s.Status = types.TaskStatusTransferring
	s.CurrentSong = u.Index
	s.SongName = u.Label
	if s.TotalSongs > 0 {
		s.Percentage = int(math.Round(float64(u.Index) / float64(s.TotalSongs) * 100))
	}
}

// CollectionResolved records the destination collection identifier once
// it has been created or resolved.
type CollectionResolved struct {
	ID string
}

func (u CollectionResolved) apply(s *types.TaskSnapshot) {
	s.SpotifyPlaylistID = u.ID
}

// Completed marks the task finished after the final batch flush.
type Completed struct {
	Elapsed time.Duration
	Missing []string
}

func (u Completed) apply(s *types.TaskSnapshot) {
	s.Status = types.TaskStatusCompleted
	s.Percentage = 100
	s.MissingTracks = u.Missing
	s.TimeTaken = fmt.Sprintf("%.2fs", u.Elapsed.Seconds())
}

// Failed marks the task as errored. Missing carries whatever unmatched
// tracks were accumulated before the failure, best effort.
type Failed struct {
	Missing []string
}

func (u Failed) apply(s *types.TaskSnapshot) {
	s.Status = types.TaskStatusError
	s.MissingTracks = u.Missing
}

// taskEntry is one registered transfer task: its current snapshot plus
// the subscribers receiving every state change, in subscription order.
type taskEntry struct {
	snap  types.TaskSnapshot
	subs  []chan types.TaskSnapshot
	evict *time.Timer
}

// TaskRegistry is the process-wide store of in-flight and recently
// finished transfer tasks. All access is keyed by task id; updates to a
// given task come from exactly one transfer run. Instances are
// constructor-injected so tests can run isolated registries.
type TaskRegistry struct {
	mu        sync.RWMutex
	tasks     map[string]*taskEntry
	retention time.Duration
	logger    *log.Logger
}

// NewTaskRegistry creates a registry whose task records are evicted the
// given delay after reaching a terminal status.
func NewTaskRegistry(retention time.Duration, logger *log.Logger) *TaskRegistry {
	return &TaskRegistry{
		tasks:     make(map[string]*taskEntry),
		retention: retention,
		logger:    logger,
	}
}

// CreateTask registers a new pending task. A duplicate id is logged and
// overwritten, last write wins; callers generate collision-resistant ids
// so this only happens in pathological cases.
func (r *TaskRegistry) CreateTask(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.tasks[taskID]; ok {
		r.logger.Warn("task id already registered, replacing", "taskId", taskID)
		if old.evict != nil {
			old.evict.Stop()
		}
	}

	r.tasks[taskID] = &taskEntry{
		snap: types.TaskSnapshot{TaskID: taskID, Status: types.TaskStatusPending},
	}
}

// Apply merges one update into the task record and pushes the resulting
// snapshot to every subscriber in subscription order. Updates for unknown
// ids are dropped. A terminal status closes every subscriber channel,
// clears the set and schedules eviction.
func (r *TaskRegistry) Apply(taskID string, update TaskUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[taskID]
	if !ok {
		r.logger.Warn("update for unknown task dropped", "taskId", taskID)
		return
	}

	update.apply(&entry.snap)
	snap := entry.snap

	for _, sub := range entry.subs {
		select {
		case sub <- snap:
		default:
			r.logger.Error("subscriber channel full, dropping update", "taskId", taskID)
		}
	}

	if snap.Status.IsTerminal() {
		for _, sub := range entry.subs {
			close(sub)
		}
		entry.subs = nil
		entry.evict = time.AfterFunc(r.retention, func() { r.Evict(taskID) })
	}
}

// GetTask returns the current snapshot for a task id.
func (r *TaskRegistry) GetTask(taskID string) (types.TaskSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.tasks[taskID]
	if !ok {
		return types.TaskSnapshot{}, false
	}
	return entry.snap, true
}

// Subscribe attaches a new observer to a task and returns the channel its
// snapshots arrive on. The channel is closed when the task reaches a
// terminal status. A subscriber joining after the task left the pending
// state immediately receives the current snapshot; subscribing to an
// unknown id synthesizes a pending placeholder, tolerating the benign
// race between task creation and subscription.
func (r *TaskRegistry) Subscribe(taskID string) <-chan types.TaskSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[taskID]
	if !ok {
		r.logger.Warn("subscribing to unknown task, creating placeholder", "taskId", taskID)
		entry = &taskEntry{
			snap: types.TaskSnapshot{TaskID: taskID, Status: types.TaskStatusPending},
		}
		r.tasks[taskID] = entry
	}

	ch := make(chan types.TaskSnapshot, subscriberBuffer)

	if entry.snap.Status != types.TaskStatusPending {
		ch <- entry.snap
	}

	if entry.snap.Status.IsTerminal() {
		close(ch)
		return ch
	}

	entry.subs = append(entry.subs, ch)
	return ch
}

// Unsubscribe detaches an observer and closes its channel. Idempotent and
// a no-op for unknown task ids; detaching never stops the transfer itself.
func (r *TaskRegistry) Unsubscribe(taskID string, ch <-chan types.TaskSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[taskID]
	if !ok {
		return
	}

	for i, sub := range entry.subs {
		if sub == ch {
			entry.subs = append(entry.subs[:i], entry.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Evict unconditionally removes a task record. Called from the retention
// timer; exported so tests can force it.
func (r *TaskRegistry) Evict(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.tasks[taskID]
	if !ok {
		return
	}
	if entry.evict != nil {
		entry.evict.Stop()
	}
	delete(r.tasks, taskID)
}
