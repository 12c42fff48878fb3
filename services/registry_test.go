package services

import (
	"testing"
	"time"

	"crossfade/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *TaskRegistry {
	return NewTaskRegistry(time.Hour, testLogger())
}

func drain(ch <-chan types.TaskSnapshot) []types.TaskSnapshot {
	var snaps []types.TaskSnapshot
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return snaps
			}
			snaps = append(snaps, snap)
		default:
			return snaps
		}
	}
}

func TestRegistryCreateAndGet(t *testing.T) {
	registry := newTestRegistry()
	registry.CreateTask("t1")

	snap, ok := registry.GetTask("t1")
	require.True(t, ok)
	assert.Equal(t, "t1", snap.TaskID)
	assert.Equal(t, types.TaskStatusPending, snap.Status)
	assert.Zero(t, snap.Percentage)

	_, ok = registry.GetTask("unknown")
	assert.False(t, ok)
}

func TestRegistrySubscriberSeesOrderedUpdates(t *testing.T) {
	registry := newTestRegistry()
	registry.CreateTask("t1")

	ch := registry.Subscribe("t1")

	registry.Apply("t1", Started{TotalSongs: 4})
	for i := 0; i < 4; i++ {
		registry.Apply("t1", Progress{Index: i, Label: "song"})
	}
	registry.Apply("t1", Completed{Elapsed: 1500 * time.Millisecond})

	snaps := drain(ch)
	require.Len(t, snaps, 6)

	// currentSong only ever moves forward and percentage follows it.
	assert.Equal(t, 4, snaps[0].TotalSongs)
	assert.Equal(t, types.TaskStatusPending, snaps[0].Status)

	last := -1
	for _, snap := range snaps[1:5] {
		assert.Equal(t, types.TaskStatusTransferring, snap.Status)
		assert.Greater(t, snap.CurrentSong, last)
		last = snap.CurrentSong
	}
	assert.Equal(t, 0, snaps[1].Percentage)
	assert.Equal(t, 25, snaps[2].Percentage)
	assert.Equal(t, 50, snaps[3].Percentage)
	assert.Equal(t, 75, snaps[4].Percentage)

	final := snaps[5]
	assert.Equal(t, types.TaskStatusCompleted, final.Status)
	assert.Equal(t, 100, final.Percentage)
	assert.Equal(t, "1.50s", final.TimeTaken)
}

func TestRegistryTerminalClosesSubscribers(t *testing.T) {
	registry := newTestRegistry()
	registry.CreateTask("t1")

	ch := registry.Subscribe("t1")
	registry.Apply("t1", Failed{Missing: []string{"Song - Artist"}})

	snap, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, types.TaskStatusError, snap.Status)
	assert.Equal(t, []string{"Song - Artist"}, snap.MissingTracks)

	_, ok = <-ch
	assert.False(t, ok, "channel must be closed after a terminal status")
}

func TestRegistryLateSubscriberGetsCurrentSnapshot(t *testing.T) {
	registry := newTestRegistry()
	registry.CreateTask("t1")
	registry.Apply("t1", Started{TotalSongs: 10})
	registry.Apply("t1", Progress{Index: 4, Label: "mid"})

	ch := registry.Subscribe("t1")

	select {
	case snap := <-ch:
		assert.Equal(t, types.TaskStatusTransferring, snap.Status)
		assert.Equal(t, 4, snap.CurrentSong)
		assert.Equal(t, 40, snap.Percentage)
	default:
		t.Fatal("expected an immediate snapshot for a late subscriber")
	}
}

func TestRegistrySubscribeAfterTerminal(t *testing.T) {
	registry := newTestRegistry()
	registry.CreateTask("t1")
	registry.Apply("t1", Completed{Elapsed: time.Second})

	ch := registry.Subscribe("t1")

	snap, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, types.TaskStatusCompleted, snap.Status)

	_, ok = <-ch
	assert.False(t, ok)
}

func TestRegistrySubscribeUnknownCreatesPlaceholder(t *testing.T) {
	registry := newTestRegistry()

	ch := registry.Subscribe("ghost")
	assert.Empty(t, drain(ch), "pending placeholder must not emit a snapshot")

	snap, ok := registry.GetTask("ghost")
	require.True(t, ok)
	assert.Equal(t, types.TaskStatusPending, snap.Status)

	// The task can still be started later through the placeholder record.
	registry.Apply("ghost", Started{TotalSongs: 2})
	registry.Apply("ghost", Progress{Index: 0, Label: "song"})
	snaps := drain(ch)
	require.Len(t, snaps, 2)
	assert.Equal(t, types.TaskStatusTransferring, snaps[1].Status)
}

func TestRegistryUnsubscribeIsIdempotent(t *testing.T) {
	registry := newTestRegistry()
	registry.CreateTask("t1")

	ch := registry.Subscribe("t1")
	registry.Unsubscribe("t1", ch)
	registry.Unsubscribe("t1", ch)
	registry.Unsubscribe("unknown", ch)

	// Detaching must not affect the task itself.
	registry.Apply("t1", Started{TotalSongs: 1})
	snap, ok := registry.GetTask("t1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.TotalSongs)
}

func TestRegistryUpdateForUnknownTaskDropped(t *testing.T) {
	registry := newTestRegistry()
	assert.NotPanics(t, func() {
		registry.Apply("unknown", Started{TotalSongs: 3})
	})
	_, ok := registry.GetTask("unknown")
	assert.False(t, ok)
}

func TestRegistryEvictionAfterRetention(t *testing.T) {
	registry := NewTaskRegistry(30*time.Millisecond, testLogger())
	registry.CreateTask("t1")
	registry.Apply("t1", Completed{Elapsed: time.Second})

	_, ok := registry.GetTask("t1")
	require.True(t, ok, "record must survive until the retention delay elapses")

	assert.Eventually(t, func() bool {
		_, ok := registry.GetTask("t1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRegistryDuplicateCreateResets(t *testing.T) {
	registry := newTestRegistry()
	registry.CreateTask("t1")
	registry.Apply("t1", Started{TotalSongs: 7})

	registry.CreateTask("t1")
	snap, ok := registry.GetTask("t1")
	require.True(t, ok)
	assert.Equal(t, types.TaskStatusPending, snap.Status)
	assert.Zero(t, snap.TotalSongs)
}
