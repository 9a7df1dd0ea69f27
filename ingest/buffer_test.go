package ingest

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/core"
)

func numberedRecord(source core.SourceKind, n int) *core.SensorRecord {
	rec := core.NewSensorRecord(source, fmt.Sprintf("RC%02d", n))
	return rec
}

func TestSourceBuffer_BoundedEviction(t *testing.T) {
	buf := NewSourceBuffer(3)
	for i := 0; i < 10; i++ {
		buf.Append(numberedRecord(core.SourcePOS, i))
	}

	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, 3, buf.Capacity())

	snapshot := buf.Snapshot(3)
	require.Len(t, snapshot, 3)
	// Oldest surviving record first.
	assert.Equal(t, "RC07", snapshot[0].StationID)
	assert.Equal(t, "RC08", snapshot[1].StationID)
	assert.Equal(t, "RC09", snapshot[2].StationID)
}

func TestSourceBuffer_BoundHoldsForRandomAppendCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		capacity := 1 + rng.Intn(16)
		appends := rng.Intn(200)

		buf := NewSourceBuffer(capacity)
		for n := 0; n < appends; n++ {
			buf.Append(numberedRecord(core.SourcePOS, n))
		}

		want := appends
		if want > capacity {
			want = capacity
		}
		require.Equal(t, want, buf.Len(), "capacity=%d appends=%d", capacity, appends)

		snapshot := buf.Snapshot(appends + 1)
		require.Len(t, snapshot, want, "capacity=%d appends=%d", capacity, appends)
		if want > 0 {
			// The newest suffix survives in arrival order.
			assert.Equal(t, fmt.Sprintf("RC%02d", appends-want), snapshot[0].StationID)
			assert.Equal(t, fmt.Sprintf("RC%02d", appends-1), snapshot[want-1].StationID)
		}
	}
}

func TestSourceBuffer_SnapshotNewestSuffix(t *testing.T) {
	buf := NewSourceBuffer(10)
	for i := 0; i < 5; i++ {
		buf.Append(numberedRecord(core.SourcePOS, i))
	}

	snapshot := buf.Snapshot(2)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "RC03", snapshot[0].StationID)
	assert.Equal(t, "RC04", snapshot[1].StationID)

	// Asking for more than is buffered returns everything.
	assert.Len(t, buf.Snapshot(100), 5)
	assert.Nil(t, buf.Snapshot(0))
}

func TestSourceBuffer_SnapshotIsolatedFromAppends(t *testing.T) {
	buf := NewSourceBuffer(2)
	buf.Append(numberedRecord(core.SourcePOS, 0))
	buf.Append(numberedRecord(core.SourcePOS, 1))

	snapshot := buf.Snapshot(2)
	buf.Append(numberedRecord(core.SourcePOS, 2))
	buf.Append(numberedRecord(core.SourcePOS, 3))

	// The earlier snapshot still sees the records it copied.
	assert.Equal(t, "RC00", snapshot[0].StationID)
	assert.Equal(t, "RC01", snapshot[1].StationID)
}

func TestSourceBuffer_MinimumCapacity(t *testing.T) {
	buf := NewSourceBuffer(0)
	assert.Equal(t, 1, buf.Capacity())
	buf.Append(numberedRecord(core.SourcePOS, 1))
	buf.Append(numberedRecord(core.SourcePOS, 2))
	assert.Equal(t, 1, buf.Len())
}

func TestBufferSet_RoutesBySource(t *testing.T) {
	set := NewBufferSet(10)
	set.Append(numberedRecord(core.SourcePOS, 1))
	set.Append(numberedRecord(core.SourceRFID, 2))
	set.Append(numberedRecord(core.SourceRFID, 3))
	set.Append(numberedRecord(core.SourceQueue, 4))
	set.Append(numberedRecord(core.SourceRecognition, 5))
	// Inventory snapshots have no buffer.
	set.Append(numberedRecord(core.SourceInventory, 6))

	counts := set.Counts()
	assert.Equal(t, 1, counts[core.SourcePOS])
	assert.Equal(t, 2, counts[core.SourceRFID])
	assert.Equal(t, 1, counts[core.SourceQueue])
	assert.Equal(t, 1, counts[core.SourceRecognition])
}

func TestInventoryStore_UpdateMergesSnapshots(t *testing.T) {
	store := NewInventoryStore()
	store.Update(map[string]int{"PRD_A_01": 50, "PRD_A_02": 80})
	store.Update(map[string]int{"PRD_A_01": 47})

	snapshot := store.Snapshot()
	assert.Equal(t, 47, snapshot["PRD_A_01"])
	assert.Equal(t, 80, snapshot["PRD_A_02"])
	assert.Equal(t, 2, store.Len())

	// The returned map is a copy.
	snapshot["PRD_A_01"] = 0
	assert.Equal(t, 47, store.Snapshot()["PRD_A_01"])
}
