package wal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervaldb/intervaldb/internal/model"
)

func walPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.wal")
}

func sampleEvents() []model.Event {
	parentID := model.NewID()
	name := "workshop"
	buffer := model.Time(120_000)
	label := "maintenance window"
	return []model.Event{
		model.ResourceCreated{ID: parentID, Capacity: 1},
		model.ResourceCreated{ID: model.NewID(), ParentID: &parentID, Name: &name, Capacity: 4, BufferAfter: &buffer},
		model.ResourceUpdated{ID: parentID, Capacity: 2},
		model.RuleAdded{ID: model.NewID(), ResourceID: parentID, Span: model.Span{Start: 0, End: 1000}, Blocking: false},
		model.RuleUpdated{ID: model.NewID(), Span: model.Span{Start: 10, End: 20}, Blocking: true},
		model.RuleRemoved{ID: model.NewID()},
		model.HoldPlaced{ID: model.NewID(), ResourceID: parentID, Span: model.Span{Start: 5, End: 15}, ExpiresAt: 99},
		model.HoldReleased{ID: model.NewID()},
		model.BookingConfirmed{ID: model.NewID(), ResourceID: parentID, Span: model.Span{Start: 50, End: 60}, Label: &label},
		model.BookingConfirmed{ID: model.NewID(), ResourceID: parentID, Span: model.Span{Start: 70, End: 80}},
		model.BookingCancelled{ID: model.NewID()},
		model.ResourceDeleted{ID: parentID},
	}
}

func appendAll(t *testing.T, path string, events []model.Event) {
	t.Helper()
	f, err := OpenFile(path)
	require.NoError(t, err)
	for _, ev := range events {
		payload, err := Encode(ev)
		require.NoError(t, err)
		require.NoError(t, f.AppendBuffered(payload))
	}
	require.NoError(t, f.FlushSync())
	require.NoError(t, f.Close())
}

func TestCodecRoundTripsEveryVariant(t *testing.T) {
	for _, ev := range sampleEvents() {
		payload, err := Encode(ev)
		require.NoError(t, err)
		decoded, err := Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, ev, decoded)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0xFF})
	assert.Error(t, err, "unknown tag")

	payload, err := Encode(model.HoldPlaced{ID: model.NewID(), ResourceID: model.NewID(), Span: model.Span{Start: 1, End: 2}, ExpiresAt: 3})
	require.NoError(t, err)
	_, err = Decode(payload[:len(payload)-4])
	assert.Error(t, err, "short payload")
}

func TestReplayMissingFileIsEmpty(t *testing.T) {
	entries, err := Replay(filepath.Join(t.TempDir(), "never-written.wal"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReplayReturnsAppendedEvents(t *testing.T) {
	path := walPath(t)
	events := sampleEvents()
	appendAll(t, path, events)

	entries, err := Replay(path)
	require.NoError(t, err)
	require.Len(t, entries, len(events))
	for i, entry := range entries {
		assert.Equal(t, events[i], entry.Event)
	}
}

func TestReplayStopsAtTruncatedTail(t *testing.T) {
	path := walPath(t)
	events := sampleEvents()
	appendAll(t, path, events)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// a crash mid-append can leave anything from a partial length header to
	// a frame missing its checksum; every cut point inside the final frame
	// (a ResourceDeleted: 4-byte length + 17-byte payload + 4-byte crc) must
	// replay the intact prefix and nothing else
	for _, cut := range []int{1, 2, 4, 12, 21, 24} {
		truncated := filepath.Join(t.TempDir(), "truncated.wal")
		require.NoError(t, os.WriteFile(truncated, raw[:len(raw)-cut], 0o644))

		entries, err := Replay(truncated)
		require.NoError(t, err)
		require.Len(t, entries, len(events)-1, "cut=%d", cut)
		for i, entry := range entries {
			assert.Equal(t, events[i], entry.Event)
		}
	}
}

func TestReplayStopsAtCorruptEntry(t *testing.T) {
	path := walPath(t)
	events := sampleEvents()
	appendAll(t, path, events)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// locate the third entry's payload and flip one byte of it; replay must
	// return exactly the two entries before it
	offset := 0
	for i := 0; i < 2; i++ {
		length := int(uint32(raw[offset]) | uint32(raw[offset+1])<<8 | uint32(raw[offset+2])<<16 | uint32(raw[offset+3])<<24)
		offset += 4 + length + 4
	}
	corrupted := append([]byte(nil), raw...)
	corrupted[offset+4] ^= 0xFF

	corruptPath := filepath.Join(t.TempDir(), "corrupt.wal")
	require.NoError(t, os.WriteFile(corruptPath, corrupted, 0o644))

	entries, err := Replay(corruptPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, events[0], entries[0].Event)
	assert.Equal(t, events[1], entries[1].Event)
}

func TestAppendsSinceCompactCounter(t *testing.T) {
	path := walPath(t)
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Zero(t, f.AppendsSinceCompact())
	payload, err := Encode(model.RuleRemoved{ID: model.NewID()})
	require.NoError(t, err)
	require.NoError(t, f.AppendBuffered(payload))
	require.NoError(t, f.AppendBuffered(payload))
	assert.Equal(t, int64(2), f.AppendsSinceCompact())
}

func TestCompactReplacesFileAtomically(t *testing.T) {
	path := walPath(t)
	appendAll(t, path, sampleEvents())

	keep := model.ResourceCreated{ID: model.NewID(), Capacity: 3}
	payload, err := Encode(keep)
	require.NoError(t, err)

	f, err := Compact(path, [][]byte{payload})
	require.NoError(t, err)
	assert.Zero(t, f.AppendsSinceCompact())

	// the temp file is gone and the live file holds only the compacted set
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	entries, err := Replay(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep, entries[0].Event)

	// the returned file keeps accepting appends
	next, err := Encode(model.RuleRemoved{ID: model.NewID()})
	require.NoError(t, err)
	require.NoError(t, f.AppendBuffered(next))
	require.NoError(t, f.FlushSync())
	require.NoError(t, f.Close())

	entries, err = Replay(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriterGroupCommit(t *testing.T) {
	path := walPath(t)
	f, err := OpenFile(path)
	require.NoError(t, err)

	w := NewWriter(f)

	const callers = 32
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = w.Append(model.RuleRemoved{ID: model.NewID()})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(callers), w.AppendsSinceCompact())
	w.Close()

	entries, err := Replay(path)
	require.NoError(t, err)
	assert.Len(t, entries, callers)
}

func TestWriterCompactDrainsPendingBatchFirst(t *testing.T) {
	path := walPath(t)
	f, err := OpenFile(path)
	require.NoError(t, err)

	w := NewWriter(f)
	defer w.Close()

	require.NoError(t, w.Append(model.RuleRemoved{ID: model.NewID()}))

	keep := model.ResourceCreated{ID: model.NewID(), Capacity: 1}
	payload, err := Encode(keep)
	require.NoError(t, err)
	require.NoError(t, w.Compact([][]byte{payload}))
	assert.Zero(t, w.AppendsSinceCompact())

	// appends after compaction land in the new file
	require.NoError(t, w.Append(model.RuleRemoved{ID: model.NewID()}))
	assert.Equal(t, int64(1), w.AppendsSinceCompact())
}
