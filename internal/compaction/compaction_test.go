package compaction

import (
	"context"
	"testing"

	"github.com/nilraj/ignitekv/internal/index"
	"github.com/nilraj/ignitekv/internal/storage"
	"github.com/nilraj/ignitekv/pkg/logger"
	"github.com/nilraj/ignitekv/pkg/options"
	"github.com/nilraj/ignitekv/pkg/record"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()

	st, err := storage.New(context.Background(), &storage.Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeSet(t *testing.T, st *storage.Storage, idx *index.Index, key, value string) {
	t.Helper()
	data, err := record.Marshal(record.Set(key, value))
	require.NoError(t, err)

	id, offset, err := st.Write(data)
	require.NoError(t, err)
	idx.Put(key, index.Location{SegmentID: id, Offset: offset, Length: int64(len(data))})
}

func TestCompactionPreservesLiveValues(t *testing.T) {
	st := newTestStorage(t)
	require.NoError(t, st.BeginActiveSegment(1))

	idx := index.New(&index.Config{})
	writeSet(t, st, idx, "a", "1")
	writeSet(t, st, idx, "b", "2")
	writeSet(t, st, idx, "a", "3")
	idx.AddRubbish(100)

	c := New(&Config{Logger: logger.Noop()})
	require.NoError(t, c.Run(idx, st))

	require.Equal(t, int64(0), idx.Rubbish())

	locA, ok := idx.Get("a")
	require.True(t, ok)
	require.Equal(t, uint64(1), locA.SegmentID)
	data, err := st.ReadAt(locA.SegmentID, locA.Offset, locA.Length)
	require.NoError(t, err)
	rec, err := record.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, "3", rec.Value())

	locB, ok := idx.Get("b")
	require.True(t, ok)
	data, err = st.ReadAt(locB.SegmentID, locB.Offset, locB.Length)
	require.NoError(t, err)
	rec, err = record.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, "2", rec.Value())

	activeID, active := st.ActiveID()
	require.True(t, active)
	require.Equal(t, uint64(2), activeID)
}

func TestCompactionLeavesOnlyTwoSegments(t *testing.T) {
	st := newTestStorage(t)
	require.NoError(t, st.BeginActiveSegment(1))

	idx := index.New(&index.Config{})
	for i := 0; i < 5; i++ {
		writeSet(t, st, idx, "k", "v")
		require.NoError(t, st.Roll(uint64(i)+2))
	}

	c := New(&Config{Logger: logger.Noop()})
	require.NoError(t, c.Run(idx, st))

	ids := st.SegmentIDs()
	require.ElementsMatch(t, []uint64{1, 2}, ids)
}
