package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nilraj/ignitekv/pkg/logger"
	"github.com/nilraj/ignitekv/pkg/options"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()

	s, err := New(context.Background(), &Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewOnEmptyDirHasNoSegments(t *testing.T) {
	s := newTestStorage(t)
	require.Empty(t, s.SegmentIDs())
	_, active := s.ActiveID()
	require.False(t, active)
}

func TestWriteAndReadAtRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.BeginActiveSegment(1))

	id, offset, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Equal(t, int64(0), offset)

	id2, offset2, err := s.Write([]byte("world!"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), id2)
	require.Equal(t, int64(5), offset2)

	got, err := s.ReadAt(1, 0, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	got, err = s.ReadAt(1, 5, 6)
	require.NoError(t, err)
	require.Equal(t, "world!", string(got))
}

func TestRollDemotesActiveSegmentToReader(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.BeginActiveSegment(1))
	_, _, err := s.Write([]byte("abc"))
	require.NoError(t, err)

	require.NoError(t, s.Roll(2))
	id, active := s.ActiveID()
	require.True(t, active)
	require.Equal(t, uint64(2), id)

	got, err := s.ReadAt(1, 0, 3)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestOpenSegmentStreamReadsFullContents(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.BeginActiveSegment(1))
	_, _, err := s.Write([]byte("abcdef"))
	require.NoError(t, err)

	r, err := s.OpenSegmentStream(1)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(data))
}

func TestStagingCommitAndAdopt(t *testing.T) {
	s := newTestStorage(t)

	staging, err := s.CreateStagingFile()
	require.NoError(t, err)
	_, err = staging.Write([]byte("rebuilt"))
	require.NoError(t, err)
	require.NoError(t, staging.Close())

	has, err := s.HasStagingFile()
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, s.CommitStaging(1))

	has, err = s.HasStagingFile()
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, s.AdoptReader(1))
	got, err := s.ReadAt(1, 0, 7)
	require.NoError(t, err)
	require.Equal(t, "rebuilt", string(got))
}

func TestDeleteSegmentsRemovesFiles(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.BeginActiveSegment(1))
	require.NoError(t, s.Roll(2))

	path := s.SegmentPath(1)
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, s.DeleteSegments([]uint64{1}))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestSegmentPathUsesNumericDotLogNaming(t *testing.T) {
	s := newTestStorage(t)
	require.Equal(t, filepath.Join(s.Dir(), "42.log"), s.SegmentPath(42))
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.BeginActiveSegment(1))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
