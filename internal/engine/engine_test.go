package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nilraj/ignitekv/pkg/errors"
	"github.com/nilraj/ignitekv/pkg/logger"
	"github.com/nilraj/ignitekv/pkg/options"
	"github.com/nilraj/ignitekv/pkg/record"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir

	e, err := New(context.Background(), &Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	return e
}

func TestEmptyGetReturnsNotFound(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	defer e.Close()

	_, found, err := e.Get("a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSyncFlushesActiveSegmentAndRejectsOnClosedEngine(t *testing.T) {
	e := newTestEngine(t, t.TempDir())

	require.NoError(t, e.Set("a", "1"))
	require.NoError(t, e.Sync())

	require.NoError(t, e.Close())
	require.Error(t, e.Sync())
}

func TestOverwriteReturnsLatestValue(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	defer e.Close()

	require.NoError(t, e.Set("a", "1"))
	require.NoError(t, e.Set("a", "2"))

	value, found, err := e.Get("a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "2", value)
}

func TestRemoveThenGetIsNotFoundAndRemoveTwiceFails(t *testing.T) {
	e := newTestEngine(t, t.TempDir())
	defer e.Close()

	require.NoError(t, e.Set("k", "v"))
	require.NoError(t, e.Remove("k"))

	_, found, err := e.Get("k")
	require.NoError(t, err)
	require.False(t, found)

	err = e.Remove("k")
	require.Error(t, err)
	se, ok := errors.AsStoreError(err)
	require.True(t, ok)
	require.Equal(t, errors.ErrorCodeKeyNotFound, se.Code())
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	e1 := newTestEngine(t, dir)
	require.NoError(t, e1.Set("x", "10"))
	require.NoError(t, e1.Set("y", "20"))
	require.NoError(t, e1.Close())

	e2 := newTestEngine(t, dir)
	defer e2.Close()

	value, found, err := e2.Get("x")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "10", value)

	value, found, err = e2.Get("y")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "20", value)
}

func TestCompactionPreservesDataAndBoundsSegments(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	opts.CompactThreshold = 64 * 1024

	e, err := New(context.Background(), &Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)

	bigValue := strings.Repeat("x", 20*1024)
	for i := 0; i < 100; i++ {
		key := keyFor(i)
		require.NoError(t, e.Set(key, bigValue))
	}
	for i := 0; i < 100; i++ {
		key := keyFor(i)
		require.NoError(t, e.Set(key, bigValue+"b"))
	}
	require.NoError(t, e.Close())

	e2, err := New(context.Background(), &Config{Options: &opts, Logger: logger.Noop()})
	require.NoError(t, err)
	defer e2.Close()

	for i := 0; i < 100; i++ {
		key := keyFor(i)
		value, found, err := e2.Get(key)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, bigValue+"b", value)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var logFiles int
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".log" {
			logFiles++
		}
		require.NotEqual(t, "not_commit.dat", entry.Name())
	}
	require.LessOrEqual(t, logFiles, 2)
}

func TestCrashMidCompactionRecovers(t *testing.T) {
	dir := t.TempDir()

	stagingData, err := record.Marshal(record.Set("a", "1"))
	require.NoError(t, err)
	data2, err := record.Marshal(record.Set("b", "2"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "not_commit.dat"), append(stagingData, data2...), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "5.log"), []byte("stale"), 0644))

	e := newTestEngine(t, dir)
	defer e.Close()

	value, found, err := e.Get("a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "1", value)

	value, found, err = e.Get("b")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "2", value)

	require.NoError(t, e.Set("c", "3"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	require.ElementsMatch(t, []string{"1.log", "2.log"}, names)
}

func keyFor(i int) string {
	return fmt.Sprintf("k%d", i)
}
