package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	idx := New(&Config{})

	_, ok := idx.Get("a")
	assert.False(t, ok)

	idx.Put("a", Location{SegmentID: 1, Offset: 0, Length: 10})
	loc, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, uint64(1), loc.SegmentID)
	assert.Equal(t, int64(0), idx.Rubbish())

	old, hadOld := idx.Put("a", Location{SegmentID: 1, Offset: 10, Length: 12})
	assert.True(t, hadOld)
	assert.Equal(t, int64(10), old.Length)
	assert.Equal(t, int64(10), idx.Rubbish())

	old, hadOld = idx.Delete("a")
	assert.True(t, hadOld)
	assert.Equal(t, int64(12), old.Length)
	assert.Equal(t, int64(22), idx.Rubbish())

	_, ok = idx.Get("a")
	assert.False(t, ok)

	_, hadOld = idx.Delete("a")
	assert.False(t, hadOld)
}

func TestAddRubbishAndReset(t *testing.T) {
	idx := New(&Config{})
	idx.AddRubbish(5)
	idx.AddRubbish(7)
	assert.Equal(t, int64(12), idx.Rubbish())
	idx.ResetRubbish()
	assert.Equal(t, int64(0), idx.Rubbish())
}

func TestReplace(t *testing.T) {
	idx := New(&Config{})
	idx.Put("a", Location{SegmentID: 1, Offset: 0, Length: 1})
	idx.Put("b", Location{SegmentID: 1, Offset: 1, Length: 1})

	idx.Replace(map[string]Location{"c": {SegmentID: 2, Offset: 0, Length: 3}})
	assert.Equal(t, 1, idx.Len())
	_, ok := idx.Get("a")
	assert.False(t, ok)
	loc, ok := idx.Get("c")
	require.True(t, ok)
	assert.Equal(t, uint64(2), loc.SegmentID)
}

func TestCloseIsIdempotentError(t *testing.T) {
	idx := New(&Config{})
	require.NoError(t, idx.Close())
	err := idx.Close()
	require.Error(t, err)
}
