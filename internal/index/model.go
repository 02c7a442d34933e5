package index

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Location identifies exactly where one record lives on disk: the segment
// it was written to, the byte offset within that segment's file where the
// record begins, and the record's serialized length.
type Location struct {
	SegmentID uint64
	Offset    int64
	Length    int64
}

// Index is the in-memory key-to-Location map. It tracks only live keys:
// a key is present if and only if the most recent record mentioning it,
// across all segments, is a Set. Alongside the map it accumulates the
// rubbish counter — an upper bound, in bytes, on garbage occupying the
// segments this Index was built from.
//
// Index assumes single-threaded ownership, matching the Store's
// concurrency model: no internal locking beyond the atomic closed flag,
// which exists purely to make a double Close a clean no-op-with-error
// rather than a panic on a nil map.
type Index struct {
	log     *zap.SugaredLogger
	closed  atomic.Bool
	entries map[string]Location
	rubbish int64
}

// Config holds the parameters needed to construct an Index.
type Config struct {
	Logger *zap.SugaredLogger
}
