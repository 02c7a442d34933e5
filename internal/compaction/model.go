package compaction

import "go.uber.org/zap"

// stagingSegmentID and freshSegmentID are the segment ids the compaction
// protocol always produces: the rebuilt live set lands in segment 1, and a
// fresh empty segment 2 becomes the new active segment. These are literal,
// not derived from whatever ids existed before compaction — compaction
// collapses the entire store down to exactly two segments every time it
// runs.
const (
	stagingSegmentID = 1
	freshSegmentID   = 2
)

// Compaction rebuilds a store's live key set into a single fresh segment
// and discards everything superseded, without ever leaving a window in
// which a crash would lose committed data. It holds no state of its own
// between runs; Run operates entirely on the Index and Storage passed to
// it.
type Compaction struct {
	log *zap.SugaredLogger
}

// Config holds the parameters needed to construct a Compaction.
type Config struct {
	Logger *zap.SugaredLogger
}
