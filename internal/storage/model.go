package storage

import (
	"os"
	"sync/atomic"

	"github.com/nilraj/ignitekv/pkg/options"
	"go.uber.org/zap"
)

// StagingFileName is the name compaction writes its rebuilt segment under
// before it is atomically renamed into place. Its presence in the data
// directory at Open time means an earlier compaction crashed partway
// through and must be resumed rather than replayed as if it were ordinary
// segment data.
const StagingFileName = "not_commit.dat"

// segmentReader is a random-access handle on one closed (non-active)
// segment file. Reads use positional ReadAt at the requested offset for
// exactly length bytes, since segments are shared read-only state that may be
// consulted for any key the Index still points into them.
type segmentReader struct {
	id   uint64
	file *os.File
}

// Storage owns every segment file belonging to one store: the active
// segment currently being appended to, and a reader for every other
// segment discovered on disk. It knows nothing about keys or records —
// only byte ranges within numbered files.
type Storage struct {
	dataDir string

	activeID     uint64
	activeFile   *os.File
	activeOffset int64

	readers map[uint64]*segmentReader

	closed  atomic.Bool
	options *options.Options
	log     *zap.SugaredLogger
}

// Config encapsulates the parameters needed to construct a Storage.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
