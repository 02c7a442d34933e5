// Package index provides the in-memory hash table that maps live keys to
// their on-disk Location, plus the rubbish byte counter that drives
// compaction. It embodies the Bitcask principle this store is built on:
// keep every key in memory for O(1) lookup while the values themselves stay
// on disk in the segment files.
package index

import (
	stdErrors "errors"

	"github.com/nilraj/ignitekv/pkg/errors"
	"go.uber.org/zap"
)

// ErrIndexClosed is returned when attempting to use an Index after Close.
var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates an empty Index ready for use.
func New(config *Config) *Index {
	var log *zap.SugaredLogger
	if config != nil {
		log = config.Logger
	}
	return &Index{log: log, entries: make(map[string]Location, 1024)}
}

// Get returns the Location for key, and whether key is present.
func (idx *Index) Get(key string) (Location, bool) {
	loc, ok := idx.entries[key]
	return loc, ok
}

// Put records that key now lives at loc, superseding whatever Location it
// previously had. If key already had a Location, that prior record is now
// garbage: its length is added to the rubbish counter, and the prior
// Location is returned alongside hadOld=true.
func (idx *Index) Put(key string, loc Location) (old Location, hadOld bool) {
	old, hadOld = idx.entries[key]
	idx.entries[key] = loc
	if hadOld {
		idx.rubbish += old.Length
	}
	return old, hadOld
}

// Delete removes key from the Index, if present, and returns its former
// Location. A deleted key's prior record becomes garbage, so its length is
// added to the rubbish counter. The new Rm record's own bytes are not this
// method's concern — the caller adds those once it knows how many bytes the
// tombstone serialized to, via AddRubbish.
func (idx *Index) Delete(key string) (old Location, hadOld bool) {
	old, hadOld = idx.entries[key]
	if hadOld {
		delete(idx.entries, key)
		idx.rubbish += old.Length
	}
	return old, hadOld
}

// AddRubbish adds n bytes to the rubbish counter directly. Used for a
// tombstone's own serialized length, which is garbage from the moment it's
// written, and by replay when it observes the same thing happening.
func (idx *Index) AddRubbish(n int64) {
	idx.rubbish += n
}

// Rubbish returns the current rubbish byte count.
func (idx *Index) Rubbish() int64 {
	return idx.rubbish
}

// ResetRubbish zeroes the rubbish counter. Called once compaction completes.
func (idx *Index) ResetRubbish() {
	idx.rubbish = 0
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Keys returns a snapshot of every live key, in no particular order.
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	return keys
}

// Replace discards the current key-to-Location map and installs entries in
// its place. Used by compaction, which rebuilds the Index to point at the
// freshly written staging file.
func (idx *Index) Replace(entries map[string]Location) {
	idx.entries = entries
}

// Close marks the Index as no longer usable and releases the underlying
// map. A second Close returns ErrIndexClosed.
func (idx *Index) Close() error {
	if idx.closed.Swap(true) {
		return errors.NewIndexError(ErrIndexClosed, errors.ErrorCodeIndexClosed, "index already closed").
			WithOperation("Close")
	}

	if idx.log != nil {
		idx.log.Infow("closing index", "liveKeys", len(idx.entries))
	}

	clear(idx.entries)
	idx.entries = nil
	return nil
}
