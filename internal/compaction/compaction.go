// Package compaction implements the protocol that reclaims rubbish bytes
// from a store's segments: read every live key's current value, write all
// of them into a single fresh segment, delete everything superseded, and
// rename the fresh segment into place as the new source of truth. The
// rename is the one step that must be atomic; everything before it can be
// interrupted and recovered from, and everything after it operates on a
// store that already looks fully compacted.
package compaction

import (
	"sort"

	"github.com/nilraj/ignitekv/internal/index"
	"github.com/nilraj/ignitekv/internal/storage"
	"github.com/nilraj/ignitekv/pkg/errors"
	"github.com/nilraj/ignitekv/pkg/record"
	"go.uber.org/zap"
)

// New builds a Compaction.
func New(config *Config) *Compaction {
	var log *zap.SugaredLogger
	if config != nil {
		log = config.Logger
	}
	return &Compaction{log: log}
}

// Run executes the full compaction protocol against idx and st: it reads
// every live key's value, writes them all into a freshly staged segment,
// deletes every segment that existed before compaction started (including
// the one still open for writes), commits the staged segment as 1.log,
// reopens it as a reader, rebuilds idx to point entirely at it, resets the
// rubbish counter, and opens 2.log as the new active segment.
//
// A failure while reading the live set aborts before anything is written;
// storage and idx are left untouched. A failure once the staging file
// exists leaves it on disk, which is exactly the state the next Open's
// recovery path expects.
func (c *Compaction) Run(idx *index.Index, st *storage.Storage) error {
	keys := idx.Keys()
	sort.Strings(keys)

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		loc, ok := idx.Get(key)
		if !ok {
			continue
		}

		data, err := st.ReadAt(loc.SegmentID, loc.Offset, loc.Length)
		if err != nil {
			return err
		}

		rec, err := record.Unmarshal(data)
		if err != nil {
			return errors.NewStoreError(err, errors.ErrorCodeSerde, "failed to decode record during compaction").
				WithKey(key)
		}
		if !rec.IsSet() {
			return errors.NewStoreError(nil, errors.ErrorCodeUnknownCommand, "index pointed at a non-Set record").
				WithKey(key).
				WithSegmentID(loc.SegmentID)
		}

		values[key] = rec.Value()
	}

	priorIDs := st.SegmentIDs()
	if c.log != nil {
		c.log.Infow("starting compaction", "liveKeys", len(keys), "priorSegments", priorIDs)
	}

	staging, err := st.CreateStagingFile()
	if err != nil {
		return err
	}

	newEntries := make(map[string]index.Location, len(keys))
	var offset int64
	for _, key := range keys {
		data, err := record.Marshal(record.Set(key, values[key]))
		if err != nil {
			staging.Close()
			return errors.NewStoreError(err, errors.ErrorCodeSerde, "failed to encode record during compaction").
				WithKey(key)
		}

		n, err := staging.Write(data)
		if err != nil {
			staging.Close()
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write staging file").WithSegmentID(stagingSegmentID)
		}

		newEntries[key] = index.Location{SegmentID: stagingSegmentID, Offset: offset, Length: int64(n)}
		offset += int64(n)
	}

	if err := staging.Sync(); err != nil {
		staging.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to sync staging file").WithSegmentID(stagingSegmentID)
	}
	if err := staging.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close staging file").WithSegmentID(stagingSegmentID)
	}

	if err := st.CloseWriter(); err != nil {
		return err
	}
	if err := st.DeleteSegments(priorIDs); err != nil {
		return err
	}

	if err := st.CommitStaging(stagingSegmentID); err != nil {
		return err
	}
	if err := st.AdoptReader(stagingSegmentID); err != nil {
		return err
	}

	idx.Replace(newEntries)
	idx.ResetRubbish()

	if err := st.BeginActiveSegment(freshSegmentID); err != nil {
		return err
	}

	if c.log != nil {
		c.log.Infow("compaction finished", "liveKeys", len(newEntries))
	}
	return nil
}
