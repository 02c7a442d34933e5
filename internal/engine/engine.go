// Package engine provides the core database engine implementation for the
// ignitekv storage system.
//
// The engine is the central coordinator for all store operations. It owns
// three subsystems and drives the data flow between them:
//   - Index: the in-memory key-to-Location map and rubbish counter
//   - Storage: the segment files on disk, active and immutable
//   - Compaction: the protocol that periodically rebuilds them into one
//
// Open replays whatever is on disk (or resumes an interrupted compaction)
// to reconstruct the Index before any operation runs. The engine is
// single-threaded: it assumes exactly one caller at a time and performs no
// internal locking beyond the atomic "closed" flag used to make a second
// Close a clean no-op.
package engine

import (
	"context"
	stdErrors "errors"
	"io"
	"sort"
	"sync/atomic"

	"github.com/nilraj/ignitekv/internal/compaction"
	"github.com/nilraj/ignitekv/internal/index"
	"github.com/nilraj/ignitekv/internal/storage"
	"github.com/nilraj/ignitekv/pkg/errors"
	"github.com/nilraj/ignitekv/pkg/options"
	"github.com/nilraj/ignitekv/pkg/record"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")

// recoveredSegmentID and recoveredActiveID are the segment ids crash
// recovery always produces, mirroring compaction's own literal 1/2 choice
// since recovery resumes an interrupted compaction.
const (
	recoveredSegmentID = 1
	recoveredActiveID  = 2
)

// Engine coordinates Index, Storage, and Compaction to implement the
// store's Set/Get/Remove contract.
type Engine struct {
	options    *options.Options
	log        *zap.SugaredLogger
	closed     atomic.Bool
	index      *index.Index
	storage    *storage.Storage
	compaction *compaction.Compaction
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens the store directory named by config.Options.DataDir. If a
// not_commit.dat staging file is present, it resumes the compaction that
// was interrupted while it was being written; otherwise it replays every
// existing segment, in ascending id order, to rebuild the Index, then
// opens a brand new empty segment as active.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, stdErrors.New("engine: invalid configuration")
	}
	if err := config.Options.Validate(); err != nil {
		return nil, err
	}

	idx := index.New(&index.Config{Logger: config.Logger})

	st, err := storage.New(ctx, &storage.Config{Logger: config.Logger, Options: config.Options})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		options:    config.Options,
		log:        config.Logger,
		index:      idx,
		storage:    st,
		compaction: compaction.New(&compaction.Config{Logger: config.Logger}),
	}

	hasStaging, err := st.HasStagingFile()
	if err != nil {
		st.Close()
		return nil, err
	}

	if hasStaging {
		if err := e.recoverFromCrash(); err != nil {
			st.Close()
			return nil, err
		}
		return e, nil
	}

	if err := e.replayAll(); err != nil {
		st.Close()
		return nil, err
	}
	return e, nil
}

// replayAll replays every segment Storage discovered, in ascending id
// order, to rebuild the Index, then opens the next id as a fresh active
// segment. Only the highest-numbered segment — the one that was active
// when the store last closed — tolerates a truncated trailing record;
// every earlier segment must decode cleanly or Open fails.
func (e *Engine) replayAll() error {
	ids := e.storage.SegmentIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for i, id := range ids {
		stream, err := e.storage.OpenSegmentStream(id)
		if err != nil {
			return err
		}

		tolerateTruncation := i == len(ids)-1
		if err := e.replaySegment(stream, id, tolerateTruncation); err != nil {
			return err
		}
	}

	nextID := uint64(1)
	if len(ids) > 0 {
		nextID = ids[len(ids)-1] + 1
	}

	e.log.Infow("replay complete", "segments", ids, "liveKeys", e.index.Len(), "nextActiveID", nextID)
	return e.storage.BeginActiveSegment(nextID)
}

// replaySegment decodes every record in stream, which holds segment id's
// current contents, folding each into the Index and rubbish counter
// exactly as Set/Remove would have. A clean end of stream (io.EOF with no
// bytes consumed for a new record) stops replay silently. Any other decode
// error stops replay silently only when tolerateTruncation is set;
// otherwise it is fatal.
func (e *Engine) replaySegment(stream io.Reader, segmentID uint64, tolerateTruncation bool) error {
	dec := record.NewDecoder(stream)
	var prev int64

	for {
		rec, err := dec.Decode()
		if err != nil {
			if err == io.EOF || tolerateTruncation {
				return nil
			}
			return errors.NewStoreError(err, errors.ErrorCodeSerde, "failed to decode segment during replay").
				WithSegmentID(segmentID)
		}

		next := dec.InputOffset()
		length := next - prev

		if rec.IsSet() {
			e.index.Put(rec.Key(), index.Location{SegmentID: segmentID, Offset: prev, Length: length})
		} else {
			e.index.Delete(rec.Key())
			e.index.AddRubbish(length)
		}

		prev = next
	}
}

// recoverFromCrash resumes a compaction that was interrupted after its
// staging file was written (complete or not) but before the rename to
// 1.log completed. It first deletes whatever ordinary segments existed,
// then renames the staging file into place as 1.log, so the data directory
// is left in the same clean state a completed compaction would have
// produced, replays it as segment 1 tolerating a truncated tail, and opens
// segment 2 as the new active segment.
func (e *Engine) recoverFromCrash() error {
	abandoned := e.storage.SegmentIDs()
	if len(abandoned) > 0 {
		e.log.Infow("abandoning pre-compaction segments during recovery", "segments", abandoned)
		if err := e.storage.DeleteSegments(abandoned); err != nil {
			return err
		}
	}

	if err := e.storage.CommitStaging(recoveredSegmentID); err != nil {
		return err
	}
	if err := e.storage.AdoptReader(recoveredSegmentID); err != nil {
		return err
	}

	stream, err := e.storage.OpenSegmentStream(recoveredSegmentID)
	if err != nil {
		return err
	}
	if err := e.replaySegment(stream, recoveredSegmentID, true); err != nil {
		return err
	}

	e.log.Infow("recovered from interrupted compaction", "liveKeys", e.index.Len())
	return e.storage.BeginActiveSegment(recoveredActiveID)
}

// Set writes key=value, making it immediately visible to Get. It may
// trigger compaction (if rubbish has crossed the configured threshold) or
// a segment rollover (if the active segment has grown past it) before
// returning.
func (e *Engine) Set(key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	data, err := record.Marshal(record.Set(key, value))
	if err != nil {
		return errors.NewStoreError(err, errors.ErrorCodeSerde, "failed to encode record").WithKey(key)
	}

	segmentID, offset, err := e.storage.Write(data)
	if err != nil {
		return errors.NewStoreError(err, errors.ErrorCodeIO, "failed to write record").WithKey(key)
	}

	e.index.Put(key, index.Location{SegmentID: segmentID, Offset: offset, Length: int64(len(data))})

	if e.index.Rubbish() >= int64(e.options.CompactThreshold) {
		return e.compaction.Run(e.index, e.storage)
	}

	if e.storage.ActiveOffset() >= int64(e.options.SingleLogSize) {
		return e.roll()
	}

	return nil
}

func (e *Engine) roll() error {
	activeID, _ := e.storage.ActiveID()
	return e.storage.Roll(activeID + 1)
}

// Get returns key's current value. found is false, with a nil error, when
// key simply isn't present. A non-nil error means something is wrong: the
// Index pointed at a segment Storage no longer has, the record didn't
// decode, or it decoded to something other than a Set.
func (e *Engine) Get(key string) (value string, found bool, err error) {
	if e.closed.Load() {
		return "", false, ErrEngineClosed
	}

	loc, ok := e.index.Get(key)
	if !ok {
		return "", false, nil
	}

	if !e.storage.HasSegment(loc.SegmentID) {
		return "", false, errors.NewStoreError(nil, errors.ErrorCodeKeyNotFound, "segment reader missing for indexed key").
			WithKey(key).
			WithSegmentID(loc.SegmentID)
	}

	data, err := e.storage.ReadAt(loc.SegmentID, loc.Offset, loc.Length)
	if err != nil {
		return "", false, errors.NewStoreError(err, errors.ErrorCodeIO, "failed to read record").WithKey(key)
	}

	rec, err := record.Unmarshal(data)
	if err != nil {
		return "", false, errors.NewStoreError(err, errors.ErrorCodeSerde, "failed to decode record").WithKey(key)
	}

	if !rec.IsSet() {
		return "", false, errors.NewStoreError(nil, errors.ErrorCodeUnknownCommand, "index pointed at a non-Set record").
			WithKey(key).
			WithSegmentID(loc.SegmentID)
	}

	return rec.Value(), true, nil
}

// Remove deletes key. It fails with a KeyNotFound StoreError if key is not
// present.
func (e *Engine) Remove(key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	if _, hadOld := e.index.Delete(key); !hadOld {
		return errors.NewStoreError(nil, errors.ErrorCodeKeyNotFound, "key not found").WithKey(key)
	}

	data, err := record.Marshal(record.Rm(key))
	if err != nil {
		return errors.NewStoreError(err, errors.ErrorCodeSerde, "failed to encode tombstone").WithKey(key)
	}

	if _, _, err := e.storage.Write(data); err != nil {
		return errors.NewStoreError(err, errors.ErrorCodeIO, "failed to write tombstone").WithKey(key)
	}

	e.index.AddRubbish(int64(len(data)))
	return nil
}

// Sync flushes the active segment's data to stable storage. The engine
// never calls this itself — every write is best-effort write-through — so
// a caller that needs a stronger durability guarantee at a particular
// point calls Sync explicitly.
func (e *Engine) Sync() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.storage.Sync()
}

// Close tears down the Index and Storage. A second Close returns
// ErrEngineClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}
	return multierr.Combine(e.index.Close(), e.storage.Close())
}
