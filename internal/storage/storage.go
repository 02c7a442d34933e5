// Package storage manages the numbered segment files that back one store's
// data directory: the single active segment new records are appended to,
// and a random-access reader for every other segment an Index Location can
// still point into. It knows nothing about keys, records, or compaction
// policy — only byte ranges within named files.
package storage

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nilraj/ignitekv/pkg/errors"
	"github.com/nilraj/ignitekv/pkg/filesys"
	"github.com/nilraj/ignitekv/pkg/options"
	"github.com/nilraj/ignitekv/pkg/seginfo"
	"go.uber.org/zap"
)

var ErrStorageClosed = stdErrors.New("operation failed: cannot access closed storage")

// New discovers every existing <id>.log segment under config.Options.DataDir
// and opens a reader for each. It does not select or open an active segment;
// the caller (internal/engine) decides that once it has replayed what's on
// disk: crash recovery opens segment 2, ordinary replay opens the id after
// the highest one found.
func New(ctx context.Context, config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	dataDir := config.Options.DataDir
	if err := filesys.CreateDir(dataDir, 0755, true); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create data directory").
			WithPath(dataDir)
	}

	s := &Storage{
		dataDir: dataDir,
		options: config.Options,
		log:     config.Logger,
		readers: make(map[uint64]*segmentReader),
	}

	ids, err := seginfo.DiscoverSegmentIDs(dataDir)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if err := s.openReader(id); err != nil {
			s.Close()
			return nil, err
		}
	}

	config.Logger.Infow("storage initialized", "dataDir", dataDir, "segments", ids)
	return s, nil
}

func (s *Storage) openReader(id uint64) error {
	path := s.SegmentPath(id)
	file, err := os.Open(path)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for reading").
			WithSegmentID(int(id)).
			WithPath(path)
	}
	s.readers[id] = &segmentReader{id: id, file: file}
	return nil
}

// SegmentPath returns the full path of segment id's log file.
func (s *Storage) SegmentPath(id uint64) string {
	return filepath.Join(s.dataDir, seginfo.GenerateName(id))
}

// StagingPath returns the full path of the in-progress compaction file.
func (s *Storage) StagingPath() string {
	return filepath.Join(s.dataDir, StagingFileName)
}

// Dir returns the data directory Storage was opened against.
func (s *Storage) Dir() string { return s.dataDir }

// ActiveID returns the id of the current active segment, and whether one
// has been opened yet.
func (s *Storage) ActiveID() (uint64, bool) {
	return s.activeID, s.activeFile != nil
}

// ActiveOffset returns the current size, in bytes, of the active segment.
func (s *Storage) ActiveOffset() int64 { return s.activeOffset }

// SegmentIDs returns every segment id Storage currently knows about,
// including the active one, in no particular order.
func (s *Storage) SegmentIDs() []uint64 {
	ids := make([]uint64, 0, len(s.readers)+1)
	for id := range s.readers {
		ids = append(ids, id)
	}
	if s.activeFile != nil {
		ids = append(ids, s.activeID)
	}
	return ids
}

// BeginActiveSegment opens (creating if necessary) id.log as the active
// segment new writes append to. It fails if an active segment is already
// open; call Roll to switch segments instead.
func (s *Storage) BeginActiveSegment(id uint64) error {
	if s.activeFile != nil {
		return fmt.Errorf("storage: active segment %d already open", s.activeID)
	}

	path := s.SegmentPath(id)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open active segment").
			WithSegmentID(int(id)).
			WithPath(path)
	}

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to end of active segment").
			WithSegmentID(int(id)).
			WithPath(path)
	}

	s.activeFile = file
	s.activeID = id
	s.activeOffset = offset

	s.log.Infow("active segment opened", "segmentID", id, "offset", offset)
	return nil
}

// Roll stops appending to the current active segment, demoting it to an
// ordinary reader over the same open file handle, and opens newID as the
// new active segment.
func (s *Storage) Roll(newID uint64) error {
	if s.activeFile == nil {
		return s.BeginActiveSegment(newID)
	}

	prevID, prevFile := s.activeID, s.activeFile
	s.readers[prevID] = &segmentReader{id: prevID, file: prevFile}
	s.activeFile = nil

	s.log.Infow("rolling segment", "from", prevID, "to", newID)
	return s.BeginActiveSegment(newID)
}

// Write appends data to the active segment and returns the segment id and
// the byte offset the write began at.
func (s *Storage) Write(data []byte) (id uint64, offset int64, err error) {
	if s.activeFile == nil {
		return 0, 0, fmt.Errorf("storage: no active segment open")
	}

	offset = s.activeOffset
	n, err := s.activeFile.Write(data)
	if err != nil {
		return 0, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append record").
			WithSegmentID(int(s.activeID)).
			WithOffset(int(offset))
	}
	s.activeOffset += int64(n)
	return s.activeID, offset, nil
}

// Sync flushes the active segment's data to stable storage.
func (s *Storage) Sync() error {
	if s.activeFile == nil {
		return nil
	}
	if err := s.activeFile.Sync(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to sync active segment").
			WithSegmentID(int(s.activeID))
	}
	return nil
}

func (s *Storage) fileFor(id uint64) (*os.File, bool) {
	if s.activeFile != nil && id == s.activeID {
		return s.activeFile, true
	}
	if r, ok := s.readers[id]; ok {
		return r.file, true
	}
	return nil, false
}

// HasSegment reports whether a reader (or the active writer) exists for
// segment id. An Index Location pointing at a missing segment indicates an
// internal inconsistency between the Index and Storage.
func (s *Storage) HasSegment(id uint64) bool {
	_, ok := s.fileFor(id)
	return ok
}

// ReadAt reads exactly length bytes of segment id starting at offset.
func (s *Storage) ReadAt(id uint64, offset, length int64) ([]byte, error) {
	file, ok := s.fileFor(id)
	if !ok {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeIO, "no such segment").
			WithSegmentID(int(id))
	}

	buf := make([]byte, length)
	if _, err := file.ReadAt(buf, offset); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read record").
			WithSegmentID(int(id)).
			WithOffset(int(offset))
	}
	return buf, nil
}

// OpenSegmentStream returns an io.Reader over the full current contents of
// segment id, for sequential replay. It is backed by ReadAt, so it never
// disturbs the active segment's append offset.
func (s *Storage) OpenSegmentStream(id uint64) (io.Reader, error) {
	file, ok := s.fileFor(id)
	if !ok {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeIO, "no such segment").
			WithSegmentID(int(id))
	}

	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment").
			WithSegmentID(int(id))
	}

	return io.NewSectionReader(file, 0, info.Size()), nil
}

// CreateStagingFile creates (or truncates) the not_commit.dat file
// compaction writes its rebuilt segment into, opened for writing.
func (s *Storage) CreateStagingFile() (*os.File, error) {
	path := s.StagingPath()
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create staging file").
			WithPath(path)
	}
	return file, nil
}

// HasStagingFile reports whether a not_commit.dat staging file from an
// interrupted compaction is present in the data directory.
func (s *Storage) HasStagingFile() (bool, error) {
	return filesys.Exists(s.StagingPath())
}

// CommitStaging atomically renames the staging file into place as newID's
// segment file. This rename is the linearization point of compaction: a
// process that crashes before it completes leaves not_commit.dat behind,
// which the next Open recovers from; one that crashes after sees only the
// new segment.
func (s *Storage) CommitStaging(newID uint64) error {
	target := s.SegmentPath(newID)
	if err := os.Rename(s.StagingPath(), target); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to commit staging file").
			WithSegmentID(int(newID)).
			WithPath(target)
	}
	return nil
}

// AdoptReader opens id.log and registers it as a reader. Used after
// CommitStaging, by both compaction and crash recovery, to bring the
// resulting segment under management without going through
// BeginActiveSegment.
func (s *Storage) AdoptReader(id uint64) error {
	return s.openReader(id)
}

// DeleteSegments closes and removes every segment file named by ids. It is
// used by compaction to discard the segments a rebuilt segment superseded.
func (s *Storage) DeleteSegments(ids []uint64) error {
	for _, id := range ids {
		if r, ok := s.readers[id]; ok {
			r.file.Close()
			delete(s.readers, id)
		}

		path := s.SegmentPath(id)
		if err := filesys.DeleteFile(path); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to delete superseded segment").
				WithSegmentID(int(id)).
				WithPath(path)
		}
	}
	return nil
}

// CloseWriter closes the active segment's file handle without deleting it.
// Used by compaction so that the segment that was active can be deleted
// along with the others.
func (s *Storage) CloseWriter() error {
	if s.activeFile == nil {
		return nil
	}
	err := s.activeFile.Close()
	s.activeFile = nil
	return err
}

// Close releases every open file handle. A second Close is a no-op.
func (s *Storage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	var firstErr error
	if s.activeFile != nil {
		if err := s.activeFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.activeFile = nil
	}

	for id, r := range s.readers {
		if err := r.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.readers, id)
	}

	return firstErr
}
