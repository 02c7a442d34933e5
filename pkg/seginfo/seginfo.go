// Package seginfo names, parses, and discovers ignitekv's segment files.
//
// Filename format: <id>.log, where id is a nonnegative decimal integer with
// no zero-padding. The file whose id is largest among those present is the
// active segment; every other one is immutable. This is deliberately
// simpler than a timestamped, prefixed naming scheme: ignitekv's segment
// ids are already strictly increasing for the life of the store, so the id
// alone is enough to order and to name a segment.
package seginfo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nilraj/ignitekv/pkg/errors"
	"github.com/nilraj/ignitekv/pkg/filesys"
)

// Extension is the file extension every segment file carries.
const Extension = ".log"

// GenerateName returns the filename for the segment with the given id.
func GenerateName(id uint64) string {
	return strconv.FormatUint(id, 10) + Extension
}

// ParseSegmentID extracts the numeric id from a segment filename (or full
// path — only the base name is considered). It returns false if the name
// does not parse as "<nonnegative integer>.log".
func ParseSegmentID(path string) (uint64, bool) {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, Extension)
	if stem == name {
		// No .log suffix present.
		return 0, false
	}

	id, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// DiscoverSegmentIDs lists every valid segment id present in dir, sorted
// ascending. Files that don't match the <id>.log pattern are silently
// ignored.
func DiscoverSegmentIDs(dir string) ([]uint64, error) {
	paths, err := filesys.SearchFileExtensions(dir, Extension)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to list segment directory",
		).WithPath(dir)
	}

	ids := make([]uint64, 0, len(paths))
	for _, p := range paths {
		id, ok := ParseSegmentID(p)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// GetFileInfo safely retrieves file system metadata for a given path.
func GetFileInfo(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
