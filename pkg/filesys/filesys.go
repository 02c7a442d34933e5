// Package filesys provides the small set of file system primitives
// ignitekv's storage layer needs: creating the store directory, checking
// for the staging file, discovering segment files, and removing both.
package filesys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrIsNotDir indicates a path that was expected to be a directory is
	// actually a regular file.
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at the specified path with the given
// permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		if err == nil {
			return fs.ErrExist
		}
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, permission)
}

// SearchFileExtensions returns the full paths of every regular file directly
// inside sourceDir whose extension matches extension (e.g. ".log"). It does
// not recurse into subdirectories, since segment files always live directly
// inside the store directory.
func SearchFileExtensions(sourceDir, extension string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != extension {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(sourceDir, entry.Name()))
	}

	return files, nil
}

// DeleteFile deletes the file at the specified filePath. It returns nil if
// the file is already absent.
func DeleteFile(filePath string) error {
	err := os.Remove(filePath)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists checks if a file or directory at the given path exists. It returns
// true if the path exists, false if it does not, and an error only for
// failures other than non-existence.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
