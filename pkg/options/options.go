// Package options provides data structures and functions for configuring
// ignitekv. It defines the parameters that control the store's on-disk
// layout and the two size thresholds that drive segment rollover and
// compaction, following the functional-options pattern: build a default
// Options value, then apply zero or more OptionFunc values to override it.
package options

import (
	"strings"

	"github.com/nilraj/ignitekv/pkg/errors"
)

// Options defines the configuration parameters for an ignitekv Store. It
// provides control over where data lives on disk and when the store rolls
// over to a new segment or reclaims space via compaction.
type Options struct {
	// DataDir is the directory the Store owns. Segment files (<n>.log) and
	// the staging file (not_commit.dat) live directly inside it.
	//
	// Default: "/var/lib/ignitekv"
	DataDir string `json:"dataDir"`

	// SingleLogSize is the byte threshold for segment rollover: a Set that
	// leaves the active segment at least this large rolls it over to a new
	// one before returning.
	//
	// Default: 1 MiB
	SingleLogSize uint64 `json:"singleLogSize"`

	// CompactThreshold is the rubbish byte threshold past which a Set
	// triggers compaction before returning.
	//
	// Default: 1 MiB
	CompactThreshold uint64 `json:"compactThreshold"`
}

// OptionFunc is a function type that modifies the store's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to its default value. Useful as the
// first entry in a functional-options chain to discard whatever a caller
// constructed Options with before applying explicit overrides.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the primary data directory.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithSingleLogSize sets the segment rollover threshold, in bytes.
func WithSingleLogSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.SingleLogSize = size
		}
	}
}

// WithCompactThreshold sets the rubbish threshold, in bytes, that triggers
// compaction.
func WithCompactThreshold(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.CompactThreshold = size
		}
	}
}

// Validate checks that Options describes a usable store configuration. It
// is called from engine.New before any filesystem work happens, so a
// misconfigured caller fails fast with a ValidationError instead of midway
// through segment discovery.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.DataDir) == "" {
		return errors.NewRequiredFieldError("DataDir")
	}
	if o.SingleLogSize == 0 {
		return errors.NewFieldRangeError("SingleLogSize", o.SingleLogSize, 1, nil)
	}
	if o.CompactThreshold == 0 {
		return errors.NewFieldRangeError("CompactThreshold", o.CompactThreshold, 1, nil)
	}
	return nil
}
