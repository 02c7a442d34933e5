package options

const (
	// DefaultDataDir specifies the default base directory where ignitekv
	// will store its data files, used when no other directory is specified.
	DefaultDataDir = "/var/lib/ignitekv"

	// DefaultSingleLogSize is the default segment rollover threshold: 1 MiB.
	DefaultSingleLogSize uint64 = 1024 * 1024

	// DefaultCompactThreshold is the default rubbish threshold that
	// triggers compaction: 1 MiB.
	DefaultCompactThreshold uint64 = 1024 * 1024
)

// defaultOptions holds the default configuration settings for a new Store.
var defaultOptions = Options{
	DataDir:          DefaultDataDir,
	SingleLogSize:    DefaultSingleLogSize,
	CompactThreshold: DefaultCompactThreshold,
}

// NewDefaultOptions returns a copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
