// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (Index) with an append-only log
// structure on disk to achieve high throughput. It is designed for
// applications requiring fast read and write operations, such as caching,
// session management, and configuration storage, aiming to provide a
// simple, efficient, and reliable solution for embedded key-value storage
// in Go applications.
package ignite

import (
	"context"

	"github.com/nilraj/ignitekv/internal/engine"
	"github.com/nilraj/ignitekv/pkg/logger"
	"github.com/nilraj/ignitekv/pkg/options"
)

// Instance is the primary entry point for interacting with an ignitekv
// store. It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// NewInstance opens (creating if absent) an ignitekv store and returns an
// Instance ready for use. service names the structured logger; opts
// override the default Options.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Set stores key=value. If key already exists, its value is updated.
func (i *Instance) Set(ctx context.Context, key, value string) error {
	return i.engine.Set(key, value)
}

// Get retrieves the value associated with key. found is false, with a nil
// error, when key simply isn't present.
func (i *Instance) Get(ctx context.Context, key string) (value string, found bool, err error) {
	return i.engine.Get(key)
}

// Delete removes key. It returns a KeyNotFound error if key is absent.
func (i *Instance) Delete(ctx context.Context, key string) error {
	return i.engine.Remove(key)
}

// Sync flushes the active segment to stable storage. Writes are otherwise
// best-effort write-through with no guarantee of surviving a crash; callers
// that need a durability checkpoint at a specific point call Sync.
func (i *Instance) Sync(ctx context.Context) error {
	return i.engine.Sync()
}

// Close releases every resource the Instance holds: open segment file
// handles and the in-memory Index. A second Close returns an error.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
