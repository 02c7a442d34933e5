package errors

import stdErrors "errors"

// StoreError is the error type surfaced by the engine's public Set, Get,
// and Remove operations. It carries the four kinds the store's external
// contract promises: IO, Serde, KeyNotFound, and UnknownCommand. Unlike
// StorageError and IndexError, which describe why a subsystem failed
// internally, StoreError describes what the caller of the public API sees.
type StoreError struct {
	*baseError

	// key identifies which key the failing operation was processing.
	key string

	// segmentID identifies which segment the failing record lived in, when
	// the error originated from a read against a specific location.
	segmentID uint64
}

// NewStoreError creates a new store-specific error with the provided context.
func NewStoreError(err error, code ErrorCode, msg string) *StoreError {
	return &StoreError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the StoreError type.
func (se *StoreError) WithMessage(msg string) *StoreError {
	se.baseError.WithMessage(msg)
	return se
}

// WithDetail adds contextual information while maintaining the StoreError type.
func (se *StoreError) WithDetail(key string, value any) *StoreError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithKey records which key the failing operation was processing.
func (se *StoreError) WithKey(key string) *StoreError {
	se.key = key
	return se
}

// WithSegmentID records which segment the failing operation touched.
func (se *StoreError) WithSegmentID(id uint64) *StoreError {
	se.segmentID = id
	return se
}

// Key returns the key the failing operation was processing.
func (se *StoreError) Key() string {
	return se.key
}

// SegmentID returns the segment the failing operation touched.
func (se *StoreError) SegmentID() uint64 {
	return se.segmentID
}

// Is reports whether target is a StoreError with the same error code. This
// lets callers compare against the package-level sentinels below with
// errors.Is even though each call site builds a fresh instance carrying its
// own key/segment context.
func (se *StoreError) Is(target error) bool {
	other, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return se.Code() == other.Code()
}

// Sentinel StoreErrors for the two kinds callers branch on most often. Build
// richer instances with NewStoreError(...).WithKey(...) at the call site;
// compare against these with errors.Is.
var (
	// ErrKeyNotFound is returned by Remove for an absent key, and by Get when
	// an Index entry points at a reader the Storage pool no longer has.
	ErrKeyNotFound = NewStoreError(nil, ErrorCodeKeyNotFound, "key not found")

	// ErrUnknownCommand is returned by Get when an Index entry's Location
	// decodes to an Rm record instead of a Set — an Index/segment
	// inconsistency rather than ordinary absence of the key.
	ErrUnknownCommand = NewStoreError(nil, ErrorCodeUnknownCommand, "index pointed at a non-Set record")
)

// IsStoreError checks if the given error is a StoreError or contains one in its chain.
func IsStoreError(err error) bool {
	var se *StoreError
	return stdErrors.As(err, &se)
}

// AsStoreError extracts a StoreError from an error chain.
func AsStoreError(err error) (*StoreError, bool) {
	var se *StoreError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}
