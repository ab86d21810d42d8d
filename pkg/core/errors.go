package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrNotFound indicates the requested id (optionally + version) has no
	// matching document in the catalog.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a write targeted an id+version that is
	// already on disk and override was not requested.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrVersionNotGreater indicates a versioning write supplied a new
	// version that is not strictly greater than the current one.
	ErrVersionNotGreater = errors.New("version is not greater than the current version")

	// ErrInvalidDirection indicates an edge-list mutation used a direction
	// other than "sends" or "receives".
	ErrInvalidDirection = errors.New("invalid message direction")

	// ErrAttachmentMissing indicates a declared attachment file is not
	// actually present on disk.
	ErrAttachmentMissing = errors.New("attachment file missing")

	// ErrLockTimeout indicates the write lock could not be acquired within
	// the retry and staleness budget.
	ErrLockTimeout = errors.New("timed out acquiring write lock")
)

// LocatorError wraps a failure to enumerate the catalog tree (permissions,
// I/O). It preserves the underlying error for errors.Is/As.
type LocatorError struct {
	Root string
	Err  error
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("failed to scan catalog tree at %s: %v", e.Root, e.Err)
}

func (e *LocatorError) Unwrap() error { return e.Err }
