package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reconciliation pipeline.
var (
	// ErrCatalogLoad indicates the catalog could not be read or parsed. It is
	// the only failure that aborts a run before any mutation.
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrNotFound indicates an image reference resolved to no file.
	ErrNotFound = errors.New("not found")

	// ErrConversion indicates an image could not be decoded or encoded.
	ErrConversion = errors.New("conversion failed")

	// ErrLocked indicates another run holds the asset directory lock.
	ErrLocked = errors.New("asset directory is locked")
)

// CatalogError wraps a fatal catalog load or parse failure.
type CatalogError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *CatalogError) Unwrap() error { return e.Err }

// Is implements errors.Is support.
func (e *CatalogError) Is(target error) bool { return target == ErrCatalogLoad }

// ResolveError reports a record whose image reference matched no file.
type ResolveError struct {
	Record    string
	Reference string
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("image not found for %q: %s", e.Record, e.Reference)
}

// Is implements errors.Is support.
func (e *ResolveError) Is(target error) bool { return target == ErrNotFound }

// ConversionError reports a failed decode or encode of one source file.
type ConversionError struct {
	Record string
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s for %q: %v", e.Source, e.Record, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ConversionError) Unwrap() error { return e.Err }

// Is implements errors.Is support.
func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// IOError represents a failed filesystem operation.
type IOError struct {
	Operation string // "read", "write", "delete", "rename", "copy"
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error { return e.Err }

// NewIOError creates a new IOError.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// LockError reports that the asset directory lock could not be taken.
type LockError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lock %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("lock %s: held by another run", e.Path)
}

// Unwrap implements errors.Unwrap.
func (e *LockError) Unwrap() error { return e.Err }

// Is implements errors.Is support.
func (e *LockError) Is(target error) bool { return target == ErrLocked }

// IsCatalogLoad reports whether err is a fatal catalog load failure.
func IsCatalogLoad(err error) bool {
	return errors.Is(err, ErrCatalogLoad)
}

// IsLocked reports whether err came from a held asset directory lock.
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}
