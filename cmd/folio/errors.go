package main

import (
	"errors"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError pins an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// exitCodeFor maps an error to an exit code. Catalog, lock, and filesystem
// failures are system errors; anything else (flags, config) is the user's.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var ioErr *types.IOError
	switch {
	case errors.Is(err, types.ErrCatalogLoad), errors.Is(err, types.ErrLocked), errors.As(err, &ioErr):
		return exitSysError
	}
	return exitUserError
}
