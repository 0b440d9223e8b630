package assets

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// LockFileName is the advisory lock taken inside the asset directory for
// the duration of a run. Its extension keeps it out of the sweep.
const LockFileName = ".folio.lock"

// Lock takes the asset directory lock without blocking. The caller must call
// Unlock on the returned lock.
func Lock(assetDir string) (*flock.Flock, error) {
	path := filepath.Join(assetDir, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, &types.LockError{Path: path, Err: err}
	}
	if !ok {
		return nil, &types.LockError{Path: path}
	}
	return lock, nil
}
