package assets

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/folio/internal/logging"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Sweeper deletes asset files that no record references.
type Sweeper struct {
	dir    string
	dryRun bool
	log    zerolog.Logger

	// remove is os.Remove outside of tests.
	remove func(string) error
}

// NewSweeper creates a sweeper over dir. With dryRun set it reports what it
// would delete and deletes nothing.
func NewSweeper(dir string, dryRun bool, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		dir:    dir,
		dryRun: dryRun,
		log:    logging.Component(log, "sweeper"),
		remove: os.Remove,
	}
}

// Sweep lists the asset directory once, non-recursively, and deletes every
// regular file with an accepted image extension whose normalized path is not
// in refs. Deletion failures are logged and counted; the sweep continues.
// It returns the number of files deleted.
func (s *Sweeper) Sweep(refs *ReferenceSet, report *types.Report) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, types.NewIOError("read", s.dir, err)
	}

	deleted := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !types.IsAcceptedExt(filepath.Ext(e.Name())) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if refs.Has(path) {
			continue
		}

		if s.dryRun {
			s.log.Info().Str(logging.FieldPath, path).Bool("dry_run", true).Msg("would delete unused file")
			report.Add(types.Action{Kind: types.ActionDeleted, Path: path, Detail: "dry run"})
			deleted++
			continue
		}

		if err := s.remove(path); err != nil {
			s.log.Error().Err(err).Str(logging.FieldPath, path).Msg("failed to delete unused file")
			report.Add(types.Action{Kind: types.ActionDeleteFailed, Path: path, Detail: err.Error()})
			continue
		}
		s.log.Info().Str(logging.FieldPath, path).Msg("deleted unused file")
		report.Add(types.Action{Kind: types.ActionDeleted, Path: path})
		deleted++
	}
	return deleted, nil
}
