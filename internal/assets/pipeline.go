// Package assets reconciles catalog image references with the asset
// directory in one two-phase pass. Phase one resolves and normalizes every
// record while building the reference set; phase two sweeps the directory
// with the completed set. No file is deleted before phase one finishes.
package assets

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/folio/internal/catalog"
	"github.com/mesh-intelligence/folio/internal/logging"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Options tune a single run.
type Options struct {
	// DryRun plans conversions, rewrites, and deletions without touching disk.
	DryRun bool

	// Backup copies the catalog to <catalog>.bak before it is rewritten.
	Backup bool
}

// Reconciler runs the resolve, normalize, sweep pipeline.
type Reconciler struct {
	cfg       types.Config
	converter Converter
	opts      Options
	now       func() time.Time
}

// NewReconciler creates a Reconciler for cfg using converter for format
// normalization.
func NewReconciler(cfg types.Config, converter Converter, opts Options) *Reconciler {
	return &Reconciler{
		cfg:       cfg,
		converter: converter,
		opts:      opts,
		now:       time.Now,
	}
}

// Run executes one reconciliation. Recoverable problems are logged and
// counted in the report; the returned error is non-nil only for fatal
// failures (catalog load, lock, asset directory listing, catalog write).
// A failed catalog load happens before any mutation.
func (r *Reconciler) Run(ctx context.Context) (*types.Report, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	runID := NewRunID()
	ctx = logging.WithRunID(ctx, runID)
	log := *logging.FromContext(ctx)

	report := &types.Report{
		RunID:     runID,
		StartedAt: r.now().UTC(),
		Catalog:   r.cfg.CatalogPath(),
		AssetDir:  r.cfg.AssetPath(),
		DryRun:    r.opts.DryRun,
	}

	cat, err := catalog.Load(report.Catalog)
	if err != nil {
		log.Error().Err(err).Str(logging.FieldPath, report.Catalog).Msg("cannot load catalog")
		return nil, err
	}
	report.Records = len(cat.Records)
	log.Info().Str(logging.FieldPath, cat.Path).Int("records", report.Records).Msg("loaded catalog")

	if info, err := os.Stat(report.AssetDir); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		ioErr := types.NewIOError("read", report.AssetDir, err)
		log.Error().Err(ioErr).Msg("asset directory unavailable")
		return nil, ioErr
	}

	if !r.opts.DryRun {
		lock, err := Lock(report.AssetDir)
		if err != nil {
			log.Error().Err(err).Msg("cannot lock asset directory")
			return nil, err
		}
		defer lock.Unlock()
	}

	refs, dirty := r.resolveAll(cat, report, log)

	if dirty && !r.opts.DryRun {
		if err := r.save(cat, log); err != nil {
			return report, err
		}
		report.CatalogWritten = true
	} else if !dirty {
		log.Info().Msg("no image references required updating")
	}

	sweeper := NewSweeper(report.AssetDir, r.opts.DryRun, log)
	if _, err := sweeper.Sweep(refs, report); err != nil {
		log.Error().Err(err).Msg("sweep aborted")
		return report, err
	}

	report.FinishedAt = r.now().UTC()
	log.Info().
		Int("updated", report.Updated).
		Int("deleted", report.Deleted).
		Int("warnings", report.Warnings).
		Int("errors", report.Errors).
		Bool("dry_run", report.DryRun).
		Msg("reconcile complete")
	return report, nil
}

// resolveAll is phase one: it resolves and normalizes every record and
// returns the completed reference set and whether any image changed.
func (r *Reconciler) resolveAll(cat *catalog.Catalog, report *types.Report, log zerolog.Logger) (*ReferenceSet, bool) {
	resolver := NewResolver(r.cfg.ProjectRoot, report.AssetDir)
	normalizer := NewNormalizer(r.cfg, r.converter, r.opts.DryRun, log)
	refs := NewReferenceSet()
	rlog := logging.Component(log, "resolver")

	dirty := false
	for _, rec := range cat.Records {
		ref := rec.Image()
		if ref == "" {
			continue
		}
		src, ok := resolver.Resolve(ref)
		if !ok {
			rlog.Warn().
				Err(&types.ResolveError{Record: rec.Name(), Reference: ref}).
				Str(logging.FieldRecord, rec.Name()).
				Str(logging.FieldImage, ref).
				Msg("image not found")
			report.Add(types.Action{Kind: types.ActionUnresolved, Record: rec.Name(), Path: ref})
			continue
		}
		rlog.Debug().Str(logging.FieldRecord, rec.Name()).Str(logging.FieldPath, src).Msg("resolved image")
		if normalizer.Normalize(rec, src, refs, report) {
			dirty = true
		}
	}
	return refs, dirty
}

func (r *Reconciler) save(cat *catalog.Catalog, log zerolog.Logger) error {
	if r.opts.Backup {
		bak, err := cat.Backup()
		if err != nil {
			log.Error().Err(err).Msg("catalog backup failed; catalog not rewritten")
			return err
		}
		log.Info().Str(logging.FieldPath, bak).Msg("catalog backed up")
	}
	if err := cat.Save(); err != nil {
		log.Error().Err(err).Msg("catalog write failed")
		return err
	}
	log.Info().Str(logging.FieldPath, cat.Path).Msg("catalog saved")
	return nil
}

// NewRunID returns a time-ordered run identifier (UUID v7, v4 on failure).
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
