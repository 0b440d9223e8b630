package audit

import (
	"context"
	"time"

	"github.com/mesh-intelligence/folio/internal/assets"
	"github.com/mesh-intelligence/folio/internal/catalog"
	"github.com/mesh-intelligence/folio/internal/fileutil"
	"github.com/mesh-intelligence/folio/internal/logging"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// PruneOptions tune a prune run.
type PruneOptions struct {
	DryRun bool
	Backup bool
}

// Prune clears the image of every record whose literal path does not exist.
// There is no extension fallback: a reference either names a file or it is
// cleared. The catalog is written once, and only if something changed.
func Prune(ctx context.Context, cfg types.Config, opts PruneOptions) (*types.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := assets.NewRunID()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.Component(*logging.FromContext(ctx), "prune")

	report := &types.Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Catalog:   cfg.CatalogPath(),
		AssetDir:  cfg.AssetPath(),
		DryRun:    opts.DryRun,
	}

	cat, err := catalog.Load(report.Catalog)
	if err != nil {
		log.Error().Err(err).Str(logging.FieldPath, report.Catalog).Msg("cannot load catalog")
		return nil, err
	}
	report.Records = len(cat.Records)

	if !opts.DryRun && fileutil.Exists(report.AssetDir) {
		lock, err := assets.Lock(report.AssetDir)
		if err != nil {
			log.Error().Err(err).Msg("cannot lock asset directory")
			return nil, err
		}
		defer lock.Unlock()
	}

	resolver := assets.NewResolver(cfg.ProjectRoot, report.AssetDir)
	for _, rec := range cat.Records {
		ref := rec.Image()
		if ref == "" || fileutil.Exists(resolver.Literal(ref)) {
			continue
		}
		log.Warn().
			Str(logging.FieldRecord, rec.Name()).
			Str(logging.FieldImage, ref).
			Bool("dry_run", opts.DryRun).
			Msg("clearing broken image reference")
		rec.SetImage("")
		detail := ""
		if opts.DryRun {
			detail = "dry run"
		}
		report.Add(types.Action{Kind: types.ActionCleared, Record: rec.Name(), Path: ref, Detail: detail})
	}

	if report.Updated > 0 && !opts.DryRun {
		if opts.Backup {
			if _, err := cat.Backup(); err != nil {
				log.Error().Err(err).Msg("catalog backup failed; catalog not rewritten")
				return report, err
			}
		}
		if err := cat.Save(); err != nil {
			log.Error().Err(err).Msg("catalog write failed")
			return report, err
		}
		report.CatalogWritten = true
	}

	report.FinishedAt = time.Now().UTC()
	log.Info().Int("cleared", report.Updated).Bool("dry_run", opts.DryRun).Msg("prune complete")
	return report, nil
}
