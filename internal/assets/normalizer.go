package assets

import (
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/folio/internal/catalog"
	"github.com/mesh-intelligence/folio/internal/fileutil"
	"github.com/mesh-intelligence/folio/internal/logging"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Converter writes an encoded copy of src at dst. Implementations must not
// leave a partial file at dst when they fail.
type Converter interface {
	Convert(src, dst string) error
}

// Normalizer brings resolved assets into the preferred encoding and points
// their records at the result. It never deletes the source file.
type Normalizer struct {
	cfg       types.Config
	converter Converter
	dryRun    bool
	log       zerolog.Logger

	// done maps a normalized source path to the output already produced for
	// it in this run, so shared images are encoded once.
	done map[string]string
}

// NewNormalizer creates a Normalizer. With dryRun set it plans conversions
// without writing anything.
func NewNormalizer(cfg types.Config, converter Converter, dryRun bool, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		cfg:       cfg,
		converter: converter,
		dryRun:    dryRun,
		log:       logging.Component(log, "normalizer"),
		done:      make(map[string]string),
	}
}

// Normalize handles one record whose image resolved to src. It adds the
// path the record ends up depending on to refs and reports whether the
// record's image field was rewritten.
func (n *Normalizer) Normalize(rec *catalog.Record, src string, refs *ReferenceSet, report *types.Report) bool {
	if n.cfg.IsPreferred(filepath.Ext(src)) {
		refs.Add(src)
		return false
	}

	dst := strings.TrimSuffix(src, filepath.Ext(src)) + n.cfg.PreferredExt()
	key := NormalizePath(src)

	if _, seen := n.done[key]; !seen {
		if refs.Has(dst) && fileutil.Exists(dst) {
			n.log.Warn().
				Str(logging.FieldRecord, rec.Name()).
				Str(logging.FieldPath, dst).
				Msg("overwriting converted file already referenced by another record")
		}
		if err := n.convert(src, dst); err != nil {
			convErr := &types.ConversionError{Record: rec.Name(), Source: src, Err: err}
			n.log.Error().
				Err(convErr).
				Str(logging.FieldRecord, rec.Name()).
				Str(logging.FieldPath, src).
				Msg("conversion failed; keeping original reference")
			refs.Add(src)
			report.Add(types.Action{Kind: types.ActionConvertFailed, Record: rec.Name(), Path: src, Detail: err.Error()})
			return false
		}
		n.done[key] = dst
	}

	ref := n.webPath(dst)
	refs.Add(dst)
	if rec.Image() == ref {
		n.log.Debug().
			Str(logging.FieldRecord, rec.Name()).
			Str(logging.FieldPath, src).
			Msg("converted image; reference unchanged")
		return false
	}
	rec.SetImage(ref)

	detail := ""
	if n.dryRun {
		detail = "dry run"
	}
	n.log.Info().
		Str(logging.FieldRecord, rec.Name()).
		Str(logging.FieldPath, src).
		Str(logging.FieldImage, ref).
		Bool("dry_run", n.dryRun).
		Msg("converted image")
	report.Add(types.Action{Kind: types.ActionConverted, Record: rec.Name(), Path: ref, Detail: detail})
	return true
}

func (n *Normalizer) convert(src, dst string) error {
	if n.dryRun {
		return nil
	}
	return n.converter.Convert(src, dst)
}

// webPath builds the catalog reference for dst. Files in the asset directory
// use the configured mount; anything else is addressed relative to the
// project root so the reference still resolves.
func (n *Normalizer) webPath(dst string) string {
	if NormalizePath(filepath.Dir(dst)) == NormalizePath(n.cfg.AssetPath()) {
		return n.cfg.WebPath(filepath.Base(dst))
	}
	root, err := filepath.Abs(n.cfg.ProjectRoot)
	if err != nil {
		root = n.cfg.ProjectRoot
	}
	rel, err := filepath.Rel(root, dst)
	if err != nil || strings.HasPrefix(rel, "..") {
		return n.cfg.WebPath(filepath.Base(dst))
	}
	return "/" + filepath.ToSlash(rel)
}
