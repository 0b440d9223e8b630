package assets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/folio/internal/fileutil"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Resolver maps a record's web-style image reference to a file on disk.
type Resolver struct {
	root       string
	assetDir   string
	extensions []string
}

// NewResolver creates a resolver that joins references to root and falls
// back to probing assetDir for a same-stem file.
func NewResolver(root, assetDir string) *Resolver {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Resolver{
		root:       root,
		assetDir:   assetDir,
		extensions: types.AcceptedExtensions,
	}
}

// Literal returns the project-root path a reference names, without any
// fallback. An empty reference yields "".
func (r *Resolver) Literal(ref string) string {
	if ref == "" {
		return ""
	}
	if ref[0] == '/' || ref[0] == '\\' {
		ref = ref[1:]
	}
	ref = strings.ReplaceAll(ref, "\\", "/")
	return filepath.Join(r.root, filepath.FromSlash(ref))
}

// Resolve returns the file a reference points at. The literal path wins when
// it is an existing regular file; otherwise the asset directory is probed
// for <stem><ext> across the accepted extensions in order. ok is false for
// an empty reference or when nothing matches.
func (r *Resolver) Resolve(ref string) (path string, ok bool) {
	literal := r.Literal(ref)
	if literal == "" {
		return "", false
	}
	if fileutil.IsRegular(literal) {
		return literal, true
	}

	base := filepath.Base(literal)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "", false
	}
	for _, ext := range r.extensions {
		candidate := filepath.Join(r.assetDir, stem+ext)
		if fileutil.IsRegular(candidate) {
			return candidate, true
		}
	}
	return r.probeFold(stem)
}

// probeFold repeats the extension probe ignoring extension case, so that
// "photo.JPG" satisfies a ".jpg" probe on case-sensitive filesystems.
func (r *Resolver) probeFold(stem string) (string, bool) {
	entries, err := os.ReadDir(r.assetDir)
	if err != nil {
		return "", false
	}
	for _, ext := range r.extensions {
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			name := e.Name()
			got := filepath.Ext(name)
			if strings.TrimSuffix(name, got) == stem && strings.EqualFold(got, ext) {
				return filepath.Join(r.assetDir, name), true
			}
		}
	}
	return "", false
}
