package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/folio/internal/catalog"
	"github.com/mesh-intelligence/folio/internal/logging"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// fakeConverter stands in for the image codec. It writes a marker file and
// fails for sources listed in fail.
type fakeConverter struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeConverter) Convert(src, dst string) error {
	f.calls = append(f.calls, filepath.Base(src))
	if f.fail[filepath.Base(src)] {
		return errors.New("decode: unsupported image")
	}
	return os.WriteFile(dst, []byte("converted from "+filepath.Base(src)), 0o644)
}

// site is a throwaway project root with the default catalog and asset layout.
type site struct {
	root   string
	assets string
	cfg    types.Config
}

func newSite(t *testing.T, catalogJSON string) *site {
	t.Helper()
	root := t.TempDir()
	cfg := types.DefaultConfig(root)
	s := &site{root: root, assets: cfg.AssetPath(), cfg: cfg}
	require.NoError(t, os.MkdirAll(s.assets, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.CatalogPath()), 0o755))
	require.NoError(t, os.WriteFile(cfg.CatalogPath(), []byte(catalogJSON), 0o644))
	return s
}

func (s *site) touch(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(s.assets, name), []byte(name), 0o644))
	}
}

func (s *site) asset(name string) string {
	return filepath.Join(s.assets, name)
}

func (s *site) exists(name string) bool {
	_, err := os.Stat(s.asset(name))
	return err == nil
}

func (s *site) catalogBytes(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(s.cfg.CatalogPath())
	require.NoError(t, err)
	return data
}

func (s *site) records(t *testing.T) []*catalog.Record {
	t.Helper()
	cat, err := catalog.Load(s.cfg.CatalogPath())
	require.NoError(t, err)
	return cat.Records
}

func (s *site) image(t *testing.T, name string) string {
	t.Helper()
	for _, rec := range s.records(t) {
		if rec.Name() == name {
			return rec.Image()
		}
	}
	t.Fatalf("record %q not found", name)
	return ""
}

func newTestLog(t *testing.T) *logging.TestLogger {
	return logging.NewTestLogger(t)
}

func newRecord(t *testing.T, name, image string) *catalog.Record {
	t.Helper()
	rec, err := catalog.NewRecord(catalog.KeyName, name, catalog.KeyImage, image)
	require.NoError(t, err)
	return rec
}
