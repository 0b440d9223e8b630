package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func TestNormalizePreferredIsUntouched(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "a.WEBP")
	conv := &fakeConverter{}
	n := NewNormalizer(s.cfg, conv, false, newTestLog(t).Logger)

	rec := newRecord(t, "Alpha", "/src/assets/projects/a.WEBP")
	refs := NewReferenceSet()
	report := &types.Report{}

	assert.False(t, n.Normalize(rec, s.asset("a.WEBP"), refs, report))
	assert.Equal(t, "/src/assets/projects/a.WEBP", rec.Image())
	assert.True(t, refs.Has(s.asset("a.webp")))
	assert.Empty(t, conv.calls)
	assert.Empty(t, report.Actions)
}

func TestNormalizeConverts(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "a.jpg")
	conv := &fakeConverter{}
	n := NewNormalizer(s.cfg, conv, false, newTestLog(t).Logger)

	rec := newRecord(t, "Alpha", "/src/assets/projects/a.jpg")
	refs := NewReferenceSet()
	report := &types.Report{}

	require.True(t, n.Normalize(rec, s.asset("a.jpg"), refs, report))
	assert.Equal(t, "/src/assets/projects/a.webp", rec.Image())
	assert.True(t, s.exists("a.webp"))
	assert.True(t, s.exists("a.jpg"), "source must survive normalization")
	assert.True(t, refs.Has(s.asset("a.webp")))
	assert.False(t, refs.Has(s.asset("a.jpg")))
	assert.Equal(t, 1, report.Updated)
}

func TestNormalizeFailureKeepsOriginal(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "bad.png")
	conv := &fakeConverter{fail: map[string]bool{"bad.png": true}}
	tl := newTestLog(t)
	n := NewNormalizer(s.cfg, conv, false, tl.Logger)

	rec := newRecord(t, "Broken", "/src/assets/projects/bad.png")
	refs := NewReferenceSet()
	report := &types.Report{}

	assert.False(t, n.Normalize(rec, s.asset("bad.png"), refs, report))
	assert.Equal(t, "/src/assets/projects/bad.png", rec.Image())
	assert.True(t, refs.Has(s.asset("bad.png")))
	assert.False(t, s.exists("bad.webp"))
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Count(types.ActionConvertFailed))

	errs := tl.AtLevel("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Broken", errs[0]["record"])
	assert.Equal(t, s.asset("bad.png"), errs[0]["path"])
}

func TestNormalizeSharedSourceConvertsOnce(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "shared.png")
	conv := &fakeConverter{}
	n := NewNormalizer(s.cfg, conv, false, newTestLog(t).Logger)
	refs := NewReferenceSet()
	report := &types.Report{}

	for _, name := range []string{"One", "Two"} {
		rec := newRecord(t, name, "/src/assets/projects/shared.png")
		require.True(t, n.Normalize(rec, s.asset("shared.png"), refs, report))
		assert.Equal(t, "/src/assets/projects/shared.webp", rec.Image())
	}
	assert.Equal(t, []string{"shared.png"}, conv.calls)
	assert.Equal(t, 2, report.Updated)
}

func TestNormalizeDryRunWritesNothing(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "a.jpg")
	conv := &fakeConverter{}
	n := NewNormalizer(s.cfg, conv, true, newTestLog(t).Logger)

	rec := newRecord(t, "Alpha", "/src/assets/projects/a.jpg")
	report := &types.Report{}

	assert.True(t, n.Normalize(rec, s.asset("a.jpg"), NewReferenceSet(), report))
	assert.Empty(t, conv.calls)
	assert.False(t, s.exists("a.webp"))
	require.Len(t, report.Actions, 1)
	assert.Equal(t, "dry run", report.Actions[0].Detail)
}

func TestNormalizeOutsideAssetDir(t *testing.T) {
	s := newSite(t, "[]")
	other := filepath.Join(s.root, "public", "img")
	require.NoError(t, os.MkdirAll(other, 0o755))
	src := filepath.Join(other, "logo.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	n := NewNormalizer(s.cfg, &fakeConverter{}, false, newTestLog(t).Logger)
	rec := newRecord(t, "Logo", "/public/img/logo.png")

	require.True(t, n.Normalize(rec, src, NewReferenceSet(), &types.Report{}))
	assert.Equal(t, "/public/img/logo.webp", rec.Image())

	r := NewResolver(s.root, s.assets)
	got, ok := r.Resolve(rec.Image())
	require.True(t, ok)
	assert.Equal(t, filepath.Join(other, "logo.webp"), got)
}

func TestNormalizeOtherPreferredFormat(t *testing.T) {
	s := newSite(t, "[]")
	s.cfg.Format = types.FormatPNG
	s.touch(t, "a.jpg", "b.png")
	n := NewNormalizer(s.cfg, &fakeConverter{}, false, newTestLog(t).Logger)
	refs := NewReferenceSet()

	b := newRecord(t, "B", "/src/assets/projects/b.png")
	assert.False(t, n.Normalize(b, s.asset("b.png"), refs, &types.Report{}))

	a := newRecord(t, "A", "/src/assets/projects/a.jpg")
	assert.True(t, n.Normalize(a, s.asset("a.jpg"), refs, &types.Report{}))
	assert.Equal(t, "/src/assets/projects/a.png", a.Image())
}

func TestNormalizeWarnsOnReferencedCollision(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "a.webp", "a.jpg")
	conv := &fakeConverter{}
	tl := newTestLog(t)
	n := NewNormalizer(s.cfg, conv, false, tl.Logger)
	refs := NewReferenceSet()
	report := &types.Report{}

	keep := newRecord(t, "Keep", "/src/assets/projects/a.webp")
	assert.False(t, n.Normalize(keep, s.asset("a.webp"), refs, report))

	other := newRecord(t, "Other", "/src/assets/projects/a.jpg")
	require.True(t, n.Normalize(other, s.asset("a.jpg"), refs, report))
	assert.Equal(t, "/src/assets/projects/a.webp", other.Image())
	assert.Equal(t, []string{"a.jpg"}, conv.calls)

	warns := tl.AtLevel("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "Other", warns[0]["record"])
	assert.Equal(t, s.asset("a.webp"), warns[0]["path"])
}

func TestNormalizeNoWarningForUnreferencedTarget(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "a.webp", "a.jpg")
	tl := newTestLog(t)
	n := NewNormalizer(s.cfg, &fakeConverter{}, false, tl.Logger)

	rec := newRecord(t, "Alpha", "/src/assets/projects/a.jpg")
	require.True(t, n.Normalize(rec, s.asset("a.jpg"), NewReferenceSet(), &types.Report{}))
	assert.Empty(t, tl.AtLevel("warn"))
}

func TestNormalizeUnchangedReferenceIsNotDirty(t *testing.T) {
	s := newSite(t, "[]")
	s.touch(t, "x.png")
	conv := &fakeConverter{}
	n := NewNormalizer(s.cfg, conv, false, newTestLog(t).Logger)
	refs := NewReferenceSet()
	report := &types.Report{}

	rec := newRecord(t, "X", "/src/assets/projects/x.webp")
	assert.False(t, n.Normalize(rec, s.asset("x.png"), refs, report))
	assert.Equal(t, "/src/assets/projects/x.webp", rec.Image())
	assert.Equal(t, []string{"x.png"}, conv.calls)
	assert.True(t, s.exists("x.webp"))
	assert.True(t, refs.Has(s.asset("x.webp")))
	assert.Zero(t, report.Updated)
	assert.Empty(t, report.Actions)
}
