package types

import (
	"errors"
	"path/filepath"
	"strings"
)

// Config holds the locations and format choice for one reconciliation run.
// Relative Catalog and AssetDir values are resolved against ProjectRoot.
type Config struct {
	ProjectRoot string `json:"project_root" yaml:"project_root" mapstructure:"project_root"`
	Catalog     string `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	AssetDir    string `json:"asset_dir" yaml:"asset_dir" mapstructure:"asset_dir"`
	Mount       string `json:"mount" yaml:"mount" mapstructure:"mount"`
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	Backup      bool   `json:"backup" yaml:"backup" mapstructure:"backup"`
	Journal     bool   `json:"journal" yaml:"journal" mapstructure:"journal"`
	DataDir     string `json:"data_dir,omitempty" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
}

// Supported preferred encodings.
const (
	FormatWebP = "webp"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Defaults matching the layout of a Vite-style portfolio site.
const (
	DefaultCatalog  = "src/data/project.json"
	DefaultAssetDir = "src/assets/projects"
	DefaultMount    = "/src/assets/projects"
	DefaultFormat   = FormatWebP
)

// AcceptedExtensions is the ordered probe list used for extension fallback.
// Order matters: the first existing candidate wins.
var AcceptedExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Config validation errors.
var (
	ErrProjectRootEmpty = errors.New("project root must not be empty")
	ErrCatalogEmpty     = errors.New("catalog path must not be empty")
	ErrAssetDirEmpty    = errors.New("asset directory must not be empty")
	ErrMountInvalid     = errors.New("mount must be an absolute web path")
	ErrFormatUnknown    = errors.New("unknown image format")
)

// knownFormats maps a configured format to its file extension.
var knownFormats = map[string]string{
	FormatWebP: ".webp",
	FormatPNG:  ".png",
	FormatJPEG: ".jpg",
	"jpg":      ".jpg",
}

// DefaultConfig returns a Config rooted at root with every other field defaulted.
func DefaultConfig(root string) Config {
	return Config{
		ProjectRoot: root,
		Catalog:     DefaultCatalog,
		AssetDir:    DefaultAssetDir,
		Mount:       DefaultMount,
		Format:      DefaultFormat,
		Journal:     true,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectRoot) == "" {
		return ErrProjectRootEmpty
	}
	if strings.TrimSpace(c.Catalog) == "" {
		return ErrCatalogEmpty
	}
	if strings.TrimSpace(c.AssetDir) == "" {
		return ErrAssetDirEmpty
	}
	if !strings.HasPrefix(c.Mount, "/") {
		return ErrMountInvalid
	}
	if _, ok := knownFormats[strings.ToLower(c.Format)]; !ok {
		return ErrFormatUnknown
	}
	return nil
}

// CatalogPath returns the absolute catalog file path.
func (c Config) CatalogPath() string {
	return c.underRoot(c.Catalog)
}

// AssetPath returns the absolute asset directory path.
func (c Config) AssetPath() string {
	return c.underRoot(c.AssetDir)
}

// PreferredExt returns the lowercase extension, with leading dot, of the
// preferred encoding.
func (c Config) PreferredExt() string {
	if ext, ok := knownFormats[strings.ToLower(c.Format)]; ok {
		return ext
	}
	return knownFormats[DefaultFormat]
}

// IsPreferred reports whether a file extension already carries the preferred
// encoding. For jpeg both .jpg and .jpeg qualify.
func (c Config) IsPreferred(ext string) bool {
	ext = strings.ToLower(ext)
	want := c.PreferredExt()
	if want == ".jpg" && ext == ".jpeg" {
		return true
	}
	return ext == want
}

// WebPath returns the catalog reference for a file name inside the asset
// directory: the mount prefix, forward slashes, one leading slash.
func (c Config) WebPath(fileName string) string {
	mount := strings.TrimRight(filepath.ToSlash(c.Mount), "/")
	if mount == "" {
		return "/" + fileName
	}
	if !strings.HasPrefix(mount, "/") {
		mount = "/" + mount
	}
	return mount + "/" + fileName
}

func (c Config) underRoot(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		root = c.ProjectRoot
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// IsAcceptedExt reports whether ext (with leading dot, any case) is one of the
// accepted image extensions.
func IsAcceptedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range AcceptedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
