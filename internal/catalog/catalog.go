// Package catalog loads and persists the project catalog: a JSON array of
// records whose key order, record order, and untouched values survive a
// rewrite.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/folio/internal/fileutil"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Indent is the fixed indentation used when the catalog is rewritten.
const Indent = "    "

// BackupSuffix is appended to the catalog path for the pre-write backup.
const BackupSuffix = ".bak"

// Catalog is the in-memory record collection of one catalog file.
type Catalog struct {
	Path    string
	Records []*Record
}

// Load reads and parses the catalog at path. Any failure is returned as a
// *types.CatalogError, which callers treat as fatal.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.CatalogError{Path: path, Err: err}
	}
	records, err := Parse(data)
	if err != nil {
		return nil, &types.CatalogError{Path: path, Err: err}
	}
	return &Catalog{Path: path, Records: records}, nil
}

// Parse decodes a catalog document. The document must be a JSON array of
// objects.
func Parse(data []byte) ([]*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("catalog must be a JSON array")
	}
	var records []*Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("record %d is null", i)
		}
	}
	return records, nil
}

// Encode writes records as an indented JSON array followed by a newline.
func Encode(w io.Writer, records []*Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if records == nil {
		records = []*Record{}
	}
	return enc.Encode(records)
}

// Save atomically replaces the catalog file with the current records.
func (c *Catalog) Save() error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(c.Path); err == nil {
		perm = info.Mode().Perm()
	}
	err := fileutil.WriteAtomic(c.Path, perm, func(w io.Writer) error {
		return Encode(w, c.Records)
	})
	if err != nil {
		return types.NewIOError("write", c.Path, err)
	}
	return nil
}

// Backup copies the catalog file as it is on disk to Path+BackupSuffix and
// returns the backup path.
func (c *Catalog) Backup() (string, error) {
	dst := c.Path + BackupSuffix
	if err := fileutil.CopyFile(c.Path, dst); err != nil {
		return "", types.NewIOError("copy", dst, err)
	}
	return dst, nil
}

// Find returns the first record with the given name.
func (c *Catalog) Find(name string) (*Record, bool) {
	for _, rec := range c.Records {
		if rec.Name() == name {
			return rec, true
		}
	}
	return nil, false
}
