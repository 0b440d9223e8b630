// Package audit checks a catalog for structural problems and clears image
// references that point at nothing. Unlike reconcile it never converts or
// deletes asset files.
package audit

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/mesh-intelligence/folio/internal/assets"
	"github.com/mesh-intelligence/folio/internal/catalog"
	"github.com/mesh-intelligence/folio/internal/fileutil"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Severity of a finding.
type Severity string

// Finding severities. Any error fails validation; warnings do not.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Optional fields with a checked shape.
const (
	KeyCoords = "coords"
	KeyTags   = "tags"
)

// Finding is one problem with one record.
type Finding struct {
	Severity Severity `json:"severity"`
	Index    int      `json:"index"`
	Record   string   `json:"record"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
}

// Result collects the findings of one validation pass in catalog order.
type Result struct {
	Records  int       `json:"records"`
	Findings []Finding `json:"findings"`
}

// Errors returns the number of error findings.
func (r *Result) Errors() int { return r.count(SeverityError) }

// Warnings returns the number of warning findings.
func (r *Result) Warnings() int { return r.count(SeverityWarning) }

// OK reports whether validation found no errors.
func (r *Result) OK() bool { return r.Errors() == 0 }

func (r *Result) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Validate checks every record of records against cfg. It reads the
// filesystem to confirm image paths but changes nothing.
func Validate(cfg types.Config, records []*catalog.Record) *Result {
	res := &Result{Records: len(records)}
	resolver := assets.NewResolver(cfg.ProjectRoot, cfg.AssetPath())
	seen := make(map[string]int, len(records))

	for i, rec := range records {
		v := recordCheck{res: res, index: i, label: label(rec, i)}

		name := rec.Name()
		switch first, dup := seen[name]; {
		case name == "":
			v.fail(catalog.KeyName, "missing name")
		case dup:
			v.fail(catalog.KeyName, fmt.Sprintf("duplicate name, first used by item %d", first))
		default:
			seen[name] = i
		}

		if raw, ok := rec.Raw(KeyCoords); ok {
			checkCoords(v, raw)
		}
		if raw, ok := rec.Raw(KeyTags); ok {
			if _, isList := decode(raw).([]any); !isList && !isNull(raw) {
				v.fail(KeyTags, fmt.Sprintf("tags is not a list: %s", kindOf(raw)))
			}
		}
		checkImage(v, rec, cfg, resolver)
	}
	return res
}

type recordCheck struct {
	res   *Result
	index int
	label string
}

func (c recordCheck) add(s Severity, field, msg string) {
	c.res.Findings = append(c.res.Findings, Finding{
		Severity: s,
		Index:    c.index,
		Record:   c.label,
		Field:    field,
		Message:  msg,
	})
}

func (c recordCheck) fail(field, msg string) { c.add(SeverityError, field, msg) }
func (c recordCheck) warn(field, msg string) { c.add(SeverityWarning, field, msg) }

func checkCoords(c recordCheck, raw json.RawMessage) {
	if isNull(raw) {
		return
	}
	list, ok := decode(raw).([]any)
	if !ok {
		c.fail(KeyCoords, fmt.Sprintf("coords is not a list: %s", kindOf(raw)))
		return
	}
	switch len(list) {
	case 0:
	case 2:
		for _, v := range list {
			if _, isNum := v.(float64); !isNum {
				c.fail(KeyCoords, fmt.Sprintf("coords contains non-numbers: %s", raw))
				return
			}
		}
	default:
		c.fail(KeyCoords, fmt.Sprintf("coords has invalid length: %d", len(list)))
	}
}

func checkImage(c recordCheck, rec *catalog.Record, cfg types.Config, resolver *assets.Resolver) {
	raw, ok := rec.Raw(catalog.KeyImage)
	if !ok || isNull(raw) {
		return
	}
	if _, isStr := decode(raw).(string); !isStr {
		c.fail(catalog.KeyImage, fmt.Sprintf("image is not a string: %s", kindOf(raw)))
		return
	}
	ref := rec.Image()
	if ref == "" {
		return
	}
	if local := resolver.Literal(ref); !fileutil.IsRegular(local) {
		c.fail(catalog.KeyImage, fmt.Sprintf("image does not exist: %s", local))
	}
	if !cfg.IsPreferred(path.Ext(ref)) {
		c.warn(catalog.KeyImage, fmt.Sprintf("image is not %s: %s", cfg.Format, ref))
	}
}

// label names a record in findings, falling back to its position.
func label(rec *catalog.Record, i int) string {
	if name := rec.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("item %d", i)
}

func decode(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func kindOf(raw json.RawMessage) string {
	switch decode(raw).(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	}
	return "unknown"
}
