package types

import "time"

// ActionKind classifies one observable outcome of a reconciliation run.
type ActionKind string

// Action kinds recorded in a Report and in the run journal.
const (
	ActionUnresolved    ActionKind = "unresolved"
	ActionConverted     ActionKind = "converted"
	ActionConvertFailed ActionKind = "convert_failed"
	ActionDeleted       ActionKind = "deleted"
	ActionDeleteFailed  ActionKind = "delete_failed"
	ActionCleared       ActionKind = "cleared"
)

// Action is one per-record or per-file event. Record is empty for sweeper
// actions, which are not tied to a catalog entry.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Record string     `json:"record,omitempty"`
	Path   string     `json:"path"`
	Detail string     `json:"detail,omitempty"`
}

// Report summarizes a run. Warnings counts unresolved references; Errors
// counts failed conversions and failed deletions.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Catalog    string    `json:"catalog"`
	AssetDir   string    `json:"asset_dir"`
	DryRun     bool      `json:"dry_run"`

	Records        int  `json:"records"`
	Updated        int  `json:"updated"`
	Deleted        int  `json:"deleted"`
	Warnings       int  `json:"warnings"`
	Errors         int  `json:"errors"`
	CatalogWritten bool `json:"catalog_written"`

	Actions []Action `json:"actions"`
}

// Add appends an action and bumps the matching counter.
func (r *Report) Add(a Action) {
	r.Actions = append(r.Actions, a)
	switch a.Kind {
	case ActionUnresolved:
		r.Warnings++
	case ActionConverted, ActionCleared:
		r.Updated++
	case ActionDeleted:
		r.Deleted++
	case ActionConvertFailed, ActionDeleteFailed:
		r.Errors++
	}
}

// Count returns the number of actions of the given kind.
func (r *Report) Count(kind ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}
