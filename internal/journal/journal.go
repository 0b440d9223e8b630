// Package journal keeps a SQLite history of reconciliation runs. Each run
// stores its summary counters and every action it took, so an operator can
// see afterwards which files were converted or deleted.
package journal

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// FileName is the journal database inside the data directory.
const FileName = "folio.db"

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("run not found")

//go:embed schema.sql
var schemaSQL string

// Journal is an open run history database.
type Journal struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens or creates the journal in dataDir, creating the directory if
// needed.
func Open(dataDir string) (*Journal, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One connection keeps pragmas and the schema on the same handle.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000", schemaSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init journal schema: %w", err)
		}
	}
	return &Journal{db: db, path: path}, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close releases the database. Close is idempotent.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Record stores a finished report and its actions in one transaction.
// Recording the same run id twice replaces the earlier entry.
func (j *Journal) Record(report *types.Report) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("record run: missing run id")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return fmt.Errorf("record run: journal closed")
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, report.RunID); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO runs (run_id, started_at, finished_at, catalog, asset_dir, dry_run,
            records, updated, deleted, warnings, errors, catalog_written)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		formatTime(report.StartedAt),
		nullTime(report.FinishedAt),
		report.Catalog,
		report.AssetDir,
		report.DryRun,
		report.Records,
		report.Updated,
		report.Deleted,
		report.Warnings,
		report.Errors,
		report.CatalogWritten,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO actions (run_id, seq, kind, record, path, detail) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare action insert: %w", err)
	}
	defer stmt.Close()
	for i, a := range report.Actions {
		if _, err := stmt.Exec(report.RunID, i, string(a.Kind), a.Record, a.Path, a.Detail); err != nil {
			return fmt.Errorf("insert action %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `run_id, started_at, finished_at, catalog, asset_dir, dry_run,
    records, updated, deleted, warnings, errors, catalog_written`

// Runs returns up to limit runs, newest first. A limit of zero or less
// returns every run. Actions are not loaded.
func (j *Journal) Runs(limit int) ([]*types.Report, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil, fmt.Errorf("list runs: journal closed")
	}

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*types.Report
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Run returns one run with its actions in the order they happened.
// It returns ErrRunNotFound for an unknown id.
func (j *Journal) Run(runID string) (*types.Report, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil, fmt.Errorf("get run: journal closed")
	}

	r, err := scanRun(j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	r.Actions, err = j.actions(runID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Actions returns the actions of one run in order. It returns
// ErrRunNotFound for an unknown id.
func (j *Journal) Actions(runID string) ([]types.Action, error) {
	r, err := j.Run(runID)
	if err != nil {
		return nil, err
	}
	return r.Actions, nil
}

func (j *Journal) actions(runID string) ([]types.Action, error) {
	rows, err := j.db.Query(
		`SELECT kind, COALESCE(record, ''), path, COALESCE(detail, '') FROM actions WHERE run_id = ? ORDER BY seq ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []types.Action
	for rows.Next() {
		var a types.Action
		var kind string
		if err := rows.Scan(&kind, &a.Record, &a.Path, &a.Detail); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a.Kind = types.ActionKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*types.Report, error) {
	var r types.Report
	var startedAt string
	var finishedAt sql.NullString
	if err := s.Scan(
		&r.RunID, &startedAt, &finishedAt, &r.Catalog, &r.AssetDir, &r.DryRun,
		&r.Records, &r.Updated, &r.Deleted, &r.Warnings, &r.Errors, &r.CatalogWritten,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	var err error
	r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if finishedAt.Valid {
		r.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
	}
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}
