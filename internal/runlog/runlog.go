// Package runlog persists per-stage outcomes so a finished run can
// report which stages failed and why.
package runlog

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
const runLogSchema = `
CREATE TABLE IF NOT EXISTS run_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	iteration  INTEGER NOT NULL,
	variant    TEXT,
	stage      TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	error_kind TEXT,
	detail     TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_log_run ON run_log(run_id);
`
// #endregion schema

// #region types
// Entry is one stage outcome row.
type Entry struct {
	RunID     string
	Iteration int
	Variant   string
	Stage     string
	Outcome   string // "ok" | "failed" | "skipped"
	ErrorKind string
	Detail    string
	CreatedAt time.Time
}
// #endregion types

// #region init
// Init creates the run_log table on a database shared with the cache.
func Init(db *sql.DB) error {
	if _, err := db.Exec(runLogSchema); err != nil {
		return fmt.Errorf("migrate run_log: %w", err)
	}
	return nil
}
// #endregion init

// #region record
// Record writes a single stage outcome row.
func Record(db *sql.DB, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO run_log (run_id, iteration, variant, stage, outcome, error_kind, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.Iteration,
		nullIfEmpty(e.Variant),
		e.Stage,
		e.Outcome,
		nullIfEmpty(e.ErrorKind),
		nullIfEmpty(e.Detail),
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record stage outcome: %w", err)
	}
	return nil
}
// #endregion record

// #region for-run
// ForRun returns every logged outcome of a run in insertion order.
func ForRun(db *sql.DB, runID string) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT run_id, iteration, variant, stage, outcome, error_kind, detail, created_at
		 FROM run_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var variant, errorKind, detail sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Iteration, &variant, &e.Stage, &e.Outcome, &errorKind, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run log row: %w", err)
		}
		e.Variant = variant.String
		e.ErrorKind = errorKind.String
		e.Detail = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion for-run

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
