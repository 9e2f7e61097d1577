package store

import (
	"database/sql"
	"fmt"
	"time"
)

// startedAtLayout is fixed width so started_at sorts chronologically as text.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run operations

// InsertRun records run together with its entries in one transaction and
// returns the new run ID. run.ID is set on success.
func (s *Store) InsertRun(run *Run, entries []*RunEntry) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO runs
		(started_at, seed, os, arch, vault_path, inbox_requested, entry_count, inbox_count, snoozed_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.Exec(query,
		run.StartedAt.UTC().Format(startedAtLayout),
		run.Seed,
		run.OS,
		run.Arch,
		run.VaultPath,
		run.InboxRequested,
		run.EntryCount,
		run.InboxCount,
		run.SnoozedCount,
	)
	if err != nil {
		return 0, wrapQueryErr(err, "failed to insert run")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	if err := insertRunEntries(tx, id, entries); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return id, nil
}

func insertRunEntries(tx *sql.Tx, runID int64, entries []*RunEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_entries (run_id, entry_id, kind, title, type, source, path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare run entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var path sql.NullString
		if e.Path != "" {
			path = sql.NullString{String: e.Path, Valid: true}
		}
		if _, err := stmt.Exec(runID, e.EntryID, e.Kind, e.Title, e.Type, e.Source, path); err != nil {
			return fmt.Errorf("failed to insert run entry %s: %w", e.EntryID, err)
		}
		e.RunID = runID
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id int64) (*Run, error) {
	query := `
		SELECT id, started_at, seed, os, arch, vault_path, inbox_requested, entry_count, inbox_count, snoozed_count
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, wrapQueryErr(err, "failed to get run %d", id)
	}

	return run, nil
}

// ListRuns returns runs newest first. A limit of zero or less returns all runs.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, seed, os, arch, vault_path, inbox_requested, entry_count, inbox_count, snoozed_count
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// LatestRun returns the most recent run, or nil when the ledger is empty.
func (s *Store) LatestRun() (*Run, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// DeleteRun removes a run and, through the cascade, its entries.
func (s *Store) DeleteRun(id int64) error {
	result, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return wrapQueryErr(err, "failed to delete run %d", id)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run %d not found", id)
	}

	return nil
}

// Run entry operations

// ListRunEntries returns the records of a run in insertion order. An empty
// kind returns every kind.
func (s *Store) ListRunEntries(runID int64, kind string) ([]*RunEntry, error) {
	query := `
		SELECT run_id, entry_id, kind, title, type, source, path
		FROM run_entries
		WHERE run_id = ?
	`
	args := []any{runID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list entries for run %d", runID)
	}
	defer rows.Close()

	var entries []*RunEntry
	for rows.Next() {
		var e RunEntry
		var path sql.NullString
		if err := rows.Scan(&e.RunID, &e.EntryID, &e.Kind, &e.Title, &e.Type, &e.Source, &path); err != nil {
			return nil, fmt.Errorf("failed to scan run entry row: %w", err)
		}
		e.Path = path.String
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run entries: %w", err)
	}

	return entries, nil
}

// CountRuns returns the number of recorded runs.
func (s *Store) CountRuns() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, wrapQueryErr(err, "failed to count runs")
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedAt string

	err := row.Scan(
		&run.ID,
		&startedAt,
		&run.Seed,
		&run.OS,
		&run.Arch,
		&run.VaultPath,
		&run.InboxRequested,
		&run.EntryCount,
		&run.InboxCount,
		&run.SnoozedCount,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %d: %w", run.ID, err)
	}

	return &run, nil
}
