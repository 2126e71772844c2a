// CLAUDE:SUMMARY SQLite ledger of reconciliation passes (run id, inputs, artifact hash, summary counts).
package rundb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one row of the runs table.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	SourcePath    string
	TargetPath    string
	OverridesPath string
	ArtifactPath  string
	ArtifactHash  string
	TotalSource   int
	TotalTarget   int
	Mapped        int
	Excluded      int
	Collisions    int
	Coverage      float64
}

// DB manages the runs SQLite table.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path and ensures the runs table
// exists.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open runs db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS runs (
		run_id         TEXT PRIMARY KEY,
		started_at     INTEGER NOT NULL,
		finished_at    INTEGER NOT NULL,
		source_path    TEXT NOT NULL,
		target_path    TEXT NOT NULL,
		overrides_path TEXT NOT NULL DEFAULT '',
		artifact_path  TEXT NOT NULL,
		artifact_hash  TEXT NOT NULL,
		total_source   INTEGER NOT NULL,
		total_target   INTEGER NOT NULL,
		mapped         INTEGER NOT NULL,
		excluded       INTEGER NOT NULL,
		collisions     INTEGER NOT NULL,
		coverage       REAL NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the SQLite connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Record appends a run. An empty ID is filled with a new UUID; the stored
// run is returned.
func (d *DB) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	const q = `INSERT INTO runs
		(run_id, started_at, finished_at, source_path, target_path, overrides_path,
		 artifact_path, artifact_hash, total_source, total_target, mapped, excluded, collisions, coverage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.ExecContext(ctx, q,
		r.ID, r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(),
		r.SourcePath, r.TargetPath, r.OverridesPath, r.ArtifactPath, r.ArtifactHash,
		r.TotalSource, r.TotalTarget, r.Mapped, r.Excluded, r.Collisions, r.Coverage)
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (d *DB) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx, `SELECT run_id, started_at, finished_at, source_path,
		target_path, overrides_path, artifact_path, artifact_hash,
		total_source, total_target, mapped, excluded, collisions, coverage
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Last returns the most recent run, or nil when the ledger is empty.
func (d *DB) Last(ctx context.Context) (*Run, error) {
	runs, err := d.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// Get returns one run by id.
func (d *DB) Get(ctx context.Context, id string) (Run, error) {
	row := d.db.QueryRowContext(ctx, `SELECT run_id, started_at, finished_at, source_path,
		target_path, overrides_path, artifact_path, artifact_hash,
		total_source, total_target, mapped, excluded, collisions, coverage
		FROM runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s not found", id)
	}
	return r, err
}

// Changed reports whether hash differs from the artifact of the latest run.
// An empty ledger counts as changed.
func (d *DB) Changed(ctx context.Context, hash string) (bool, error) {
	last, err := d.Last(ctx)
	if err != nil {
		return false, err
	}
	return last == nil || last.ArtifactHash != hash, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                 Run
		started, finished int64
	)
	err := s.Scan(&r.ID, &started, &finished, &r.SourcePath, &r.TargetPath, &r.OverridesPath,
		&r.ArtifactPath, &r.ArtifactHash, &r.TotalSource, &r.TotalTarget,
		&r.Mapped, &r.Excluded, &r.Collisions, &r.Coverage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.StartedAt = time.UnixMilli(started)
	r.FinishedAt = time.UnixMilli(finished)
	return r, nil
}
