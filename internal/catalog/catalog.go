// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog records preparation runs and their samples in SQLite so
// that the provenance of a calibration dataset can be inspected later.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

// ErrRunNotFound is returned by Run when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

const defaultLimit = 20

// Store manages the catalog database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			in_dir TEXT NOT NULL,
			out_dir TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			filter TEXT NOT NULL,
			sample_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			output TEXT NOT NULL,
			src_width INTEGER,
			src_height INTEGER,
			width INTEGER,
			height INTEGER,
			format TEXT,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_name ON samples(name)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its samples in one transaction and returns the new
// run ID. run.Count is taken from len(run.Samples).
func (s *Store) Record(ctx context.Context, run types.Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, in_dir, out_dir, width, height, filter, sample_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		started.UTC().Format(time.RFC3339Nano), run.InputDir, run.OutputDir,
		run.Width, run.Height, run.Filter, len(run.Samples),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (run_id, seq, name, source, output, src_width, src_height, width, height, format)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, smp := range run.Samples {
		_, err := stmt.ExecContext(ctx,
			runID, i, smp.Name, smp.Source, smp.Output,
			smp.SourceWidth, smp.SourceHeight, smp.Width, smp.Height, string(smp.Format),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting sample %s: %w", smp.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns up to limit runs, newest first, without their samples.
// A non-positive limit uses the default of 20.
func (s *Store) Runs(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, in_dir, out_dir, width, height, filter, sample_count
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Run returns the run with the given ID including its samples in manifest order.
func (s *Store) Run(ctx context.Context, id int64) (types.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, in_dir, out_dir, width, height, filter, sample_count
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Run{}, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return types.Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, source, output, src_width, src_height, width, height, format
		 FROM samples WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return types.Run{}, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var smp types.Sample
		var format string
		if err := rows.Scan(&smp.Name, &smp.Source, &smp.Output,
			&smp.SourceWidth, &smp.SourceHeight, &smp.Width, &smp.Height, &format); err != nil {
			return types.Run{}, fmt.Errorf("scanning sample: %w", err)
		}
		smp.Format = types.PixelFormat(format)
		run.Samples = append(run.Samples, smp)
	}
	return run, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (types.Run, error) {
	var run types.Run
	var started string
	if err := sc.Scan(&run.ID, &started, &run.InputDir, &run.OutputDir,
		&run.Width, &run.Height, &run.Filter, &run.Count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scanning run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return run, fmt.Errorf("parsing started_at %q: %w", started, err)
	}
	run.StartedAt = t
	return run, nil
}
