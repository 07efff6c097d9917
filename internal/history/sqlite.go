package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	vendors TEXT NOT NULL DEFAULT '',
	scraped INTEGER NOT NULL DEFAULT 0,
	new_count INTEGER NOT NULL DEFAULT 0,
	updated_count INTEGER NOT NULL DEFAULT 0,
	unchanged_count INTEGER NOT NULL DEFAULT 0,
	report_path TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS discontinued (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	product_key TEXT NOT NULL,
	vendor TEXT NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (run_id, product_key)
);
`

// SQLiteStore keeps run history in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, vendors, scraped, new_count, updated_count, unchanged_count, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		joinVendors(run.Vendors),
		run.Scraped, run.New, run.Updated, run.Unchanged,
		run.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for _, d := range run.Discontinued {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO discontinued (run_id, product_key, vendor, name) VALUES (?, ?, ?, ?)`,
			run.ID, d.Key, d.Vendor, d.Name)
		if err != nil {
			return fmt.Errorf("failed to insert discontinued %s: %w", d.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, vendors, scraped, new_count, updated_count, unchanged_count, report_path
		FROM runs WHERE id = ?`, id)

	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_key, vendor, name FROM discontinued WHERE run_id = ? ORDER BY vendor, name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query discontinued: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d Discontinued
		if err := rows.Scan(&d.Key, &d.Vendor, &d.Name); err != nil {
			return nil, err
		}
		run.Discontinued = append(run.Discontinued, d)
	}
	return run, rows.Err()
}

// RecentRuns returns the latest runs without their discontinued lists
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, vendors, scraped, new_count, updated_count, unchanged_count, report_path
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scanner) (*Run, error) {
	var (
		run               Run
		started, finished string
		vendors           string
	)
	err := row.Scan(&run.ID, &started, &finished, &vendors,
		&run.Scraped, &run.New, &run.Updated, &run.Unchanged, &run.ReportPath)
	if err != nil {
		return nil, err
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("run %s: bad finished_at: %w", run.ID, err)
	}
	run.Vendors = splitVendors(vendors)
	return &run, nil
}
