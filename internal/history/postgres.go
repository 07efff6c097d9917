package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
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

// PostgresStore keeps run history in PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and creates the schema if missing
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO runs (id, started_at, finished_at, vendors, scraped, new_count, updated_count, unchanged_count, report_path)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			run.ID, run.StartedAt, run.FinishedAt, joinVendors(run.Vendors),
			run.Scraped, run.New, run.Updated, run.Unchanged, run.ReportPath,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
		}

		batch := &pgx.Batch{}
		for _, d := range run.Discontinued {
			batch.Queue(`
				INSERT INTO discontinued (run_id, product_key, vendor, name)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (run_id, product_key) DO NOTHING`,
				run.ID, d.Key, d.Vendor, d.Name)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert discontinued products: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run     Run
		vendors string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, vendors, scraped, new_count, updated_count, unchanged_count, report_path
		FROM runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &vendors,
		&run.Scraped, &run.New, &run.Updated, &run.Unchanged, &run.ReportPath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	run.Vendors = splitVendors(vendors)

	rows, err := s.pool.Query(ctx,
		`SELECT product_key, vendor, name FROM discontinued WHERE run_id = $1 ORDER BY vendor, name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query discontinued: %w", err)
	}
	run.Discontinued, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Discontinued, error) {
		var d Discontinued
		err := row.Scan(&d.Key, &d.Vendor, &d.Name)
		return d, err
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *PostgresStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, finished_at, vendors, scraped, new_count, updated_count, unchanged_count, report_path
		FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		var (
			run     Run
			vendors string
		)
		err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &vendors,
			&run.Scraped, &run.New, &run.Updated, &run.Unchanged, &run.ReportPath)
		run.Vendors = splitVendors(vendors)
		return run, err
	})
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
