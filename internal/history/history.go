// Package history records completed sync runs so discontinued products can
// be tracked across runs.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-sync/inventory"
)

// ErrNotFound is returned when a run id is not in the store
var ErrNotFound = errors.New("run not found")

// Run is one completed sync. Dry runs are never recorded.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Vendors      []string
	Scraped      int
	New          int
	Updated      int
	Unchanged    int
	Discontinued []Discontinued
	ReportPath   string
}

// Discontinued is an existing product missing from a run
type Discontinued struct {
	Key    string
	Vendor string
	Name   string
}

// Store persists runs
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// NewRun summarizes a diff as a run record
func NewRun(id string, started, finished time.Time, d *inventory.Diff, reportPath string) *Run {
	run := &Run{
		ID:         id,
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Vendors:    append([]string(nil), d.Vendors...),
		Scraped:    d.TotalScraped,
		New:        len(d.New),
		Updated:    len(d.Updated),
		Unchanged:  d.Unchanged,
		ReportPath: reportPath,
	}
	for _, rec := range d.Discontinued {
		run.Discontinued = append(run.Discontinued, Discontinued{Key: rec.Key, Vendor: rec.Vendor, Name: rec.Name})
	}
	return run
}

// Open connects to the store named by dsn. postgres:// and postgresql://
// DSNs use PostgreSQL; anything else is a SQLite path, optionally prefixed
// with sqlite://. The schema is created if missing.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "":
		return nil, fmt.Errorf("history dsn is empty")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	default:
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	}
}

func joinVendors(vendors []string) string {
	return strings.Join(vendors, ",")
}

func splitVendors(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
