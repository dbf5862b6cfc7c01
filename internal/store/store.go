// Package store persists processed clusters and the runs that produced them.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/authority-cli/internal/viaf"
)

// ErrNotFound is returned when a requested cluster does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 100

// RunMeta describes a processed document.
type RunMeta struct {
	Source   string  `json:"source"`
	Query    string  `json:"query,omitempty"`
	Version  float64 `json:"version"`
	Total    int     `json:"total"`
	Failures int     `json:"failures"`
}

// Run is a stored processing run.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Query     string    `json:"query,omitempty"`
	Version   float64   `json:"version"`
	Total     int       `json:"total"`
	Clusters  int       `json:"clusters"`
	Failures  int       `json:"failures"`
	Warnings  int       `json:"warnings"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredCluster is the latest saved extraction of one cluster.
type StoredCluster struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id"`
	NameType  string        `json:"name_type"`
	Heading   string        `json:"heading"`
	Cluster   *viaf.Cluster `json:"cluster"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store defines the persistence interface for processed clusters.
type Store interface {
	// SaveRun records a run and upserts its clusters by VIAF id.
	SaveRun(ctx context.Context, meta RunMeta, clusters []*viaf.Cluster) (*Run, error)
	GetCluster(ctx context.Context, id string) (*StoredCluster, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend. Driver is "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

func newRun(meta RunMeta, clusters []*viaf.Cluster, id string, now time.Time) *Run {
	warnings := 0
	for _, c := range clusters {
		warnings += len(c.Warnings)
	}
	return &Run{
		ID:        id,
		Source:    meta.Source,
		Query:     meta.Query,
		Version:   meta.Version,
		Total:     meta.Total,
		Clusters:  len(clusters),
		Failures:  meta.Failures,
		Warnings:  warnings,
		CreatedAt: now,
	}
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
