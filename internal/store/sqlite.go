package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/authority-cli/internal/viaf"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	query      TEXT NOT NULL DEFAULT '',
	version    REAL NOT NULL,
	total      INTEGER NOT NULL,
	clusters   INTEGER NOT NULL,
	failures   INTEGER NOT NULL DEFAULT 0,
	warnings   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS clusters (
	viaf_id    TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name_type  TEXT NOT NULL,
	heading    TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_clusters_run_id ON clusters(run_id);
CREATE INDEX IF NOT EXISTS idx_clusters_heading ON clusters(heading);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, meta RunMeta, clusters []*viaf.Cluster) (*Run, error) {
	run := newRun(meta, clusters, uuid.New().String(), time.Now().UTC())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save run")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, query, version, total, clusters, failures, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Query, run.Version, run.Total, run.Clusters, run.Failures, run.Warnings, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	for _, c := range clusters {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: marshal cluster %s", c.Basic.ID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO clusters (viaf_id, run_id, name_type, heading, data, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (viaf_id) DO UPDATE SET
			   run_id = excluded.run_id, name_type = excluded.name_type,
			   heading = excluded.heading, data = excluded.data, updated_at = excluded.updated_at`,
			c.Basic.ID, run.ID, string(c.Basic.NameType), c.MainHeading.Heading, string(data), run.CreatedAt,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: upsert cluster %s", c.Basic.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save run")
	}
	return run, nil
}

func (s *SQLiteStore) GetCluster(ctx context.Context, id string) (*StoredCluster, error) {
	var (
		sc   StoredCluster
		data string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT viaf_id, run_id, name_type, heading, data, updated_at FROM clusters WHERE viaf_id = ?`,
		id,
	).Scan(&sc.ID, &sc.RunID, &sc.NameType, &sc.Heading, &data, &sc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "cluster %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cluster %s", id)
	}

	sc.Cluster = &viaf.Cluster{}
	if err := json.Unmarshal([]byte(data), sc.Cluster); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cluster")
	}
	return &sc, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, query, version, total, clusters, failures, warnings, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Query, &r.Version, &r.Total, &r.Clusters, &r.Failures, &r.Warnings, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}
