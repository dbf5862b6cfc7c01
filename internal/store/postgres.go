package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/authority-cli/internal/viaf"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source     TEXT NOT NULL,
	query      TEXT NOT NULL DEFAULT '',
	version    DOUBLE PRECISION NOT NULL,
	total      INTEGER NOT NULL,
	clusters   INTEGER NOT NULL,
	failures   INTEGER NOT NULL DEFAULT 0,
	warnings   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS clusters (
	viaf_id    TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name_type  TEXT NOT NULL,
	heading    TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_clusters_run_id ON clusters(run_id);
CREATE INDEX IF NOT EXISTS idx_clusters_heading ON clusters(heading);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, meta RunMeta, clusters []*viaf.Cluster) (*Run, error) {
	run := newRun(meta, clusters, uuid.New().String(), time.Now().UTC())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin save run")
	}
	rollback := func(err error) (*Run, error) {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, source, query, version, total, clusters, failures, warnings, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.Source, run.Query, run.Version, run.Total, run.Clusters, run.Failures, run.Warnings, run.CreatedAt,
	)
	if err != nil {
		return rollback(eris.Wrap(err, "postgres: insert run"))
	}

	for _, c := range clusters {
		data, err := json.Marshal(c)
		if err != nil {
			return rollback(eris.Wrapf(err, "postgres: marshal cluster %s", c.Basic.ID))
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO clusters (viaf_id, run_id, name_type, heading, data, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (viaf_id) DO UPDATE SET
			   run_id = EXCLUDED.run_id, name_type = EXCLUDED.name_type,
			   heading = EXCLUDED.heading, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			c.Basic.ID, run.ID, string(c.Basic.NameType), c.MainHeading.Heading, data, run.CreatedAt,
		)
		if err != nil {
			return rollback(eris.Wrapf(err, "postgres: upsert cluster %s", c.Basic.ID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit save run")
	}
	return run, nil
}

func (s *PostgresStore) GetCluster(ctx context.Context, id string) (*StoredCluster, error) {
	var (
		sc   StoredCluster
		data []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT viaf_id, run_id, name_type, heading, data, updated_at FROM clusters WHERE viaf_id = $1`,
		id,
	).Scan(&sc.ID, &sc.RunID, &sc.NameType, &sc.Heading, &data, &sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "cluster %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cluster %s", id)
	}

	sc.Cluster = &viaf.Cluster{}
	if err := json.Unmarshal(data, sc.Cluster); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cluster")
	}
	return &sc, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, query, version, total, clusters, failures, warnings, created_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Query, &r.Version, &r.Total, &r.Clusters, &r.Failures, &r.Warnings, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
