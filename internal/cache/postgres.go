package cache

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zstadler/mapproxy/internal/grid"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for tile rows.
type PostgresConfig struct {
	DSN             string `mapstructure:"dsn" yaml:"dsn"`
	Table           string `mapstructure:"table" yaml:"table"`
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps tiles in a table with one row per coordinate:
//
//	CREATE TABLE tiles (
//	    level INT NOT NULL,
//	    x INT NOT NULL,
//	    y INT NOT NULL,
//	    data BYTEA NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (level, x, y)
//	);
type PostgresStore struct {
	pool  pgxPool
	table string
}

// NewPostgresStore connects a pool from the config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("cache.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresStoreWithPool(pool, cfg.Table)
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool pgxPool, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "tiles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// ModTime looks up the row's update time.
func (s *PostgresStore) ModTime(ctx context.Context, c grid.TileCoord) (time.Time, bool, error) {
	query := fmt.Sprintf("SELECT updated_at FROM %s WHERE level = $1 AND x = $2 AND y = $3", s.table)
	var updated time.Time
	err := s.pool.QueryRow(ctx, query, c.Level, c.X, c.Y).Scan(&updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query tile row: %w", err)
	}
	return updated, true, nil
}

// Put upserts the tile row, refreshing updated_at.
func (s *PostgresStore) Put(ctx context.Context, c grid.TileCoord, data []byte) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (level, x, y, data, updated_at) VALUES ($1, $2, $3, $4, NOW()) "+
			"ON CONFLICT (level, x, y) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()",
		s.table)
	if _, err := s.pool.Exec(ctx, query, c.Level, c.X, c.Y, data); err != nil {
		return fmt.Errorf("upsert tile row: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
