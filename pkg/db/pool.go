// Package db provides the pgx connection pool, SQL migrations and the object
// store behind the built-in bulk action handlers.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// Pool sizing. Bulk handlers run one statement per request, so a small pool is enough.
const (
	PoolMaxConns = 10
	PoolMinConns = 1
)

// ParseConfig parses databaseURL and applies the service's pool sizing. An
// empty URL is rejected instead of falling back to libpq environment defaults.
func ParseConfig(databaseURL string) (*pgxpool.Config, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("%s - database URL is empty", logPrefix)
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	config.MaxConns = PoolMaxConns
	config.MinConns = PoolMinConns
	return config, nil
}

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

// SchemaTables are the tables created by the migrations.
var SchemaTables = []string{"objects", "object_meta", "mail_outbox"}

// Status describes how far the schema has been applied.
type Status struct {
	Present    []string
	Missing    []string
	Migrations []string
}

// Applied reports whether every schema table exists.
func (s Status) Applied() bool {
	return len(s.Missing) == 0
}

// MigrationStatus checks which schema tables exist.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) (*Status, error) {
	const statusLogPrefix = "db:MigrationStatus"

	migrations, err := LoadMigrations(migrationPath)
	if err != nil {
		return nil, fmt.Errorf("%s - load migration list: %w", statusLogPrefix, err)
	}

	st := &Status{Migrations: MigrationNames(migrations)}
	for _, table := range SchemaTables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
			table).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to check table %s: %w", statusLogPrefix, table, err)
		}
		if exists {
			st.Present = append(st.Present, table)
		} else {
			st.Missing = append(st.Missing, table)
		}
	}
	return st, nil
}
