package drafts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS local_drafts (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	confirmed BLOB,
	dirty BOOLEAN NOT NULL DEFAULT 0,
	base_updated_at INTEGER,
	updated_at INTEGER NOT NULL
)`

const postgresSchema = `CREATE TABLE IF NOT EXISTS local_drafts (
	key TEXT PRIMARY KEY,
	value JSONB NOT NULL,
	confirmed JSONB,
	dirty BOOLEAN NOT NULL DEFAULT FALSE,
	base_updated_at BIGINT,
	updated_at BIGINT NOT NULL
)`

// Schema returns the local_drafts DDL for a dialect.
func Schema(dialect Dialect) (string, error) {
	switch dialect {
	case DialectSQLite:
		return sqliteSchema, nil
	case DialectPostgres:
		return postgresSchema, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}

// Migrate creates the draft table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	schema, err := Schema(dialect)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create local_drafts: %w", err)
	}
	return nil
}

// MigratePool creates the Postgres draft table through a pgx pool. The
// migrate command uses it so it does not need a database/sql driver.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create local_drafts: %w", err)
	}
	log.Info().Msg("local_drafts schema is up to date")
	return nil
}
