package drafts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Open opens the backend named by dsn and creates its schema:
//
//	memory:                     process memory
//	sqlite:<path>, file:<path>  local SQLite file
//	postgres://...              shared Postgres database
func Open(ctx context.Context, dsn string) (Backend, error) {
	switch {
	case dsn == "" || dsn == "memory:":
		log.Info().Msg("using in-memory draft storage")
		return NewMemoryBackend(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return openSQL(ctx, "sqlite", strings.TrimPrefix(dsn, "sqlite:"), DialectSQLite)
	case strings.HasPrefix(dsn, "file:"):
		return openSQL(ctx, "sqlite", dsn, DialectSQLite)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openSQL(ctx, "postgres", dsn, DialectPostgres)
	default:
		return nil, fmt.Errorf("unsupported draft storage %q", dsn)
	}
}

func openSQL(ctx context.Context, driver, dsn string, dialect Dialect) (Backend, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft database: %w", err)
	}
	backend := NewSQLBackend(db, dialect)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping draft database: %w", err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("dialect", string(dialect)).Msg("connected to draft storage")
	return backend, nil
}
