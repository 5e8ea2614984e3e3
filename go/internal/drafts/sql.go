package drafts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/pickem/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

// Dialect selects the SQL flavour of a SQLBackend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const selectDraft = `SELECT key, value, confirmed, dirty, base_updated_at, updated_at FROM local_drafts WHERE key = ?`

const upsertDraft = `INSERT INTO local_drafts (key, value, confirmed, dirty, base_updated_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
	value = excluded.value,
	confirmed = excluded.confirmed,
	dirty = excluded.dirty,
	base_updated_at = excluded.base_updated_at,
	updated_at = excluded.updated_at`

// SQLBackend stores drafts in a local_drafts table. SQLite keeps drafts on
// the local machine; Postgres lets kiosks share them.
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLBackend wraps an open database. The schema must already exist; see
// Migrate.
func NewSQLBackend(db *sql.DB, dialect Dialect) *SQLBackend {
	if dialect == DialectSQLite {
		// a single connection serializes read-modify-write transactions
		db.SetMaxOpenConns(1)
	}
	return &SQLBackend{db: db, dialect: dialect}
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type draftQueries struct {
	tx      *sql.Tx
	dialect Dialect
}

func (b *SQLBackend) newQueries(tx *sql.Tx) *draftQueries {
	return &draftQueries{tx: tx, dialect: b.dialect}
}

func (b *SQLBackend) Load(ctx context.Context, key string) (Record, bool, error) {
	return loadRecord(ctx, b.db, b.dialect, key, false)
}

func (b *SQLBackend) Update(ctx context.Context, key string, fn UpdateFunc) (Record, error) {
	var out Record
	err := sqlutil.Run(ctx, b.db, b.newQueries, func(q *draftQueries) error {
		current, exists, err := loadRecord(ctx, q.tx, q.dialect, key, true)
		if err != nil {
			return err
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		next.Key = key
		if err := q.upsert(ctx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("failed to update draft %s: %w", key, err)
	}
	return out, nil
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	query := rebind(b.dialect, `DELETE FROM local_drafts WHERE key = ?`)
	if _, err := b.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := rebind(b.dialect, `SELECT key FROM local_drafts WHERE substr(key, 1, ?) = ? ORDER BY key`)
	rows, err := b.db.QueryContext(ctx, query, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan draft key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

func loadRecord(ctx context.Context, q rowQueryer, dialect Dialect, key string, forUpdate bool) (Record, bool, error) {
	query := selectDraft
	if forUpdate && dialect == DialectPostgres {
		query += " FOR UPDATE"
	}

	var (
		rec       Record
		value     []byte
		confirmed pqtype.NullRawMessage
		base      sql.NullInt64
		updated   int64
	)
	err := q.QueryRowContext(ctx, rebind(dialect, query), key).
		Scan(&rec.Key, &value, &confirmed, &rec.Dirty, &base, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to load draft %s: %w", key, err)
	}

	rec.Value = value
	rec.Confirmed = sqlutil.FromNullRawMessage(confirmed)
	rec.BaseUpdatedAt = sqlutil.FromNullUnixNano(base)
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, true, nil
}

func (q *draftQueries) upsert(ctx context.Context, rec Record) error {
	_, err := q.tx.ExecContext(ctx, rebind(q.dialect, upsertDraft),
		rec.Key,
		[]byte(rec.Value),
		sqlutil.ToNullRawMessage(rec.Confirmed),
		rec.Dirty,
		sqlutil.ToNullUnixNano(rec.BaseUpdatedAt),
		rec.UpdatedAt.UnixNano(),
	)
	return err
}

// rebind rewrites ? placeholders to $n for Postgres.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
