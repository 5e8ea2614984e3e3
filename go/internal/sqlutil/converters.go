package sqlutil

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and nullable column types.
// Timestamps are stored as unix nanoseconds so both SQLite and Postgres keep
// them exactly.

// ToNullRawMessage converts raw JSON to pqtype.NullRawMessage; nil is NULL.
func ToNullRawMessage(raw json.RawMessage) pqtype.NullRawMessage {
	if raw == nil {
		return pqtype.NullRawMessage{Valid: false}
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}
}

// FromNullRawMessage converts pqtype.NullRawMessage to raw JSON; NULL is nil.
func FromNullRawMessage(val pqtype.NullRawMessage) json.RawMessage {
	if !val.Valid {
		return nil
	}
	return append(json.RawMessage(nil), val.RawMessage...)
}

// ToNullUnixNano converts a time to sql.NullInt64; the zero time is NULL.
func ToNullUnixNano(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

// FromNullUnixNano converts sql.NullInt64 to a UTC time; NULL is the zero time.
func FromNullUnixNano(val sql.NullInt64) time.Time {
	if !val.Valid {
		return time.Time{}
	}
	return time.Unix(0, val.Int64).UTC()
}
