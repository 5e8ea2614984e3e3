// Package drafts persists unsynced local edits so they survive restarts and
// are never silently replaced by an older server copy.
package drafts

import (
	"context"
	"encoding/json"
	"time"
)

// Record is the stored form of one draft.
type Record struct {
	Key           string
	Value         json.RawMessage
	Confirmed     json.RawMessage // nil until the server first confirms a value
	Dirty         bool
	BaseUpdatedAt time.Time
	UpdatedAt     time.Time
}

func (r Record) clone() Record {
	out := r
	out.Value = append(json.RawMessage(nil), r.Value...)
	if r.Confirmed != nil {
		out.Confirmed = append(json.RawMessage(nil), r.Confirmed...)
	}
	return out
}

// UpdateFunc computes the next record from the latest persisted one. exists
// is false when there is no record for the key yet.
type UpdateFunc func(current Record, exists bool) (Record, error)

// Backend is durable key/value storage shared by every session key. Update
// must read and write the latest persisted record atomically, never a copy
// cached by the caller.
type Backend interface {
	Load(ctx context.Context, key string) (Record, bool, error)
	Update(ctx context.Context, key string, fn UpdateFunc) (Record, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
