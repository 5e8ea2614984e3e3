package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// SessionKey is the draft key of one player's pick sheet in one game.
func SessionKey(gameID, playerID string) string {
	return fmt.Sprintf("game:%s:player:%s", gameID, playerID)
}

// GamePrefix is the key prefix shared by every draft of a game.
func GamePrefix(gameID string) string {
	return fmt.Sprintf("game:%s:", gameID)
}

// Draft is a decoded draft. Dirty is true iff Value differs from the last
// value the server confirmed.
type Draft[T any] struct {
	Value         T
	Confirmed     *T
	Dirty         bool
	BaseUpdatedAt time.Time
	UpdatedAt     time.Time
}

// Store is a typed view over a Backend. Values are compared by fingerprint,
// so two values with the same fingerprint are the same edit.
type Store[T any] struct {
	backend     Backend
	fingerprint func(T) string
	clock       clockwork.Clock
}

// NewStore creates a Store for values of type T.
func NewStore[T any](backend Backend, fingerprint func(T) string, clock clockwork.Clock) *Store[T] {
	return &Store[T]{backend: backend, fingerprint: fingerprint, clock: clock}
}

// Get returns the draft stored under key.
func (s *Store[T]) Get(ctx context.Context, key string) (Draft[T], bool, error) {
	rec, ok, err := s.backend.Load(ctx, key)
	if err != nil || !ok {
		return Draft[T]{}, false, err
	}
	d, err := s.decode(rec)
	if err != nil {
		return Draft[T]{}, false, err
	}
	return d, true, nil
}

// Put records a local edit. The draft is dirty unless value matches the last
// confirmed value.
func (s *Store[T]) Put(ctx context.Context, key string, value T) (Draft[T], error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Draft[T]{}, fmt.Errorf("failed to encode draft %s: %w", key, err)
	}
	fp := s.fingerprint(value)

	rec, err := s.backend.Update(ctx, key, func(current Record, exists bool) (Record, error) {
		next := current
		next.Value = raw
		next.UpdatedAt = s.clock.Now()
		next.Dirty = true
		if next.Confirmed != nil {
			confirmed, err := s.decodeValue(next.Confirmed)
			if err != nil {
				return Record{}, err
			}
			next.Dirty = s.fingerprint(confirmed) != fp
		}
		return next, nil
	})
	if err != nil {
		return Draft[T]{}, err
	}
	return s.decode(rec)
}

// Confirm stores a server-confirmed value. The draft becomes clean.
func (s *Store[T]) Confirm(ctx context.Context, key string, value T, updatedAt time.Time) (Draft[T], error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Draft[T]{}, fmt.Errorf("failed to encode draft %s: %w", key, err)
	}

	rec, err := s.backend.Update(ctx, key, func(current Record, exists bool) (Record, error) {
		return Record{
			Value:         raw,
			Confirmed:     raw,
			Dirty:         false,
			BaseUpdatedAt: updatedAt,
			UpdatedAt:     s.clock.Now(),
		}, nil
	})
	if err != nil {
		return Draft[T]{}, err
	}
	return s.decode(rec)
}

// ConfirmIfUnchanged applies a save response. When the stored value still
// has the fingerprint that was sent, the draft is replaced by value and
// becomes clean. Otherwise newer local edits are kept: only the confirmed
// value and its version advance, and the draft stays dirty. It reports
// whether the draft became clean.
func (s *Store[T]) ConfirmIfUnchanged(ctx context.Context, key, sentFingerprint string, value T, updatedAt time.Time) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to encode draft %s: %w", key, err)
	}
	confirmedFP := s.fingerprint(value)

	var clean bool
	_, err = s.backend.Update(ctx, key, func(current Record, exists bool) (Record, error) {
		if exists {
			local, err := s.decodeValue(current.Value)
			if err != nil {
				return Record{}, err
			}
			if localFP := s.fingerprint(local); localFP != sentFingerprint {
				next := current
				next.Confirmed = raw
				next.BaseUpdatedAt = updatedAt
				next.Dirty = localFP != confirmedFP
				next.UpdatedAt = s.clock.Now()
				clean = !next.Dirty
				return next, nil
			}
		}
		clean = true
		return Record{
			Value:         raw,
			Confirmed:     raw,
			BaseUpdatedAt: updatedAt,
			UpdatedAt:     s.clock.Now(),
		}, nil
	})
	if err != nil {
		return false, err
	}
	return clean, nil
}

// Clear removes the draft.
func (s *Store[T]) Clear(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// IsDirty reports whether key holds unsynced edits.
func (s *Store[T]) IsDirty(ctx context.Context, key string) (bool, error) {
	rec, ok, err := s.backend.Load(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return rec.Dirty, nil
}

// Keys lists stored draft keys with the given prefix.
func (s *Store[T]) Keys(ctx context.Context, prefix string) ([]string, error) {
	return s.backend.Keys(ctx, prefix)
}

func (s *Store[T]) decode(rec Record) (Draft[T], error) {
	value, err := s.decodeValue(rec.Value)
	if err != nil {
		return Draft[T]{}, fmt.Errorf("failed to decode draft %s: %w", rec.Key, err)
	}
	d := Draft[T]{
		Value:         value,
		Dirty:         rec.Dirty,
		BaseUpdatedAt: rec.BaseUpdatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
	if rec.Confirmed != nil {
		confirmed, err := s.decodeValue(rec.Confirmed)
		if err != nil {
			return Draft[T]{}, fmt.Errorf("failed to decode confirmed draft %s: %w", rec.Key, err)
		}
		d.Confirmed = &confirmed
	}
	return d, nil
}

func (s *Store[T]) decodeValue(raw []byte) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}
