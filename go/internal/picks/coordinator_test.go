package picks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 5, 20, 0, 0, 0, time.UTC)

func TestCoordinatorSave(t *testing.T) {
	tests := []struct {
		name       string
		saveErr    error
		wantErr    bool
		isConflict bool
	}{
		{name: "success"},
		{name: "conflict", saveErr: fmt.Errorf("409: %w", models.ErrConflict), wantErr: true, isConflict: true},
		{name: "network error", saveErr: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{
				SavePicksFunc: func(ctx context.Context, gameID string, picks models.PicksPayload, expected time.Time) (models.SaveResult, error) {
					return models.SaveResult{}, tt.saveErr
				},
			}
			_, err := NewCoordinator(api).Save(context.Background(), "g1", models.PicksPayload{}, t0)

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.isConflict, IsConflict(err))

			var conflict *ConflictError
			assert.Equal(t, tt.isConflict, errors.As(err, &conflict))
			if tt.isConflict {
				assert.Contains(t, err.Error(), ConflictMarker)
			}
		})
	}

	t.Run("conflict is never retried", func(t *testing.T) {
		api := &fakeAPI{
			SavePicksFunc: func(ctx context.Context, gameID string, picks models.PicksPayload, expected time.Time) (models.SaveResult, error) {
				return models.SaveResult{}, models.ErrConflict
			},
		}
		_, err := NewCoordinator(api).Save(context.Background(), "g1", models.PicksPayload{}, t0)
		require.Error(t, err)
		assert.Len(t, api.saveCalls(), 1)
		assert.Equal(t, t0, api.saveCalls()[0].Expected)
	})
}

func TestCoordinatorSaveAndSubmit(t *testing.T) {
	t.Run("save failure skips submit", func(t *testing.T) {
		api := &fakeAPI{
			SavePicksFunc: func(ctx context.Context, gameID string, picks models.PicksPayload, expected time.Time) (models.SaveResult, error) {
				return models.SaveResult{}, errors.New("offline")
			},
		}
		out := NewCoordinator(api).SaveAndSubmit(context.Background(), "g1", models.PicksPayload{}, t0)
		assert.Error(t, out.SaveErr)
		assert.NoError(t, out.SubmitErr)
		assert.False(t, out.Submitted)
		assert.Zero(t, api.submitCalls())
	})

	t.Run("already submitted is not submitted again", func(t *testing.T) {
		api := &fakeAPI{
			SavePicksFunc: func(ctx context.Context, gameID string, picks models.PicksPayload, expected time.Time) (models.SaveResult, error) {
				return models.SaveResult{Player: models.Player{IsSubmitted: true}}, nil
			},
		}
		out := NewCoordinator(api).SaveAndSubmit(context.Background(), "g1", models.PicksPayload{}, t0)
		assert.True(t, out.Submitted)
		assert.Zero(t, api.submitCalls())
	})

	t.Run("submit failure is reported separately", func(t *testing.T) {
		api := &fakeAPI{
			SubmitPicksFunc: func(ctx context.Context, gameID string) (models.Player, error) {
				return models.Player{}, errors.New("locked")
			},
		}
		out := NewCoordinator(api).SaveAndSubmit(context.Background(), "g1", models.PicksPayload{}, t0)
		assert.NoError(t, out.SaveErr)
		assert.ErrorIs(t, out.SubmitErr, ErrSubmitFailed)
		assert.False(t, out.Submitted)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		op    Operation
		kind  NoticeKind
		toast bool
	}{
		{"conflict during autosave", &ConflictError{Err: models.ErrConflict}, OpAutosave, NoticeConflict, true},
		{"conflict during save", models.ErrConflict, OpSave, NoticeConflict, true},
		{"autosave failure is inline", errors.New("offline"), OpAutosave, NoticeAutosaveFailed, false},
		{"manual save failure toasts", errors.New("offline"), OpSave, NoticeSaveFailed, true},
		{"save failure during submit", errors.New("offline"), OpSubmit, NoticeSaveFailed, true},
		{"submit failure", fmt.Errorf("%w: locked", ErrSubmitFailed), OpSubmit, NoticeSubmitFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Classify(tt.err, tt.op)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.toast, n.Toast)
			if tt.kind == NoticeConflict {
				assert.Contains(t, n.Message, ConflictMarker)
			}
		})
	}
}

func TestSavedNotice(t *testing.T) {
	n := SavedNotice(models.SaveResult{}, OpSave)
	assert.Equal(t, NoticeSaved, n.Kind)
	assert.False(t, n.Warning)

	n = SavedNotice(models.SaveResult{IgnoredLocks: []string{"match:m1", "tiebreaker"}}, OpSave)
	assert.Equal(t, NoticeLockedFields, n.Kind)
	assert.True(t, n.Warning)
	assert.Contains(t, n.Message, "2 locked picks were ignored")
}
