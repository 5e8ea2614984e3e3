package picks

import (
	"context"
	"fmt"
	"time"

	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/rs/zerolog/log"
)

// API is the part of the pick'em API the pick sheet talks to.
type API interface {
	GetGameState(ctx context.Context, gameID, joinCode string) (models.Snapshot, error)
	GetMyState(ctx context.Context, gameID string) (models.MyState, error)
	SavePicks(ctx context.Context, gameID string, picks models.PicksPayload, expectedUpdatedAt time.Time) (models.SaveResult, error)
	SubmitPicks(ctx context.Context, gameID string) (models.Player, error)
}

// Coordinator performs optimistic saves. A save carries the version the client
// last saw; a conflict is reported once and never retried.
type Coordinator struct {
	api API
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(api API) *Coordinator {
	return &Coordinator{api: api}
}

// Save sends the whole payload with the expected version. A version mismatch
// is returned as *ConflictError.
func (c *Coordinator) Save(ctx context.Context, gameID string, picks models.PicksPayload, expectedUpdatedAt time.Time) (models.SaveResult, error) {
	result, err := c.api.SavePicks(ctx, gameID, picks, expectedUpdatedAt)
	if err != nil {
		if IsConflict(err) {
			log.Info().
				Str("game_id", gameID).
				Time("expected_updated_at", expectedUpdatedAt).
				Msg("picks save conflict")
			return models.SaveResult{}, &ConflictError{GameID: gameID, Err: err}
		}
		return models.SaveResult{}, fmt.Errorf("failed to save picks: %w", err)
	}

	if len(result.IgnoredLocks) > 0 {
		log.Warn().
			Str("game_id", gameID).
			Strs("ignored_locks", result.IgnoredLocks).
			Msg("server ignored locked picks")
	}
	return result, nil
}

// Submit marks the player's picks as final. Submitting twice is harmless.
func (c *Coordinator) Submit(ctx context.Context, gameID string) (models.Player, error) {
	player, err := c.api.SubmitPicks(ctx, gameID)
	if err != nil {
		return models.Player{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	return player, nil
}

// SubmitOutcome reports the save and submit halves of SaveAndSubmit
// separately.
type SubmitOutcome struct {
	Save      models.SaveResult
	SaveErr   error
	Player    models.Player
	Submitted bool
	SubmitErr error
}

// SaveAndSubmit saves first and submits only after the save succeeded. A
// player who is already submitted is not submitted again.
func (c *Coordinator) SaveAndSubmit(ctx context.Context, gameID string, picks models.PicksPayload, expectedUpdatedAt time.Time) SubmitOutcome {
	var out SubmitOutcome
	out.Save, out.SaveErr = c.Save(ctx, gameID, picks, expectedUpdatedAt)
	if out.SaveErr != nil {
		return out
	}

	out.Player = out.Save.Player
	if out.Player.IsSubmitted {
		out.Submitted = true
		return out
	}

	player, err := c.Submit(ctx, gameID)
	if err != nil {
		out.SubmitErr = err
		return out
	}
	out.Player = player
	out.Submitted = true
	return out
}
