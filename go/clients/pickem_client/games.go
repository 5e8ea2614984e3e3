package pickem_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pickem/go/clients"
	"github.com/mcdev12/pickem/go/internal/models"
)

type savePicksRequest struct {
	Picks             models.PicksPayload `json:"picks"`
	ExpectedUpdatedAt time.Time           `json:"expected_updated_at"`
}

type submitResponse struct {
	Player models.Player `json:"player"`
}

// GetGameState fetches the public game snapshot. It is read-only and safe to poll.
func (c *PickemClient) GetGameState(ctx context.Context, gameID, joinCode string) (models.Snapshot, error) {
	endpoint := fmt.Sprintf(GameStateEndpoint, url.PathEscape(gameID))
	if joinCode != "" {
		endpoint += "?" + url.Values{JoinCodeParam: {joinCode}}.Encode()
	}

	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to get game state: %w", mapError(err))
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	return snapshot, nil
}

// GetMyState fetches the requesting player's record, locks and game.
func (c *PickemClient) GetMyState(ctx context.Context, gameID string) (models.MyState, error) {
	body, err := c.Get(ctx, fmt.Sprintf(MyStateEndpoint, url.PathEscape(gameID)))
	if err != nil {
		return models.MyState{}, fmt.Errorf("failed to get my state: %w", mapError(err))
	}

	var state models.MyState
	if err := json.Unmarshal(body, &state); err != nil {
		return models.MyState{}, fmt.Errorf("failed to unmarshal my state: %w", err)
	}
	return state, nil
}

// SavePicks stores picks if the server's updated_at still equals
// expectedUpdatedAt. A 409 response is returned as models.ErrConflict.
func (c *PickemClient) SavePicks(ctx context.Context, gameID string, picks models.PicksPayload, expectedUpdatedAt time.Time) (models.SaveResult, error) {
	payload, err := json.Marshal(savePicksRequest{Picks: picks, ExpectedUpdatedAt: expectedUpdatedAt})
	if err != nil {
		return models.SaveResult{}, fmt.Errorf("failed to marshal picks: %w", err)
	}

	ctx = clients.WithHeader(ctx, RequestIDHeader, uuid.New().String())
	body, err := c.Put(ctx, fmt.Sprintf(MyPicksEndpoint, url.PathEscape(gameID)), bytes.NewReader(payload))
	if err != nil {
		return models.SaveResult{}, fmt.Errorf("failed to save picks: %w", mapError(err))
	}

	var result models.SaveResult
	if err := json.Unmarshal(body, &result); err != nil {
		return models.SaveResult{}, fmt.Errorf("failed to unmarshal save result: %w", err)
	}
	return result, nil
}

// SubmitPicks finalizes the player's picks. Submitting twice is a no-op on the server.
func (c *PickemClient) SubmitPicks(ctx context.Context, gameID string) (models.Player, error) {
	body, err := c.Post(ctx, fmt.Sprintf(SubmitPicksEndpoint, url.PathEscape(gameID)), nil)
	if err != nil {
		return models.Player{}, fmt.Errorf("failed to submit picks: %w", mapError(err))
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Player{}, fmt.Errorf("failed to unmarshal submit response: %w", err)
	}
	return resp.Player, nil
}

// mapError turns well-known HTTP statuses into model sentinels while keeping
// the API error in the chain.
func mapError(err error) error {
	var apiErr *clients.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusConflict:
		return errors.Join(models.ErrConflict, err)
	case http.StatusNotFound:
		return errors.Join(models.ErrNotFound, err)
	}
	return err
}
