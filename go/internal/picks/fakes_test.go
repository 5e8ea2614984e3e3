package picks

import (
	"context"
	"sync"
	"time"

	"github.com/mcdev12/pickem/go/internal/models"
)

type savePicksCall struct {
	Picks    models.PicksPayload
	Expected time.Time
}

// fakeAPI implements API with overridable funcs and records save calls.
type fakeAPI struct {
	mu sync.Mutex

	GetGameStateFunc func(ctx context.Context, gameID, joinCode string) (models.Snapshot, error)
	GetMyStateFunc   func(ctx context.Context, gameID string) (models.MyState, error)
	SavePicksFunc    func(ctx context.Context, gameID string, picks models.PicksPayload, expected time.Time) (models.SaveResult, error)
	SubmitPicksFunc  func(ctx context.Context, gameID string) (models.Player, error)

	saves       []savePicksCall
	submits     int
	myStateHits int
}

func (f *fakeAPI) GetGameState(ctx context.Context, gameID, joinCode string) (models.Snapshot, error) {
	if f.GetGameStateFunc != nil {
		return f.GetGameStateFunc(ctx, gameID, joinCode)
	}
	return models.Snapshot{GameStatus: models.GameStatusActive}, nil
}

func (f *fakeAPI) GetMyState(ctx context.Context, gameID string) (models.MyState, error) {
	f.mu.Lock()
	f.myStateHits++
	f.mu.Unlock()
	if f.GetMyStateFunc != nil {
		return f.GetMyStateFunc(ctx, gameID)
	}
	return models.MyState{}, nil
}

func (f *fakeAPI) SavePicks(ctx context.Context, gameID string, picks models.PicksPayload, expected time.Time) (models.SaveResult, error) {
	f.mu.Lock()
	f.saves = append(f.saves, savePicksCall{Picks: picks.Clone(), Expected: expected})
	f.mu.Unlock()
	if f.SavePicksFunc != nil {
		return f.SavePicksFunc(ctx, gameID, picks, expected)
	}
	return models.SaveResult{Player: models.Player{ID: "p1", Picks: picks}}, nil
}

func (f *fakeAPI) SubmitPicks(ctx context.Context, gameID string) (models.Player, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()
	if f.SubmitPicksFunc != nil {
		return f.SubmitPicksFunc(ctx, gameID)
	}
	return models.Player{ID: "p1", IsSubmitted: true}, nil
}

func (f *fakeAPI) saveCalls() []savePicksCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]savePicksCall(nil), f.saves...)
}

func (f *fakeAPI) submitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

func (f *fakeAPI) myStateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.myStateHits
}
