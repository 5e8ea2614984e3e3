package live

import (
	"context"
	"sync"

	"github.com/mcdev12/pickem/go/internal/models"
)

type fakeFetcher struct {
	mu         sync.Mutex
	state      models.Snapshot
	me         models.MyState
	stateErr   error
	meErr      error
	stateCalls int
	meCalls    int
}

func (f *fakeFetcher) GetGameState(ctx context.Context, gameID, joinCode string) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls++
	return f.state.Clone(), f.stateErr
}

func (f *fakeFetcher) GetMyState(ctx context.Context, gameID string) (models.MyState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	return f.me, f.meErr
}

func (f *fakeFetcher) set(fn func(f *fakeFetcher)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateCalls
}

type recordingSink struct {
	mu      sync.Mutex
	results []PollResult
	errs    []error
}

func (s *recordingSink) OnPoll(result PollResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

func (s *recordingSink) OnPollError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results), len(s.errs)
}
