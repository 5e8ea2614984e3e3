package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/mcdev12/pickem/go/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(fetcher *fakeFetcher, opts ...GameOption) (*Game, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(t0)
	g := NewGame(GameConfig{GameID: "g1", JoinCode: "ABCD", PollInterval: 5 * time.Second}, fetcher, clock, opts...)
	return g, clock
}

func TestGameInitialHydrationHasNoEffects(t *testing.T) {
	fetcher := &fakeFetcher{state: models.Snapshot{
		GameStatus:  models.GameStatusActive,
		Leaderboard: entries("Alice", "Bob"),
		Events:      []models.GameEvent{event("e1", models.EventTypeMatchResult)},
	}}
	g, _ := newTestGame(fetcher)

	require.NoError(t, g.Init(context.Background()))
	v := g.View()
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, []string{"Alice", "Bob"}, v.Snapshot.Nicknames())
	assert.Nil(t, v.Playback)
	assert.Zero(t, v.Pending)
	assert.False(t, v.Stale)
}

func TestGameOnPollEnqueuesEffects(t *testing.T) {
	g, _ := newTestGame(&fakeFetcher{})
	g.OnPoll(PollResult{Snapshot: models.Snapshot{
		GameStatus:  models.GameStatusActive,
		Leaderboard: entries("Alice", "Bob"),
	}, FetchedAt: t0})

	g.OnPoll(PollResult{Snapshot: models.Snapshot{
		GameStatus:  models.GameStatusActive,
		Leaderboard: entries("Bob", "Alice"),
		Events: []models.GameEvent{
			event("e2", models.EventTypeMatchResult),
			event("e1", models.EventTypePlayerSubmitted),
		},
	}, FetchedAt: t0.Add(5 * time.Second)})

	v := g.View()
	require.NotNil(t, v.Playback)
	assert.Equal(t, EffectCombined, v.Playback.Effect.Kind)
	assert.Equal(t, []string{"e2"}, eventIDs(v.Playback.Effect.Events))
	assert.Equal(t, []string{"Alice", "Bob"}, v.Playback.CurrentFrame())
	assert.Equal(t, []string{"Bob", "Alice"}, v.Snapshot.Nicknames())
	assert.Equal(t, t0.Add(5*time.Second), v.LastPollAt)
}

func TestGamePollErrorKeepsState(t *testing.T) {
	fetcher := &fakeFetcher{state: models.Snapshot{Leaderboard: entries("Alice")}}
	g, clock := newTestGame(fetcher)
	require.NoError(t, g.Init(context.Background()))

	fetcher.set(func(f *fakeFetcher) { f.stateErr = errors.New("offline") })
	for i := 0; i < 6; i++ {
		clock.Advance(5 * time.Second)
		require.Error(t, g.Init(context.Background()))
	}

	v := g.View()
	require.NotNil(t, v.Snapshot)
	assert.Equal(t, []string{"Alice"}, v.Snapshot.Nicknames())
	assert.Nil(t, v.Playback)
	assert.True(t, v.Stale)
}

func TestGameDismiss(t *testing.T) {
	g, _ := newTestGame(&fakeFetcher{})
	g.OnPoll(PollResult{Snapshot: models.Snapshot{}})

	var events []models.GameEvent
	for i := 6; i >= 1; i-- {
		events = append(events, event(string(rune('a'+i)), models.EventTypeMatchResult))
	}
	g.OnPoll(PollResult{Snapshot: models.Snapshot{Events: events}})

	v := g.View()
	require.NotNil(t, v.Playback)
	assert.Equal(t, 1, v.Pending)

	require.True(t, g.Dismiss())
	v = g.View()
	require.NotNil(t, v.Playback)
	assert.Len(t, v.Playback.Effect.Events, 2)
	assert.Zero(t, v.Pending)

	require.True(t, g.Dismiss())
	assert.Nil(t, g.View().Playback)
	assert.False(t, g.Dismiss())
}

func TestGameListeners(t *testing.T) {
	g, _ := newTestGame(&fakeFetcher{})

	var mu sync.Mutex
	var views []View
	g.Subscribe(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, v)
	})

	g.OnPoll(PollResult{Snapshot: models.Snapshot{PlayerCount: 1}})
	g.OnPollError(errors.New("offline"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, views, 2)
	assert.Equal(t, 1, views[0].Snapshot.PlayerCount)
	assert.Equal(t, 1, views[1].Snapshot.PlayerCount)
}

func TestGameWakeLockFollowsStatus(t *testing.T) {
	lock := &platform.LogWakeLock{}
	g, _ := newTestGame(&fakeFetcher{}, WithWakeLock(lock))

	g.OnPoll(PollResult{Snapshot: models.Snapshot{GameStatus: models.GameStatusLobby}})
	assert.False(t, lock.Held())

	g.OnPoll(PollResult{Snapshot: models.Snapshot{GameStatus: models.GameStatusActive}})
	assert.True(t, lock.Held())

	g.OnPoll(PollResult{Snapshot: models.Snapshot{GameStatus: models.GameStatusEnded}})
	assert.False(t, lock.Held())

	g.OnPoll(PollResult{Snapshot: models.Snapshot{GameStatus: models.GameStatusActive}})
	require.True(t, lock.Held())
	g.OnTeardown()
	assert.False(t, lock.Held())
}

func TestGameUnknownStatusKeepsPrevious(t *testing.T) {
	lock := &platform.LogWakeLock{}
	g, _ := newTestGame(&fakeFetcher{}, WithWakeLock(lock))

	g.OnPoll(PollResult{Snapshot: models.Snapshot{GameStatus: models.GameStatusActive}})
	require.True(t, lock.Held())

	g.OnPoll(PollResult{Snapshot: models.Snapshot{GameStatus: "paused", PlayerCount: 3}})
	v := g.View()
	assert.Equal(t, models.GameStatusActive, v.Snapshot.GameStatus)
	assert.Equal(t, 3, v.Snapshot.PlayerCount)
	assert.True(t, lock.Held())
}

func TestGameTeardownDropsLateResults(t *testing.T) {
	g, _ := newTestGame(&fakeFetcher{})
	g.OnPoll(PollResult{Snapshot: models.Snapshot{Leaderboard: entries("Alice")}})
	g.OnTeardown()

	g.OnPoll(PollResult{Snapshot: models.Snapshot{Leaderboard: entries("Bob", "Alice")}})
	v := g.View()
	assert.Equal(t, []string{"Alice"}, v.Snapshot.Nicknames())
	assert.Nil(t, v.Playback)
	assert.False(t, g.Dismiss())

	// second teardown is a no-op
	g.OnTeardown()
}

func TestGameStartAndTeardown(t *testing.T) {
	fetcher := &fakeFetcher{state: models.Snapshot{GameStatus: models.GameStatusLobby}}
	g, _ := newTestGame(fetcher)

	g.Start(context.Background())
	require.Eventually(t, func() bool { return fetcher.calls() >= 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		g.OnTeardown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("teardown did not stop the game loops")
	}
}
