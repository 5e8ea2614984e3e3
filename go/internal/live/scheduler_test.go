package live

import (
	"fmt"
	"testing"
	"time"

	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 5, 20, 0, 0, 0, time.UTC)

func eventsEffect(ids ...string) Effect {
	events := make([]models.GameEvent, len(ids))
	for i, id := range ids {
		events[i] = event(id, models.EventTypeMatchResult)
	}
	return EventsEffect(events)
}

func TestTimingDuration(t *testing.T) {
	timing := DefaultTiming()

	assert.Equal(t, 4500*time.Millisecond, timing.Duration(eventsEffect("e1")))
	assert.Equal(t, timing.LeaderboardMin, timing.Duration(Effect{Kind: EffectLeaderboard, SwapCount: 1}))
	assert.Equal(t, 4*time.Second, timing.Duration(Effect{Kind: EffectCombined, SwapCount: 5}))
	assert.Equal(t, timing.LeaderboardMax, timing.Duration(Effect{Kind: EffectLeaderboard, SwapCount: 100}))
}

func TestSchedulerLargeBoardShowsFinalOrder(t *testing.T) {
	names := make([]string, 30)
	for i := range names {
		names[i] = fmt.Sprintf("W%02d", i)
	}
	// last place climbs to first one step per frame
	moved := append([]string{names[29]}, names[:29]...)

	timing := DefaultTiming()
	s := NewScheduler(timing)
	s.Enqueue(t0, LeaderboardEffect(entries(names...), entries(moved...)))

	active, ok := s.Active()
	require.True(t, ok)
	require.Len(t, active.Frames, 30)
	assert.Greater(t, timing.PlaybackDuration(active.Effect, 30), timing.Duration(active.Effect))

	now := t0
	for active.Frame < len(active.Frames)-1 {
		deadline, ok := s.NextDeadline()
		require.True(t, ok)
		require.True(t, deadline.Before(active.EndsAt), "frame %d due after the effect ends", active.Frame+1)
		now = deadline
		require.True(t, s.AdvanceTick(now))
		active, ok = s.Active()
		require.True(t, ok, "effect ended at frame %d", active.Frame)
	}

	assert.Equal(t, moved, active.CurrentFrame())
	assert.True(t, now.Before(active.EndsAt))
	assert.Equal(t, timing.FrameInterval, active.EndsAt.Sub(now))
}

func TestSchedulerPlaysOneAtATime(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Enqueue(t0, eventsEffect("e1"), eventsEffect("e2"))

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "e1", active.Effect.Events[0].ID)
	assert.Equal(t, 1, s.Pending())

	// enqueueing while busy never replaces the active effect
	s.Enqueue(t0.Add(time.Second), eventsEffect("e3"))
	active, _ = s.Active()
	assert.Equal(t, "e1", active.Effect.Events[0].ID)
	assert.Equal(t, 2, s.Pending())

	deadline, ok := s.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, t0.Add(4500*time.Millisecond), deadline)

	assert.False(t, s.AdvanceTick(t0.Add(time.Second)))

	assert.True(t, s.AdvanceTick(deadline))
	active, _ = s.Active()
	assert.Equal(t, "e2", active.Effect.Events[0].ID)
	assert.Equal(t, deadline, active.StartedAt)
	assert.Equal(t, 1, s.Pending())
}

func TestSchedulerEmptyEnqueue(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Enqueue(t0)
	_, ok := s.Active()
	assert.False(t, ok)
	_, ok = s.NextDeadline()
	assert.False(t, ok)
}

func TestSchedulerFrames(t *testing.T) {
	timing := DefaultTiming()
	s := NewScheduler(timing)
	s.Enqueue(t0, LeaderboardEffect(entries("A", "B", "C"), entries("C", "B", "A")))

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, [][]string{{"A", "B", "C"}, {"B", "C", "A"}, {"C", "B", "A"}}, active.Frames)
	assert.Equal(t, []string{"A", "B", "C"}, active.CurrentFrame())

	deadline, _ := s.NextDeadline()
	assert.Equal(t, t0.Add(timing.FrameInterval), deadline)

	require.True(t, s.AdvanceTick(deadline))
	active, _ = s.Active()
	assert.Equal(t, 1, active.Frame)

	deadline, _ = s.NextDeadline()
	assert.Equal(t, t0.Add(2*timing.FrameInterval), deadline)
	require.True(t, s.AdvanceTick(deadline))

	active, _ = s.Active()
	assert.Equal(t, []string{"C", "B", "A"}, active.CurrentFrame())
	assert.True(t, active.NextFrameAt.IsZero())

	// last frame shown, only the expiry is left
	deadline, _ = s.NextDeadline()
	assert.Equal(t, active.EndsAt, deadline)
	assert.True(t, s.AdvanceTick(deadline))
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestSchedulerDismiss(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	assert.False(t, s.Dismiss(t0))

	s.Enqueue(t0, eventsEffect("e1"), eventsEffect("e2"), eventsEffect("e3"))
	later := t0.Add(time.Second)
	require.True(t, s.Dismiss(later))

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "e2", active.Effect.Events[0].ID)
	assert.Equal(t, later, active.StartedAt)
	assert.Equal(t, 1, s.Pending())

	s.ClearQueue()
	assert.Zero(t, s.Pending())
	_, ok = s.Active()
	assert.True(t, ok, "clearing the queue keeps the active effect")
}

func TestSchedulerTeardown(t *testing.T) {
	s := NewScheduler(DefaultTiming())
	s.Enqueue(t0, eventsEffect("e1"), eventsEffect("e2"))
	s.Teardown()

	_, ok := s.Active()
	assert.False(t, ok)
	assert.Zero(t, s.Pending())

	s.Enqueue(t0, eventsEffect("e3"))
	assert.False(t, s.AdvanceTick(t0.Add(time.Hour)))
	assert.False(t, s.Dismiss(t0))
	_, ok = s.Active()
	assert.False(t, ok)
}
