package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockedScheduler struct {
	mu sync.Mutex
	s  *Scheduler
}

func (l *lockedScheduler) AdvanceTick(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.AdvanceTick(now)
}

func (l *lockedScheduler) NextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.NextDeadline()
}

func (l *lockedScheduler) enqueue(now time.Time, effects ...Effect) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.s.Enqueue(now, effects...)
}

func (l *lockedScheduler) activeID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	pb, ok := l.s.Active()
	if !ok {
		return ""
	}
	return pb.Effect.Events[0].ID
}

func TestPlayerDrivesScheduler(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	sched := &lockedScheduler{s: NewScheduler(DefaultTiming())}
	player := NewPlayer(sched, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		player.Run(ctx)
	}()

	sched.enqueue(clock.Now(), eventsEffect("e1"), eventsEffect("e2"))
	player.Wake()

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, "e1", sched.activeID())

	clock.Advance(4500 * time.Millisecond)
	require.Eventually(t, func() bool { return sched.activeID() == "e2" }, time.Second, 5*time.Millisecond)

	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(4500 * time.Millisecond)
	require.Eventually(t, func() bool { return sched.activeID() == "" }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("player did not stop")
	}
}

func TestPlayerStopsTimerOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	sched := &lockedScheduler{s: NewScheduler(DefaultTiming())}
	sched.enqueue(clock.Now(), eventsEffect("e1"))
	player := NewPlayer(sched, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		player.Run(ctx)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	cancel()
	<-done
	require.NoError(t, clock.BlockUntilContext(waitCtx, 0))

	clock.Advance(time.Hour)
	assert.Equal(t, "e1", sched.activeID(), "no tick after cancellation")
}
