package live

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/mcdev12/pickem/go/internal/platform"
	"github.com/rs/zerolog/log"
)

// View is an immutable copy of what the live screen shows.
type View struct {
	GameID     string              `json:"game_id"`
	Snapshot   *models.Snapshot    `json:"snapshot,omitempty"`
	Locks      models.LockSnapshot `json:"locks"`
	Me         *models.MyState     `json:"me,omitempty"`
	Playback   *Playback           `json:"playback,omitempty"`
	Pending    int                 `json:"pending"`
	Stale      bool                `json:"stale"`
	LastPollAt time.Time           `json:"last_poll_at,omitempty"`
}

// Listener is called with a fresh View after every visible change. Listeners
// run on the goroutine that caused the change and must not block.
type Listener func(View)

// GameConfig configures a live Game.
type GameConfig struct {
	GameID       string        `yaml:"game_id"`
	JoinCode     string        `yaml:"join_code"`
	WithMe       bool          `yaml:"with_me"`
	PollInterval time.Duration `yaml:"poll_interval"`
	StaleAfter   time.Duration `yaml:"stale_after"`
	Timing       Timing        `yaml:"timing"`
	Hidden       HiddenTypes   `yaml:"-"`
}

// GameOption customizes a Game.
type GameOption func(*Game)

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) GameOption {
	return func(g *Game) { g.metrics = m }
}

// WithWakeLock sets the wake lock held while the game is active.
func WithWakeLock(w platform.WakeLock) GameOption {
	return func(g *Game) { g.wakeLock = w }
}

// Game is the live game store. It owns the latest snapshot and the effect
// queue, and turns each poll into fullscreen effects.
type Game struct {
	cfg      GameConfig
	clock    clockwork.Clock
	metrics  MetricsCollector
	wakeLock platform.WakeLock
	poller   *Poller
	player   *Player

	mu         sync.Mutex
	snapshot   *models.Snapshot
	locks      models.LockSnapshot
	me         *models.MyState
	lastPollAt time.Time
	scheduler  *Scheduler
	listeners  []Listener
	lockHeld   bool
	closed     bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewGame creates a Game that polls through fetcher.
func NewGame(cfg GameConfig, fetcher Fetcher, clock clockwork.Clock, opts ...GameOption) *Game {
	if cfg.Hidden == nil {
		cfg.Hidden = DefaultHiddenTypes()
	}
	if cfg.Timing == (Timing{}) {
		cfg.Timing = DefaultTiming()
	}

	g := &Game{
		cfg:       cfg,
		clock:     clock,
		metrics:   NoOpMetricsCollector{},
		scheduler: NewScheduler(cfg.Timing),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.poller = NewPoller(PollerConfig{
		GameID:     cfg.GameID,
		JoinCode:   cfg.JoinCode,
		WithMe:     cfg.WithMe,
		Interval:   cfg.PollInterval,
		StaleAfter: cfg.StaleAfter,
	}, fetcher, g, clock, g.metrics)
	g.player = NewPlayer(g, clock)
	return g
}

// Init hydrates the store with one poll. The first snapshot never produces
// effects.
func (g *Game) Init(ctx context.Context) error {
	return g.poller.PollOnce(ctx)
}

// Start runs the poller and the effect player until OnTeardown or until ctx
// is cancelled.
func (g *Game) Start(ctx context.Context) {
	g.mu.Lock()
	if g.closed || g.cancel != nil {
		g.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.mu.Unlock()

	g.wg.Add(2)
	go func() {
		defer g.wg.Done()
		g.poller.Run(ctx)
	}()
	go func() {
		defer g.wg.Done()
		g.player.Run(ctx)
	}()
}

// Subscribe registers a listener for view changes.
func (g *Game) Subscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.listeners = append(g.listeners, l)
}

// OnPoll applies a successful poll: diff against the previous snapshot,
// enqueue the resulting effects and replace the visible state.
func (g *Game) OnPoll(result PollResult) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}

	next := result.Snapshot.Clone()
	if next.GameStatus != "" && !next.GameStatus.Valid() {
		log.Warn().
			Str("game_id", g.cfg.GameID).
			Str("status", string(next.GameStatus)).
			Msg("unknown game status, keeping previous")
		next.GameStatus = ""
		if g.snapshot != nil {
			next.GameStatus = g.snapshot.GameStatus
		}
	}
	cs := Diff(g.snapshot, next, g.cfg.Hidden)
	effects := BuildEffects(g.snapshot, next, cs)
	if cs.HiddenEventCount > 0 {
		log.Debug().
			Str("game_id", g.cfg.GameID).
			Int("hidden", cs.HiddenEventCount).
			Msg("suppressed hidden events")
	}

	g.scheduler.Enqueue(g.clock.Now(), effects...)
	for _, e := range effects {
		g.metrics.RecordEffectEnqueued(e.Kind)
	}

	g.snapshot = &next
	if result.Me != nil {
		me := *result.Me
		me.Player.Picks = me.Player.Picks.Clone()
		g.me = &me
		g.locks = result.Locks
	}
	g.lastPollAt = result.FetchedAt

	wantLock := next.GameStatus == models.GameStatusActive
	toggleLock := g.wakeLock != nil && wantLock != g.lockHeld
	g.lockHeld = wantLock
	g.mu.Unlock()

	if toggleLock {
		g.setWakeLock(wantLock)
	}
	g.notify()
	if len(effects) > 0 {
		g.player.Wake()
	}
}

// OnPollError records a failed poll. Visible state is left untouched; only
// the staleness flag in the next View can change.
func (g *Game) OnPollError(err error) {
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()
	if closed {
		return
	}
	log.Debug().Err(err).Str("game_id", g.cfg.GameID).Msg("keeping previous game state")
	g.notify()
}

// AdvanceTick steps the effect scheduler.
func (g *Game) AdvanceTick(now time.Time) bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	changed := g.scheduler.AdvanceTick(now)
	g.mu.Unlock()

	if changed {
		g.notify()
	}
	return changed
}

// NextDeadline reports when the effect scheduler next needs a tick.
func (g *Game) NextDeadline() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return time.Time{}, false
	}
	return g.scheduler.NextDeadline()
}

// Dismiss skips the active effect. Queued effects still play.
func (g *Game) Dismiss() bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	changed := g.scheduler.Dismiss(g.clock.Now())
	g.mu.Unlock()

	if changed {
		g.metrics.RecordEffectDismissed()
		g.notify()
		g.player.Wake()
	}
	return changed
}

// ClearQueue drops effects that have not started yet.
func (g *Game) ClearQueue() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.scheduler.ClearQueue()
	g.mu.Unlock()
	g.notify()
}

// Refresh asks for an immediate poll. It reports false when rate limited.
func (g *Game) Refresh() bool {
	return g.poller.Refresh()
}

// Wake triggers an out-of-band poll, e.g. from a push notification.
func (g *Game) Wake() {
	g.poller.Wake()
}

// View returns a copy of the visible state.
func (g *Game) View() View {
	g.mu.Lock()
	v := View{
		GameID:     g.cfg.GameID,
		Locks:      g.locks,
		Pending:    g.scheduler.Pending(),
		LastPollAt: g.lastPollAt,
	}
	if g.snapshot != nil {
		snap := g.snapshot.Clone()
		v.Snapshot = &snap
	}
	if g.me != nil {
		me := *g.me
		me.Player.Picks = me.Player.Picks.Clone()
		v.Me = &me
	}
	if pb, ok := g.scheduler.Active(); ok {
		v.Playback = &pb
	}
	g.mu.Unlock()

	v.Stale = g.poller.Stale()
	return v
}

// OnTeardown stops polling and playback and releases the wake lock. Poll
// results that arrive afterwards are dropped. It must not be called from a
// Listener.
func (g *Game) OnTeardown() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.scheduler.Teardown()
	g.listeners = nil
	cancel := g.cancel
	release := g.wakeLock != nil && g.lockHeld
	g.lockHeld = false
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	g.wg.Wait()
	if release {
		g.setWakeLock(false)
	}
	log.Info().Str("game_id", g.cfg.GameID).Msg("live game torn down")
}

func (g *Game) notify() {
	g.mu.Lock()
	listeners := make([]Listener, len(g.listeners))
	copy(listeners, g.listeners)
	g.mu.Unlock()
	if len(listeners) == 0 {
		return
	}

	v := g.View()
	for _, l := range listeners {
		l(v)
	}
}

func (g *Game) setWakeLock(hold bool) {
	var err error
	if hold {
		err = g.wakeLock.Acquire(context.Background())
	} else {
		err = g.wakeLock.Release()
	}
	if err != nil {
		log.Warn().Err(err).Bool("hold", hold).Msg("failed to update wake lock")
	}
}
