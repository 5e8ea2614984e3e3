package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultPollInterval is the polling cadence when none is configured.
	DefaultPollInterval = 5 * time.Second
	staleIntervals      = 5
)

// Fetcher reads game state from the pick'em API.
type Fetcher interface {
	GetGameState(ctx context.Context, gameID, joinCode string) (models.Snapshot, error)
	GetMyState(ctx context.Context, gameID string) (models.MyState, error)
}

// PollResult is one successful poll.
type PollResult struct {
	Snapshot  models.Snapshot
	Locks     models.LockSnapshot
	Me        *models.MyState
	FetchedAt time.Time
}

// PollSink receives poll outcomes.
type PollSink interface {
	OnPoll(result PollResult)
	OnPollError(err error)
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	GameID   string
	JoinCode string
	// WithMe also fetches the caller's player state on every poll.
	WithMe     bool
	Interval   time.Duration
	StaleAfter time.Duration
}

// Poller fetches game state on a fixed cadence. A failed poll leaves the
// previous state in place; only the staleness flag reflects it.
type Poller struct {
	cfg     PollerConfig
	fetcher Fetcher
	sink    PollSink
	clock   clockwork.Clock
	metrics MetricsCollector
	limiter *rate.Limiter
	wakeCh  chan struct{}

	mu          sync.Mutex
	startedAt   time.Time
	lastSuccess time.Time
}

// NewPoller creates a Poller. StaleAfter defaults to five intervals.
func NewPoller(cfg PollerConfig, fetcher Fetcher, sink PollSink, clock clockwork.Clock, metrics MetricsCollector) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = staleIntervals * cfg.Interval
	}
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	return &Poller{
		cfg:       cfg,
		fetcher:   fetcher,
		sink:      sink,
		clock:     clock,
		metrics:   metrics,
		limiter:   rate.NewLimiter(rate.Every(cfg.Interval/2), 1),
		wakeCh:    make(chan struct{}, 1),
		startedAt: clock.Now(),
	}
}

// PollOnce fetches the game state, plus the player state when configured,
// and hands the result to the sink. On failure nothing is emitted.
func (p *Poller) PollOnce(ctx context.Context) error {
	start := p.clock.Now()

	var snapshot models.Snapshot
	var me models.MyState

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = p.fetcher.GetGameState(gctx, p.cfg.GameID, p.cfg.JoinCode)
		if err != nil {
			return fmt.Errorf("failed to fetch game state: %w", err)
		}
		return nil
	})
	if p.cfg.WithMe {
		g.Go(func() error {
			var err error
			me, err = p.fetcher.GetMyState(gctx, p.cfg.GameID)
			if err != nil {
				return fmt.Errorf("failed to fetch player state: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.metrics.RecordPoll(false, p.clock.Since(start))
		p.metrics.RecordStale(p.Stale())
		p.sink.OnPollError(err)
		return err
	}

	now := p.clock.Now()
	p.mu.Lock()
	p.lastSuccess = now
	p.mu.Unlock()
	p.metrics.RecordPoll(true, now.Sub(start))
	p.metrics.RecordStale(false)

	result := PollResult{Snapshot: snapshot, FetchedAt: now}
	if p.cfg.WithMe {
		result.Me = &me
		result.Locks = me.Locks
	}
	p.sink.OnPoll(result)
	return nil
}

// Run polls immediately, then every Interval and on every Wake, until ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.mu.Lock()
	p.startedAt = p.clock.Now()
	p.mu.Unlock()

	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	log.Info().
		Str("game_id", p.cfg.GameID).
		Dur("interval", p.cfg.Interval).
		Msg("starting game poller")

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("game_id", p.cfg.GameID).Msg("game poller stopped")
			return
		case <-ticker.Chan():
			p.poll(ctx)
		case <-p.wakeCh:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, p.cfg.Interval)
	defer cancel()
	if err := p.PollOnce(pollCtx); err != nil && ctx.Err() == nil {
		log.Debug().Err(err).Str("game_id", p.cfg.GameID).Msg("poll failed")
	}
}

// Wake requests an out-of-band poll. Repeated wakes before the poll runs
// collapse into one.
func (p *Poller) Wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// Refresh is a user-initiated poll, limited to one per half interval. It
// reports whether the refresh was accepted.
func (p *Poller) Refresh() bool {
	if !p.limiter.AllowN(p.clock.Now(), 1) {
		return false
	}
	p.Wake()
	return true
}

// Stale reports whether no poll has succeeded for longer than StaleAfter.
func (p *Poller) Stale() bool {
	p.mu.Lock()
	ref := p.lastSuccess
	if ref.IsZero() {
		ref = p.startedAt
	}
	p.mu.Unlock()
	return p.clock.Since(ref) > p.cfg.StaleAfter
}

// LastSuccess returns the time of the last successful poll.
func (p *Poller) LastSuccess() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSuccess, !p.lastSuccess.IsZero()
}
