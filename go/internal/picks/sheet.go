package picks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pickem/go/internal/drafts"
	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const noticeBuffer = 16

// SheetConfig identifies the pick sheet of one player in one game.
type SheetConfig struct {
	GameID      string        `yaml:"game_id"`
	PlayerID    string        `yaml:"player_id"`
	JoinCode    string        `yaml:"join_code"`
	QuietPeriod time.Duration `yaml:"quiet_period"`
}

// SheetState is a copy of the sheet for display.
type SheetState struct {
	Picks           models.PicksPayload `json:"picks"`
	Locks           models.LockSnapshot `json:"locks"`
	Player          models.Player       `json:"player"`
	Status          models.GameStatus   `json:"status,omitempty"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Dirty           bool                `json:"dirty"`
	Editing         bool                `json:"editing"`
	AutosavePending bool                `json:"autosave_pending"`
	Saving          bool                `json:"saving"`
	ResyncPending   bool                `json:"resync_pending"`
	Restored        bool                `json:"restored"`
	LastNotice      *Notice             `json:"last_notice,omitempty"`
}

// SheetOption customizes a Sheet.
type SheetOption func(*Sheet)

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) SheetOption {
	return func(s *Sheet) { s.metrics = m }
}

// Sheet is one player's pick sheet. Every edit is written to the local draft
// store first and autosaved after a quiet period. A save response only
// replaces local picks when nothing was edited while it was in flight.
type Sheet struct {
	cfg     SheetConfig
	key     string
	api     API
	coord   *Coordinator
	drafts  *drafts.Store[models.PicksPayload]
	clock   clockwork.Clock
	metrics MetricsCollector
	notices chan Notice

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	picks         models.PicksPayload
	confirmedFP   string
	locks         models.LockSnapshot
	player        models.Player
	status        models.GameStatus
	updatedAt     time.Time
	autosave      *Autosaver
	timer         clockwork.Timer
	saving        bool
	resyncPending bool
	restored      bool
	closed        bool
	lastNotice    *Notice
}

// NewSheet creates a Sheet. Call Init before editing.
func NewSheet(cfg SheetConfig, api API, store *drafts.Store[models.PicksPayload], clock clockwork.Clock, opts ...SheetOption) *Sheet {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sheet{
		cfg:      cfg,
		key:      drafts.SessionKey(cfg.GameID, cfg.PlayerID),
		api:      api,
		coord:    NewCoordinator(api),
		drafts:   store,
		clock:    clock,
		metrics:  NoOpMetricsCollector{},
		notices:  make(chan Notice, noticeBuffer),
		ctx:      ctx,
		cancel:   cancel,
		autosave: NewAutosaver(cfg.QuietPeriod),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the sheet. An unsynced local draft wins and the server is not
// asked at all; otherwise the server copy is fetched and stored as the
// confirmed draft.
func (s *Sheet) Init(ctx context.Context) error {
	d, ok, err := s.drafts.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load draft: %w", err)
	}

	if ok && d.Dirty {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.picks = d.Value
		s.updatedAt = d.BaseUpdatedAt
		s.restored = true
		if d.Confirmed != nil {
			s.confirmedFP = d.Confirmed.Fingerprint()
		}
		s.autosave.Touch(s.clock.Now())
		s.armTimerLocked()

		log.Info().
			Str("game_id", s.cfg.GameID).
			Str("player_id", s.cfg.PlayerID).
			Time("base_updated_at", d.BaseUpdatedAt).
			Msg("restored unsynced draft")
		return nil
	}

	me, err := s.api.GetMyState(ctx, s.cfg.GameID)
	if err != nil {
		return fmt.Errorf("failed to fetch picks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = me.Game.Status
	s.applyServerStateLocked(ctx, me)
	return nil
}

// SetWinner picks the winner of a match.
func (s *Sheet) SetWinner(ctx context.Context, matchID, winner string) error {
	return s.edit(ctx, "match "+matchID,
		func(l models.LockSnapshot) bool { return l.IsMatchLocked(matchID) },
		func(p *models.PicksPayload) { p.MatchPick(matchID).WinnerName = winner })
}

// SetBattleRoyalEntrants sets the predicted entrants of a battle royal.
func (s *Sheet) SetBattleRoyalEntrants(ctx context.Context, matchID string, entrants []string) error {
	entrants = append([]string(nil), entrants...)
	return s.edit(ctx, "match "+matchID,
		func(l models.LockSnapshot) bool { return l.IsMatchLocked(matchID) },
		func(p *models.PicksPayload) { p.MatchPick(matchID).BattleRoyalEntrants = entrants })
}

// SetMatchBonus answers a bonus question attached to a match.
func (s *Sheet) SetMatchBonus(ctx context.Context, matchID, questionID, answer string) error {
	return s.edit(ctx, "bonus "+models.MatchBonusKey(matchID, questionID),
		func(l models.LockSnapshot) bool { return l.IsMatchBonusLocked(matchID, questionID) },
		func(p *models.PicksPayload) {
			mp := p.MatchPick(matchID)
			mp.BonusAnswers = models.SetAnswer(mp.BonusAnswers, questionID, answer)
		})
}

// SetEventBonus answers an event-level bonus question.
func (s *Sheet) SetEventBonus(ctx context.Context, questionID, answer string) error {
	return s.edit(ctx, "event bonus "+questionID,
		func(l models.LockSnapshot) bool { return l.IsEventBonusLocked(questionID) },
		func(p *models.PicksPayload) {
			p.EventBonusAnswers = models.SetAnswer(p.EventBonusAnswers, questionID, answer)
		})
}

// SetTiebreaker sets the tiebreaker answer.
func (s *Sheet) SetTiebreaker(ctx context.Context, answer string) error {
	return s.edit(ctx, "tiebreaker",
		func(l models.LockSnapshot) bool { return l.IsTiebreakerLocked() },
		func(p *models.PicksPayload) { p.TiebreakerAnswer = answer })
}

func (s *Sheet) edit(ctx context.Context, field string, locked func(models.LockSnapshot) bool, mutate func(*models.PicksPayload)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrSheetClosed
	case s.resyncPending:
		return ErrResyncPending
	case locked(s.locks):
		return fmt.Errorf("%w: %s", ErrFieldLocked, field)
	}

	next := s.picks.Clone()
	mutate(&next)
	if _, err := s.drafts.Put(ctx, s.key, next); err != nil {
		return fmt.Errorf("failed to persist draft: %w", err)
	}
	s.picks = next

	s.autosave.Touch(s.clock.Now())
	s.armTimerLocked()
	return nil
}

// SetEditing opens or closes an edit session, e.g. while a text input has
// focus. Autosave waits until the session closes.
func (s *Sheet) SetEditing(editing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.autosave.SetEditing(s.clock.Now(), editing)
	s.armTimerLocked()
}

// OnLocks replaces the lock snapshot, usually from a live poll.
func (s *Sheet) OnLocks(locks models.LockSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.locks = locks
}

// RefreshLocks fetches the server locks and game status without touching the
// local picks. A sheet restored from an unsynced draft has no locks until
// this or OnLocks runs.
func (s *Sheet) RefreshLocks(ctx context.Context) error {
	me, err := s.api.GetMyState(ctx, s.cfg.GameID)
	if err != nil {
		return fmt.Errorf("failed to fetch locks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.locks = me.Locks
	s.status = me.Game.Status
	return nil
}

// Save saves the current picks now.
func (s *Sheet) Save(ctx context.Context, op Operation) error {
	sent, fp, expected, err := s.beginSave()
	if err != nil {
		s.rejected(err, op)
		return err
	}

	result, err := s.coord.Save(ctx, s.cfg.GameID, sent, expected)
	n, applied, err := s.applySave(ctx, op, fp, result, err)
	if !applied {
		return nil
	}
	s.record(n, op)
	if IsConflict(err) {
		s.resync(ctx)
	}
	return err
}

// Submit saves the current picks and then submits them. Save and submit
// failures are reported separately.
func (s *Sheet) Submit(ctx context.Context) error {
	sent, fp, expected, err := s.beginSave()
	if err != nil {
		s.rejected(err, OpSubmit)
		return err
	}

	out := s.coord.SaveAndSubmit(ctx, s.cfg.GameID, sent, expected)
	n, applied, err := s.applySave(ctx, OpSubmit, fp, out.Save, out.SaveErr)
	if !applied {
		return nil
	}
	if err != nil {
		s.record(n, OpSubmit)
		if IsConflict(err) {
			s.resync(ctx)
		}
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if out.Submitted {
		s.player.IsSubmitted = true
		s.player.SubmittedAt = out.Player.SubmittedAt
		if !out.Player.UpdatedAt.IsZero() {
			s.updatedAt = out.Player.UpdatedAt
			s.player.UpdatedAt = out.Player.UpdatedAt
		}
	}
	s.mu.Unlock()

	if out.SubmitErr != nil {
		s.record(Classify(out.SubmitErr, OpSubmit), OpSubmit)
		return out.SubmitErr
	}
	if n.Kind == NoticeLockedFields {
		s.record(n, OpSubmit)
	}
	s.record(Notice{Kind: NoticeSubmitted, Message: "Picks submitted."}, OpSubmit)
	return nil
}

func (s *Sheet) beginSave() (models.PicksPayload, string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return models.PicksPayload{}, "", time.Time{}, ErrSheetClosed
	case s.resyncPending:
		return models.PicksPayload{}, "", time.Time{}, ErrResyncPending
	case s.saving:
		return models.PicksPayload{}, "", time.Time{}, ErrSaveInProgress
	}

	sent := s.picks.Clone()
	s.saving = true
	s.autosave.Fired()
	s.stopTimerLocked()
	return sent, sent.Fingerprint(), s.updatedAt, nil
}

// rejected reports a manual save that could not start because another save
// is in flight. The autosave timer re-arms itself instead.
func (s *Sheet) rejected(err error, op Operation) {
	if op != OpAutosave && errors.Is(err, ErrSaveInProgress) {
		s.record(Classify(err, op), op)
	}
}

// applySave applies a save response. applied is false when the sheet was torn
// down while the request was in flight.
func (s *Sheet) applySave(ctx context.Context, op Operation, fp string, result models.SaveResult, saveErr error) (Notice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saving = false
	if s.closed {
		return Notice{}, false, nil
	}

	if saveErr != nil {
		if IsConflict(saveErr) {
			s.resyncPending = true
			s.autosave.Fired()
			s.stopTimerLocked()
		} else if op == OpAutosave {
			s.autosave.Failed(fp)
		}
		if s.autosave.Pending() {
			s.armTimerLocked()
		}
		return Classify(saveErr, op), true, saveErr
	}

	s.updatedAt = result.Player.UpdatedAt
	s.player = result.Player
	s.autosave.Succeeded()

	echo := result.Player.Picks.Clone()
	if _, err := s.drafts.ConfirmIfUnchanged(ctx, s.key, fp, echo, s.updatedAt); err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("failed to confirm draft")
	}
	if s.picks.Fingerprint() == fp {
		s.picks = echo
	}
	s.confirmedFP = echo.Fingerprint()
	if s.autosave.Pending() {
		s.armTimerLocked()
	}
	return SavedNotice(result, op), true, nil
}

// Reload replaces the sheet with the server copy of the game and the player.
// It is run automatically after a conflict and clears the resync state.
func (s *Sheet) Reload(ctx context.Context) error {
	var snapshot models.Snapshot
	var me models.MyState

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = s.api.GetGameState(gctx, s.cfg.GameID, s.cfg.JoinCode)
		return err
	})
	g.Go(func() error {
		var err error
		me, err = s.api.GetMyState(gctx, s.cfg.GameID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.RecordReload(false)
		return fmt.Errorf("failed to reload picks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.status = snapshot.GameStatus
	s.applyServerStateLocked(ctx, me)
	s.resyncPending = false
	s.autosave.Fired()
	s.autosave.Succeeded()
	s.stopTimerLocked()
	s.metrics.RecordReload(true)
	return nil
}

func (s *Sheet) resync(ctx context.Context) {
	if err := s.Reload(ctx); err != nil {
		log.Warn().Err(err).Str("game_id", s.cfg.GameID).Msg("reload after conflict failed, edits stay blocked")
	}
}

func (s *Sheet) applyServerStateLocked(ctx context.Context, me models.MyState) {
	s.picks = me.Player.Picks.Clone()
	s.confirmedFP = s.picks.Fingerprint()
	s.locks = me.Locks
	s.player = me.Player
	s.updatedAt = me.Player.UpdatedAt
	if _, err := s.drafts.Confirm(ctx, s.key, s.picks, s.updatedAt); err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("failed to store confirmed draft")
	}
}

// armTimerLocked re-arms the autosave timer for the autosaver's deadline.
func (s *Sheet) armTimerLocked() {
	s.stopTimerLocked()
	deadline, ok := s.autosave.Deadline()
	if !ok || s.closed {
		return
	}
	s.timer = s.clock.AfterFunc(max(deadline.Sub(s.clock.Now()), 0), s.onAutosaveTimer)
}

func (s *Sheet) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Sheet) onAutosaveTimer() {
	s.mu.Lock()
	if s.closed || !s.autosave.Pending() {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	if s.saving {
		s.autosave.Defer(now)
		s.armTimerLocked()
		s.mu.Unlock()
		return
	}
	if !s.autosave.Due(now, s.picks.Fingerprint()) {
		s.armTimerLocked()
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if err := s.Save(s.ctx, OpAutosave); err != nil && !errors.Is(err, context.Canceled) {
		log.Debug().Err(err).Str("game_id", s.cfg.GameID).Msg("autosave failed")
	}
}

func (s *Sheet) record(n Notice, op Operation) {
	s.metrics.RecordSave(op, n.Kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lastNotice = &n
	select {
	case s.notices <- n:
	default:
		log.Debug().Str("kind", string(n.Kind)).Msg("notice dropped, no reader")
	}
}

// Notices delivers save and submit outcomes. The channel is closed by
// OnTeardown.
func (s *Sheet) Notices() <-chan Notice {
	return s.notices
}

// LastNotice returns the most recent notice.
func (s *Sheet) LastNotice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastNotice == nil {
		return Notice{}, false
	}
	return *s.lastNotice, true
}

// State returns a copy of the sheet.
func (s *Sheet) State() SheetState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SheetState{
		Picks:           s.picks.Clone(),
		Locks:           s.locks,
		Player:          s.player,
		Status:          s.status,
		UpdatedAt:       s.updatedAt,
		Dirty:           s.picks.Fingerprint() != s.confirmedFP,
		Editing:         s.autosave.Editing(),
		AutosavePending: s.autosave.Pending(),
		Saving:          s.saving,
		ResyncPending:   s.resyncPending,
		Restored:        s.restored,
	}
	st.Player.Picks = st.Player.Picks.Clone()
	if s.lastNotice != nil {
		n := *s.lastNotice
		st.LastNotice = &n
	}
	return st
}

// OnTeardown stops autosave and waits for an autosave in flight. Responses
// that arrive afterwards are ignored.
func (s *Sheet) OnTeardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	close(s.notices)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
