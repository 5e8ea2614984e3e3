package live

import (
	"github.com/mcdev12/pickem/go/internal/models"
)

// HiddenTypes is the set of event types suppressed from fullscreen
// presentation. Hidden events still count towards the counters.
type HiddenTypes map[string]bool

// DefaultHiddenTypes hides submission and lock-status chatter.
func DefaultHiddenTypes() HiddenTypes {
	return HiddenTypes{
		models.EventTypePlayerSubmitted: true,
		models.EventTypeLocksChanged:    true,
	}
}

// ChangeSet describes what changed between two consecutive snapshots.
type ChangeSet struct {
	LeaderboardChanged    bool
	NewEvents             []models.GameEvent // visible events, newest first
	HiddenEventCount      int
	StatusChanged         bool
	PlayerCountChanged    bool
	SubmittedCountChanged bool
}

// HasChanges reports whether anything at all changed.
func (c ChangeSet) HasChanges() bool {
	return c.LeaderboardChanged || len(c.NewEvents) > 0 || c.HiddenEventCount > 0 ||
		c.StatusChanged || c.PlayerCountChanged || c.SubmittedCountChanged
}

// Diff compares two consecutive snapshots. A nil previous snapshot is the
// initial hydration and never reports changes. Diff is pure.
func Diff(previous *models.Snapshot, next models.Snapshot, hidden HiddenTypes) ChangeSet {
	if previous == nil {
		return ChangeSet{}
	}

	cs := ChangeSet{
		LeaderboardChanged:    LeaderboardChanged(previous.Leaderboard, next.Leaderboard),
		StatusChanged:         previous.GameStatus != next.GameStatus,
		PlayerCountChanged:    previous.PlayerCount != next.PlayerCount,
		SubmittedCountChanged: previous.SubmittedCount != next.SubmittedCount,
	}

	seen := make(map[string]struct{}, len(previous.Events))
	for _, ev := range previous.Events {
		seen[ev.ID] = struct{}{}
	}
	for _, ev := range next.Events {
		if _, ok := seen[ev.ID]; ok {
			continue
		}
		if hidden[ev.Type] {
			cs.HiddenEventCount++
			continue
		}
		cs.NewEvents = append(cs.NewEvents, ev)
	}

	return cs
}

// LeaderboardChanged compares two leaderboards position by position.
func LeaderboardChanged(previous, next []models.LeaderboardEntry) bool {
	if len(previous) != len(next) {
		return true
	}
	for i := range previous {
		a, b := previous[i], next[i]
		if a.Nickname != b.Nickname || a.Rank != b.Rank || a.Score != b.Score {
			return true
		}
	}
	return false
}
