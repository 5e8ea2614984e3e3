package models

// LockSnapshot is the server-authoritative set of locked fields for the
// requesting player. It is read-only to the client and re-fetched every poll.
type LockSnapshot struct {
	GlobalLocked     bool            `json:"global_locked"`
	MatchLocks       map[string]bool `json:"match_locks,omitempty"`
	MatchBonusLocks  map[string]bool `json:"match_bonus_locks,omitempty"` // keyed by MatchBonusKey
	EventBonusLocks  map[string]bool `json:"event_bonus_locks,omitempty"`
	TiebreakerLocked bool            `json:"tiebreaker_locked"`
}

// MatchBonusKey builds the "matchID:questionID" key used by MatchBonusLocks.
func MatchBonusKey(matchID, questionID string) string {
	return matchID + ":" + questionID
}

// IsMatchLocked reports whether the winner and entrants of a match are locked.
func (l LockSnapshot) IsMatchLocked(matchID string) bool {
	return l.GlobalLocked || l.MatchLocks[matchID]
}

// IsMatchBonusLocked reports whether a match bonus question is locked. A locked
// match locks its bonus questions too.
func (l LockSnapshot) IsMatchBonusLocked(matchID, questionID string) bool {
	return l.IsMatchLocked(matchID) || l.MatchBonusLocks[MatchBonusKey(matchID, questionID)]
}

// IsEventBonusLocked reports whether an event-level bonus question is locked.
func (l LockSnapshot) IsEventBonusLocked(questionID string) bool {
	return l.GlobalLocked || l.EventBonusLocks[questionID]
}

// IsTiebreakerLocked reports whether the tiebreaker answer is locked.
func (l LockSnapshot) IsTiebreakerLocked() bool {
	return l.GlobalLocked || l.TiebreakerLocked
}
