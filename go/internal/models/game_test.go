package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotClone(t *testing.T) {
	s := Snapshot{
		GameStatus:  GameStatusActive,
		Leaderboard: []LeaderboardEntry{{Nickname: "Alice", Rank: 1}, {Nickname: "Bob", Rank: 2}},
		Events:      []GameEvent{{ID: "e1", Type: EventTypeMatchResult}},
	}
	c := s.Clone()
	c.Leaderboard[0].Nickname = "Zed"
	c.Events[0].ID = "e9"

	assert.Equal(t, []string{"Alice", "Bob"}, s.Nicknames())
	assert.Equal(t, "e1", s.Events[0].ID)
	assert.Equal(t, []string{"Zed", "Bob"}, c.Nicknames())
}

func TestNicknames(t *testing.T) {
	assert.Equal(t, []string{"Alice", "Bob"}, Nicknames([]LeaderboardEntry{{Nickname: "Alice"}, {Nickname: "Bob"}}))
	assert.Empty(t, Nicknames(nil))
}

func TestGameStatusValid(t *testing.T) {
	assert.True(t, GameStatusLobby.Valid())
	assert.True(t, GameStatusActive.Valid())
	assert.True(t, GameStatusEnded.Valid())
	assert.False(t, GameStatus("paused").Valid())
}

func TestLocks(t *testing.T) {
	l := LockSnapshot{
		MatchLocks:      map[string]bool{"m1": true},
		MatchBonusLocks: map[string]bool{MatchBonusKey("m2", "q1"): true},
		EventBonusLocks: map[string]bool{"e1": true},
	}

	assert.True(t, l.IsMatchLocked("m1"))
	assert.False(t, l.IsMatchLocked("m2"))
	assert.True(t, l.IsMatchBonusLocked("m1", "anything"), "a locked match locks its bonus questions")
	assert.True(t, l.IsMatchBonusLocked("m2", "q1"))
	assert.False(t, l.IsMatchBonusLocked("m2", "q2"))
	assert.True(t, l.IsEventBonusLocked("e1"))
	assert.False(t, l.IsTiebreakerLocked())

	var zero LockSnapshot
	assert.False(t, zero.IsMatchLocked("m1"), "nil maps read as unlocked")

	global := LockSnapshot{GlobalLocked: true}
	assert.True(t, global.IsMatchLocked("m9"))
	assert.True(t, global.IsEventBonusLocked("e9"))
	assert.True(t, global.IsTiebreakerLocked())
}
