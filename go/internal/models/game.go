package models

import (
	"time"
)

// GameStatus defines the lifecycle status of a live game.
type GameStatus string

const (
	GameStatusLobby  GameStatus = "lobby"
	GameStatusActive GameStatus = "active"
	GameStatusEnded  GameStatus = "ended"
)

// Valid reports whether the status is one the server is known to send.
func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusLobby, GameStatusActive, GameStatusEnded:
		return true
	}
	return false
}

// Game describes a live game instance.
type Game struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   GameStatus `json:"status"`
	JoinCode string     `json:"join_code,omitempty"`
}

// LeaderboardEntry is one ranked row of the live leaderboard.
type LeaderboardEntry struct {
	Nickname   string    `json:"nickname"`
	Rank       int       `json:"rank"`
	Score      int       `json:"score"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// GameEvent is a server-side event. Events are append-only and carry stable IDs.
type GameEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Well-known event types.
const (
	EventTypePlayerJoined    = "player_joined"
	EventTypePlayerSubmitted = "player_submitted"
	EventTypeLocksChanged    = "locks_changed"
	EventTypeMatchResult     = "match_result"
	EventTypeBonusResult     = "bonus_result"
	EventTypeGameStatus      = "game_status"
)

// Snapshot is one server-reported view of game state. It is replaced wholesale
// on every poll and must not be mutated after it is received.
type Snapshot struct {
	GameStatus     GameStatus         `json:"game_status"`
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
	Events         []GameEvent        `json:"events"` // newest first
	PlayerCount    int                `json:"player_count"`
	SubmittedCount int                `json:"submitted_count"`
}

// Nicknames returns the leaderboard order as a list of nicknames.
func (s Snapshot) Nicknames() []string {
	return Nicknames(s.Leaderboard)
}

// Nicknames lists the nicknames of entries in order.
func Nicknames(entries []LeaderboardEntry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Nickname
	}
	return names
}

// Clone returns a copy that shares no slices with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Leaderboard = append([]LeaderboardEntry(nil), s.Leaderboard...)
	out.Events = append([]GameEvent(nil), s.Events...)
	return out
}
