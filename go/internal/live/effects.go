package live

import (
	"github.com/mcdev12/pickem/go/internal/models"
)

// MaxEventsPerEffect bounds how many events one fullscreen call-out shows.
const MaxEventsPerEffect = 4

// EffectKind tags the variant of a fullscreen effect.
type EffectKind string

const (
	EffectEvents      EffectKind = "events"
	EffectLeaderboard EffectKind = "leaderboard"
	EffectCombined    EffectKind = "combined"
)

// Effect is a transient presentation effect. Events is set for events and
// combined effects; Previous, Current and SwapCount for leaderboard and
// combined effects.
type Effect struct {
	Kind      EffectKind                `json:"kind"`
	Events    []models.GameEvent        `json:"events,omitempty"`
	Previous  []models.LeaderboardEntry `json:"previous,omitempty"`
	Current   []models.LeaderboardEntry `json:"current,omitempty"`
	SwapCount int                       `json:"swap_count"`
}

// HasLeaderboard reports whether the effect animates a leaderboard reorder.
func (e Effect) HasLeaderboard() bool {
	return e.Kind == EffectLeaderboard || e.Kind == EffectCombined
}

// Frames returns the reorder animation frames of a leaderboard effect.
func (e Effect) Frames() [][]string {
	if !e.HasLeaderboard() {
		return nil
	}
	return BuildSteps(models.Nicknames(e.Previous), models.Nicknames(e.Current))
}

// EventsEffect builds an events-only effect.
func EventsEffect(events []models.GameEvent) Effect {
	return Effect{Kind: EffectEvents, Events: events}
}

// LeaderboardEffect builds a reorder effect between two leaderboards.
func LeaderboardEffect(previous, current []models.LeaderboardEntry) Effect {
	return Effect{
		Kind:      EffectLeaderboard,
		Previous:  previous,
		Current:   current,
		SwapCount: CountSwaps(models.Nicknames(previous), models.Nicknames(current)),
	}
}

// CombinedEffect shows events together with a leaderboard reorder.
func CombinedEffect(events []models.GameEvent, previous, current []models.LeaderboardEntry) Effect {
	e := LeaderboardEffect(previous, current)
	e.Kind = EffectCombined
	e.Events = events
	return e
}

// BuildEffects turns a ChangeSet into the effects to enqueue. Visible events
// are shown oldest first in chunks of MaxEventsPerEffect; when the
// leaderboard also changed, the first chunk is combined with the reorder.
func BuildEffects(previous *models.Snapshot, next models.Snapshot, cs ChangeSet) []Effect {
	if previous == nil {
		return nil
	}

	chunks := chunkEvents(oldestFirst(cs.NewEvents), MaxEventsPerEffect)

	var effects []Effect
	if cs.LeaderboardChanged {
		if len(chunks) > 0 {
			effects = append(effects, CombinedEffect(chunks[0], previous.Leaderboard, next.Leaderboard))
			chunks = chunks[1:]
		} else {
			effects = append(effects, LeaderboardEffect(previous.Leaderboard, next.Leaderboard))
		}
	}
	for _, chunk := range chunks {
		effects = append(effects, EventsEffect(chunk))
	}
	return effects
}

func oldestFirst(events []models.GameEvent) []models.GameEvent {
	out := make([]models.GameEvent, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out
}

func chunkEvents(events []models.GameEvent, size int) [][]models.GameEvent {
	var chunks [][]models.GameEvent
	for len(events) > 0 {
		n := min(size, len(events))
		chunks = append(chunks, events[:n:n])
		events = events[n:]
	}
	return chunks
}
