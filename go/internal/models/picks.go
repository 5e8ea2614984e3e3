package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// BonusAnswer is the answer to a single bonus question.
type BonusAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// MatchPick holds a player's picks for one match.
type MatchPick struct {
	MatchID             string        `json:"match_id"`
	WinnerName          string        `json:"winner_name"`
	BattleRoyalEntrants []string      `json:"battle_royal_entrants,omitempty"`
	BonusAnswers        []BonusAnswer `json:"bonus_answers,omitempty"`
}

// PicksPayload is the unit of optimistic save. It is replaced as a whole on
// every edit; the server never receives field-level patches.
type PicksPayload struct {
	MatchPicks        []MatchPick   `json:"match_picks"`
	EventBonusAnswers []BonusAnswer `json:"event_bonus_answers"`
	TiebreakerAnswer  string        `json:"tiebreaker_answer"`
}

// Clone returns a deep copy of p.
func (p PicksPayload) Clone() PicksPayload {
	out := PicksPayload{
		TiebreakerAnswer: p.TiebreakerAnswer,
	}
	if p.MatchPicks != nil {
		out.MatchPicks = make([]MatchPick, len(p.MatchPicks))
		for i, mp := range p.MatchPicks {
			out.MatchPicks[i] = MatchPick{
				MatchID:             mp.MatchID,
				WinnerName:          mp.WinnerName,
				BattleRoyalEntrants: append([]string(nil), mp.BattleRoyalEntrants...),
				BonusAnswers:        append([]BonusAnswer(nil), mp.BonusAnswers...),
			}
		}
	}
	if p.EventBonusAnswers != nil {
		out.EventBonusAnswers = append([]BonusAnswer(nil), p.EventBonusAnswers...)
	}
	return out
}

// Fingerprint serializes the payload for "has it changed since" comparisons.
// Empty and nil slices produce the same fingerprint.
func (p PicksPayload) Fingerprint() string {
	canonical := p.Clone()
	if canonical.MatchPicks == nil {
		canonical.MatchPicks = []MatchPick{}
	}
	if canonical.EventBonusAnswers == nil {
		canonical.EventBonusAnswers = []BonusAnswer{}
	}
	for i := range canonical.MatchPicks {
		if len(canonical.MatchPicks[i].BattleRoyalEntrants) == 0 {
			canonical.MatchPicks[i].BattleRoyalEntrants = nil
		}
		if len(canonical.MatchPicks[i].BonusAnswers) == 0 {
			canonical.MatchPicks[i].BonusAnswers = nil
		}
	}
	return string(mustMarshal(canonical))
}

// mustMarshal encodes values that are made of strings and slices only. An
// error means a field type changed and is a programming bug.
func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("models: marshal %T: %v", v, err))
	}
	return data
}

// MatchPick returns a pointer to the pick for matchID, appending an empty pick
// if none exists yet.
func (p *PicksPayload) MatchPick(matchID string) *MatchPick {
	for i := range p.MatchPicks {
		if p.MatchPicks[i].MatchID == matchID {
			return &p.MatchPicks[i]
		}
	}
	p.MatchPicks = append(p.MatchPicks, MatchPick{MatchID: matchID})
	return &p.MatchPicks[len(p.MatchPicks)-1]
}

// SetAnswer replaces or appends the answer for questionID.
func SetAnswer(answers []BonusAnswer, questionID, answer string) []BonusAnswer {
	for i := range answers {
		if answers[i].QuestionID == questionID {
			answers[i].Answer = answer
			return answers
		}
	}
	return append(answers, BonusAnswer{QuestionID: questionID, Answer: answer})
}

// Player is the requesting player's server record.
type Player struct {
	ID          string       `json:"id"`
	Nickname    string       `json:"nickname"`
	IsSubmitted bool         `json:"is_submitted"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Picks       PicksPayload `json:"picks"`
}

// MyState is the response of the "my state" endpoint.
type MyState struct {
	Player Player       `json:"player"`
	Locks  LockSnapshot `json:"locks"`
	Game   Game         `json:"game"`
}

// SaveResult is the response to a successful picks save. IgnoredLocks lists the
// field keys the server dropped because they were locked.
type SaveResult struct {
	Player       Player   `json:"player"`
	IgnoredLocks []string `json:"ignored_locks"`
}
