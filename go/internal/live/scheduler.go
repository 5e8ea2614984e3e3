package live

import (
	"time"
)

// Timing holds the on-screen durations of fullscreen effects.
type Timing struct {
	EventsDuration  time.Duration `yaml:"events_duration"`
	LeaderboardBase time.Duration `yaml:"leaderboard_base"`
	PerSwap         time.Duration `yaml:"per_swap"`
	LeaderboardMin  time.Duration `yaml:"leaderboard_min"`
	LeaderboardMax  time.Duration `yaml:"leaderboard_max"`
	FrameInterval   time.Duration `yaml:"frame_interval"`
}

// DefaultTiming returns the stock effect timings.
func DefaultTiming() Timing {
	return Timing{
		EventsDuration:  4500 * time.Millisecond,
		LeaderboardBase: 2 * time.Second,
		PerSwap:         400 * time.Millisecond,
		LeaderboardMin:  3500 * time.Millisecond,
		LeaderboardMax:  15 * time.Second,
		FrameInterval:   650 * time.Millisecond,
	}
}

// Duration computes how long an effect stays on screen. Leaderboard shuffles
// with more swaps stay longer, bounded by LeaderboardMin and LeaderboardMax.
// The scheduler may extend it with PlaybackDuration so every frame shows.
func (t Timing) Duration(e Effect) time.Duration {
	if !e.HasLeaderboard() {
		return t.EventsDuration
	}
	d := t.LeaderboardBase + time.Duration(e.SwapCount)*t.PerSwap
	if d < t.LeaderboardMin {
		d = t.LeaderboardMin
	}
	if t.LeaderboardMax > 0 && d > t.LeaderboardMax {
		d = t.LeaderboardMax
	}
	return d
}

// PlaybackDuration is Duration extended so that all frames play at
// FrameInterval and the final order is held for one more interval.
// LeaderboardMax never cuts the animation short.
func (t Timing) PlaybackDuration(e Effect, frames int) time.Duration {
	d := t.Duration(e)
	if frames < 2 || t.FrameInterval <= 0 {
		return d
	}
	if need := time.Duration(frames) * t.FrameInterval; d < need {
		d = need
	}
	return d
}

// Playback is the currently playing effect.
type Playback struct {
	Effect      Effect     `json:"effect"`
	StartedAt   time.Time  `json:"started_at"`
	EndsAt      time.Time  `json:"ends_at"`
	Frames      [][]string `json:"frames,omitempty"`
	Frame       int        `json:"frame"`
	NextFrameAt time.Time  `json:"-"` // zero once the last frame is showing
}

// CurrentFrame returns the leaderboard order currently on screen.
func (p Playback) CurrentFrame() []string {
	if p.Frame < len(p.Frames) {
		return p.Frames[p.Frame]
	}
	return nil
}

// Scheduler is a FIFO of effects with a single active slot. It never plays
// two effects at once. Time only moves through the now arguments, so the
// caller decides whether a real timer, a fake clock or a manual loop drives
// it. Scheduler is not safe for concurrent use.
type Scheduler struct {
	timing Timing
	queue  []Effect
	active *Playback
	closed bool
}

// NewScheduler creates an idle scheduler.
func NewScheduler(timing Timing) *Scheduler {
	return &Scheduler{timing: timing}
}

// Enqueue appends effects in order and starts the head if nothing is playing.
func (s *Scheduler) Enqueue(now time.Time, effects ...Effect) {
	if s.closed || len(effects) == 0 {
		return
	}
	s.queue = append(s.queue, effects...)
	if s.active == nil {
		s.promote(now)
	}
}

// AdvanceTick moves the scheduler to now: it ends an expired effect, shows the
// next animation frame when one is due, and promotes the next queued effect
// when idle. It reports whether the visible playback changed.
func (s *Scheduler) AdvanceTick(now time.Time) bool {
	if s.closed {
		return false
	}

	changed := false
	if s.active != nil {
		switch {
		case !now.Before(s.active.EndsAt):
			s.active = nil
			changed = true
		case !s.active.NextFrameAt.IsZero() && !now.Before(s.active.NextFrameAt):
			s.active.Frame++
			if s.active.Frame >= len(s.active.Frames)-1 {
				s.active.NextFrameAt = time.Time{}
			} else {
				s.active.NextFrameAt = s.active.NextFrameAt.Add(s.timing.FrameInterval)
			}
			changed = true
		}
	}

	if s.active == nil && s.promote(now) {
		changed = true
	}
	return changed
}

// Dismiss cancels the active effect and its animation. Queued effects still
// play afterwards. It reports whether anything was dismissed.
func (s *Scheduler) Dismiss(now time.Time) bool {
	if s.closed || s.active == nil {
		return false
	}
	s.active = nil
	s.promote(now)
	return true
}

// ClearQueue drops every queued effect but leaves the active one playing.
func (s *Scheduler) ClearQueue() {
	s.queue = nil
}

// Active returns a copy of the playing effect.
func (s *Scheduler) Active() (Playback, bool) {
	if s.active == nil {
		return Playback{}, false
	}
	return *s.active, true
}

// Pending returns the number of queued effects.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// NextDeadline returns the earliest time AdvanceTick has work to do.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	if s.closed || s.active == nil {
		return time.Time{}, false
	}
	deadline := s.active.EndsAt
	if next := s.active.NextFrameAt; !next.IsZero() && next.Before(deadline) {
		deadline = next
	}
	return deadline, true
}

// Teardown drops all state; the scheduler ignores every later call.
func (s *Scheduler) Teardown() {
	s.closed = true
	s.queue = nil
	s.active = nil
}

func (s *Scheduler) promote(now time.Time) bool {
	if len(s.queue) == 0 {
		return false
	}
	effect := s.queue[0]
	s.queue[0] = Effect{}
	s.queue = s.queue[1:]

	pb := &Playback{Effect: effect, StartedAt: now}
	if effect.HasLeaderboard() {
		pb.Frames = effect.Frames()
		if len(pb.Frames) > 1 {
			pb.NextFrameAt = now.Add(s.timing.FrameInterval)
		}
	}
	pb.EndsAt = now.Add(s.timing.PlaybackDuration(effect, len(pb.Frames)))
	s.active = pb
	return true
}
