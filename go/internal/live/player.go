package live

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Stepper is the timed surface a Player drives.
type Stepper interface {
	AdvanceTick(now time.Time) bool
	NextDeadline() (time.Time, bool)
}

// Player drives a Stepper from a clock: it arms one timer for the next
// deadline, steps when it fires, and re-arms after every Wake.
type Player struct {
	stepper Stepper
	clock   clockwork.Clock
	wakeCh  chan struct{}
}

// NewPlayer creates a Player for stepper.
func NewPlayer(stepper Stepper, clock clockwork.Clock) *Player {
	return &Player{
		stepper: stepper,
		clock:   clock,
		wakeCh:  make(chan struct{}, 1),
	}
}

// Wake makes the player re-read the stepper's deadline. Call it after
// enqueueing or dismissing effects.
func (p *Player) Wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// Run steps until ctx is cancelled. The pending timer is stopped on return so
// no callback fires into torn-down state.
func (p *Player) Run(ctx context.Context) {
	var timer clockwork.Timer
	defer func() {
		if timer != nil {
			stopAndDrainTimer(timer)
		}
	}()

	for {
		if timer != nil {
			stopAndDrainTimer(timer)
			timer = nil
		}

		var fire <-chan time.Time
		if deadline, ok := p.stepper.NextDeadline(); ok {
			timer = p.clock.NewTimer(max(deadline.Sub(p.clock.Now()), 0))
			fire = timer.Chan()
		}

		select {
		case <-ctx.Done():
			log.Debug().Msg("effect player stopped")
			return
		case <-p.wakeCh:
		case <-fire:
			p.stepper.AdvanceTick(p.clock.Now())
		}
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
