package drafts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jonboulle/clockwork"
)

// Prompt flags a player sees at most once per game.
const (
	FlagNotificationPrompt = "notifications"
	FlagInstallPrompt      = "install"
)

// PromptFlags remembers which one-time prompts a player has already seen. It
// shares the draft backend under a separate key space.
type PromptFlags struct {
	store *Store[bool]
	clock clockwork.Clock
}

// NewPromptFlags creates PromptFlags over backend.
func NewPromptFlags(backend Backend, clock clockwork.Clock) *PromptFlags {
	return &PromptFlags{
		store: NewStore(backend, strconv.FormatBool, clock),
		clock: clock,
	}
}

func promptKey(gameID, playerID, flag string) string {
	return fmt.Sprintf("prompt:%s:%s:%s", gameID, playerID, flag)
}

// Seen reports whether the prompt was already shown.
func (p *PromptFlags) Seen(ctx context.Context, gameID, playerID, flag string) (bool, error) {
	d, ok, err := p.store.Get(ctx, promptKey(gameID, playerID, flag))
	if err != nil {
		return false, err
	}
	return ok && d.Value, nil
}

// Mark records that the prompt was shown.
func (p *PromptFlags) Mark(ctx context.Context, gameID, playerID, flag string) error {
	_, err := p.store.Confirm(ctx, promptKey(gameID, playerID, flag), true, p.clock.Now())
	return err
}

// Reset forgets the prompt so it shows again.
func (p *PromptFlags) Reset(ctx context.Context, gameID, playerID, flag string) error {
	return p.store.Clear(ctx, promptKey(gameID, playerID, flag))
}

// Once runs show the first time it is called for the flag and marks the flag
// afterwards. It reports whether show ran.
func (p *PromptFlags) Once(ctx context.Context, gameID, playerID, flag string, show func()) (bool, error) {
	seen, err := p.Seen(ctx, gameID, playerID, flag)
	if err != nil || seen {
		return false, err
	}
	show()
	if err := p.Mark(ctx, gameID, playerID, flag); err != nil {
		return true, fmt.Errorf("failed to mark %s prompt: %w", flag, err)
	}
	return true, nil
}
