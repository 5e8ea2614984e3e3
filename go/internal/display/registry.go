package display

import (
	"sync"

	"github.com/mcdev12/pickem/go/internal/live"
	"github.com/rs/zerolog/log"
)

// Controller is the part of a live game the display drives.
type Controller interface {
	View() live.View
	Dismiss() bool
	Refresh() bool
}

// Registry maps game IDs to live games.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Controller
}

func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Controller)}
}

func (r *Registry) Register(gameID string, c Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[gameID] = c
}

func (r *Registry) Remove(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, gameID)
}

func (r *Registry) Lookup(gameID string) (Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.games[gameID]
	return c, ok
}

// HandleCommand applies a screen command to the registered game.
func (r *Registry) HandleCommand(gameID string, cmd Command) {
	c, ok := r.Lookup(gameID)
	if !ok {
		return
	}
	switch cmd.Type {
	case CommandDismiss:
		c.Dismiss()
	case CommandRefresh:
		if !c.Refresh() {
			log.Debug().Str("game_id", gameID).Msg("refresh rate limited")
		}
	}
}
