// Package platform holds the host capabilities the live engine consumes but
// does not implement: keeping the display awake and notification consent.
package platform

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// WakeLock keeps the display from sleeping while a game is active.
type WakeLock interface {
	Acquire(ctx context.Context) error
	Release() error
}

// NotificationPermission gates whether push wake-ups supplement polling.
type NotificationPermission interface {
	Granted() bool
}

// StaticPermission is a fixed permission answer, usually read from config.
type StaticPermission bool

func (p StaticPermission) Granted() bool { return bool(p) }

// LogWakeLock records acquisitions in the log. It is the default on hosts with
// no real display power management.
type LogWakeLock struct {
	mu   sync.Mutex
	held bool
}

func (l *LogWakeLock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		l.held = true
		log.Info().Msg("wake lock acquired")
	}
	return nil
}

func (l *LogWakeLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		l.held = false
		log.Info().Msg("wake lock released")
	}
	return nil
}

// Held reports whether the lock is currently held.
func (l *LogWakeLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
