package live

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/pickem/go/internal/platform"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// ErrPushDisabled is returned when notifications are not granted.
var ErrPushDisabled = errors.New("push wake-ups disabled: notification permission not granted")

// PushConfig holds configuration for push wake-ups.
type PushConfig struct {
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// DefaultPushConfig returns default push configuration
func DefaultPushConfig() PushConfig {
	return PushConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "pickem.games",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// WakeSubject is the subject the server publishes to when a game changes.
func WakeSubject(prefix, gameID string) string {
	return fmt.Sprintf("%s.%s.updated", prefix, gameID)
}

// PushWaker turns game-updated notifications into immediate polls. Polling
// keeps running either way; a push only shortens the wait.
type PushWaker struct {
	nc  *nats.Conn
	sub *nats.Subscription
}

// SubscribeWakeups connects to NATS and calls wake for every notification
// about gameID. It returns ErrPushDisabled without connecting when perm is
// not granted.
func SubscribeWakeups(config PushConfig, gameID string, perm platform.NotificationPermission, wake func()) (*PushWaker, error) {
	if perm == nil || !perm.Granted() {
		return nil, ErrPushDisabled
	}

	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected, relying on polling")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	subject := WakeSubject(config.SubjectPrefix, gameID)
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		log.Debug().Str("subject", msg.Subject).Msg("push wake-up")
		wake()
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	log.Info().Str("subject", subject).Msg("push wake-ups enabled")
	return &PushWaker{nc: nc, sub: sub}, nil
}

// Close unsubscribes and closes the connection.
func (w *PushWaker) Close() error {
	if w == nil {
		return nil
	}
	err := w.sub.Unsubscribe()
	w.nc.Close()
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}
