package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pickem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 1200*time.Millisecond, cfg.Autosave.Quiet)
	assert.Equal(t, 4500*time.Millisecond, cfg.Effects.EventsDuration)
	assert.Equal(t, "pickem.games", cfg.NATS.SubjectPrefix)
	assert.False(t, cfg.NATS.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://pickem.example.com
game:
  id: g1
  join_code: ABCD
poll:
  interval: 3s
effects:
  events_duration: 6s
  leaderboard_min: 2s
  leaderboard_max: 10s
drafts:
  dsn: "memory:"
`)
	t.Setenv("PICKEM_PLAYER_ID", "p7")
	t.Setenv("PICKEM_POLL_INTERVAL", "4s")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("GATEWAY_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://pickem.example.com", cfg.API.BaseURL)
	assert.Equal(t, 4*time.Second, cfg.Poll.Interval, "environment wins over the file")
	assert.Equal(t, 6*time.Second, cfg.Effects.EventsDuration)
	assert.Equal(t, "memory:", cfg.Drafts.DSN)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, ":9090", cfg.Display.Addr)

	game := cfg.LiveGame(true)
	assert.Equal(t, "g1", game.GameID)
	assert.Equal(t, "ABCD", game.JoinCode)
	assert.True(t, game.WithMe)

	sheet := cfg.Sheet()
	assert.Equal(t, "p7", sheet.PlayerID)
	assert.Equal(t, 1200*time.Millisecond, sheet.QuietPeriod)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, `
poll:
  interval: 0s
effects:
  leaderboard_min: 10s
  leaderboard_max: 5s
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "poll.interval")
	assert.ErrorContains(t, err, "leaderboard_max")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDraftsFollowPostgresEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_NAME", "drafts")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://postgres:postgres@pg:5432/drafts?sslmode=disable", cfg.Drafts.DSN)

	t.Setenv("DRAFTS_DSN", "memory:")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory:", cfg.Drafts.DSN)
}
