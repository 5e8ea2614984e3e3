// Package config loads pick'em client configuration from a YAML file, a .env
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/pickem/go/internal/dbconfig"
	"github.com/mcdev12/pickem/go/internal/live"
	"github.com/mcdev12/pickem/go/internal/picks"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Game     GameConfig     `yaml:"game"`
	Poll     PollConfig     `yaml:"poll"`
	Effects  live.Timing    `yaml:"effects"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Drafts   DraftsConfig   `yaml:"drafts"`
	NATS     NATSConfig     `yaml:"nats"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type GameConfig struct {
	ID       string `yaml:"id"`
	JoinCode string `yaml:"join_code"`
	PlayerID string `yaml:"player_id"`
}

type PollConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type AutosaveConfig struct {
	Quiet time.Duration `yaml:"quiet"`
}

type DraftsConfig struct {
	// DSN selects draft storage: memory:, sqlite:<path> or postgres://...
	DSN string `yaml:"dsn"`
}

type NATSConfig struct {
	Enabled              bool          `yaml:"enabled"`
	URL                  string        `yaml:"url"`
	SubjectPrefix        string        `yaml:"subject_prefix"`
	ReconnectWait        time.Duration `yaml:"reconnect_wait"`
	NotificationsGranted bool          `yaml:"notifications_granted"`
}

type DisplayConfig struct {
	Addr     string `yaml:"addr"`
	WakeLock bool   `yaml:"wake_lock"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	push := live.DefaultPushConfig()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Poll:     PollConfig{Interval: live.DefaultPollInterval},
		Effects:  live.DefaultTiming(),
		Autosave: AutosaveConfig{Quiet: picks.DefaultQuietPeriod},
		Drafts:   DraftsConfig{DSN: "sqlite:pickem-drafts.db"},
		NATS: NATSConfig{
			URL:           push.URL,
			SubjectPrefix: push.SubjectPrefix,
			ReconnectWait: push.ReconnectWait,
		},
		Display: DisplayConfig{Addr: ":8082", WakeLock: true},
		Log:     LogConfig{Level: "info", Pretty: true},
	}
}

// LoadDotEnv loads a .env file from the working directory if there is one.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.API.BaseURL = getEnv("PICKEM_API_URL", c.API.BaseURL)
	c.API.Token = getEnv("PICKEM_TOKEN", c.API.Token)
	c.API.Timeout = getEnvAsDuration("PICKEM_API_TIMEOUT", c.API.Timeout)
	c.Game.ID = getEnv("PICKEM_GAME_ID", c.Game.ID)
	c.Game.JoinCode = getEnv("PICKEM_JOIN_CODE", c.Game.JoinCode)
	c.Game.PlayerID = getEnv("PICKEM_PLAYER_ID", c.Game.PlayerID)
	c.Poll.Interval = getEnvAsDuration("PICKEM_POLL_INTERVAL", c.Poll.Interval)
	if dbconfig.Configured() {
		c.Drafts.DSN = dbconfig.NewConfigFromEnv().DSN()
	}
	c.Drafts.DSN = getEnv("DRAFTS_DSN", c.Drafts.DSN)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.NotificationsGranted = getEnvAsBool("PICKEM_NOTIFICATIONS", c.NATS.NotificationsGranted)
	c.Display.Addr = getEnv("DISPLAY_ADDR", c.Display.Addr)
	if port := getEnvAsInt("GATEWAY_PORT", 0); port > 0 {
		c.Display.Addr = fmt.Sprintf(":%d", port)
	}
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval))
	}
	if c.Poll.StaleAfter < 0 {
		errs = append(errs, fmt.Errorf("poll.stale_after must not be negative, got %s", c.Poll.StaleAfter))
	}
	if c.Effects.LeaderboardMax > 0 && c.Effects.LeaderboardMax < c.Effects.LeaderboardMin {
		errs = append(errs, errors.New("effects.leaderboard_max must be at least effects.leaderboard_min"))
	}
	return errors.Join(errs...)
}

// LiveGame returns the live game store configuration.
func (c *Config) LiveGame(withMe bool) live.GameConfig {
	return live.GameConfig{
		GameID:       c.Game.ID,
		JoinCode:     c.Game.JoinCode,
		WithMe:       withMe,
		PollInterval: c.Poll.Interval,
		StaleAfter:   c.Poll.StaleAfter,
		Timing:       c.Effects,
	}
}

// Sheet returns the pick sheet configuration.
func (c *Config) Sheet() picks.SheetConfig {
	return picks.SheetConfig{
		GameID:      c.Game.ID,
		PlayerID:    c.Game.PlayerID,
		JoinCode:    c.Game.JoinCode,
		QuietPeriod: c.Autosave.Quiet,
	}
}

// Push returns the NATS wake-up configuration.
func (c *Config) Push() live.PushConfig {
	push := live.DefaultPushConfig()
	push.URL = c.NATS.URL
	push.SubjectPrefix = c.NATS.SubjectPrefix
	push.ReconnectWait = c.NATS.ReconnectWait
	return push
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
