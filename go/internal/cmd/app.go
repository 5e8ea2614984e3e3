package main

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pickem/go/clients/pickem_client"
	"github.com/mcdev12/pickem/go/internal/config"
	"github.com/mcdev12/pickem/go/internal/drafts"
	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/mcdev12/pickem/go/internal/picks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

// deps are the pieces tests replace.
type deps struct {
	newAPI   func(cfg *config.Config) picks.API
	clock    clockwork.Clock
	registry *prometheus.Registry
}

func defaultDeps() deps {
	return deps{
		newAPI: func(cfg *config.Config) picks.API {
			client := pickem_client.NewPickemClient(cfg.API.BaseURL, cfg.API.Token)
			client.SetTimeout(cfg.API.Timeout)
			return client
		},
		clock:    clockwork.NewRealClock(),
		registry: prometheus.NewRegistry(),
	}
}

type pickemApp struct {
	deps    deps
	cfg     *config.Config
	metrics picks.MetricsCollector
}

func newApp(d deps) *cli.App {
	a := &pickemApp{deps: d, metrics: picks.NoOpMetricsCollector{}}
	if d.registry != nil {
		a.metrics = picks.NewPrometheusMetrics(d.registry)
	}

	return &cli.App{
		Name:  "pickem",
		Usage: "follow a live pick'em game and manage your picks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to the YAML config file", EnvVars: []string{"PICKEM_CONFIG"}},
			&cli.StringFlag{Name: "game", Aliases: []string{"g"}, Usage: "game ID"},
			&cli.StringFlag{Name: "player", Aliases: []string{"p"}, Usage: "player ID"},
			&cli.StringFlag{Name: "join-code", Usage: "join code for public game state"},
			&cli.StringFlag{Name: "api-url", Usage: "pick'em server base URL"},
			&cli.StringFlag{Name: "drafts-dsn", Usage: "draft storage (memory:, sqlite:<path>, postgres://...)"},
			&cli.StringFlag{Name: "metrics-file", Usage: "write save metrics in the Prometheus text format on exit", EnvVars: []string{"PICKEM_METRICS_FILE"}},
		},
		Before: a.loadConfig,
		After:  a.writeMetrics,
		Commands: []*cli.Command{
			a.watchCommand(),
			a.pickCommand(),
			a.saveCommand(),
			a.submitCommand(),
			a.draftsCommand(),
			a.migrateCommand(),
		},
	}
}

func (a *pickemApp) loadConfig(c *cli.Context) error {
	config.LoadDotEnv()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("game"); v != "" {
		cfg.Game.ID = v
	}
	if v := c.String("player"); v != "" {
		cfg.Game.PlayerID = v
	}
	if v := c.String("join-code"); v != "" {
		cfg.Game.JoinCode = v
	}
	if v := c.String("api-url"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := c.String("drafts-dsn"); v != "" {
		cfg.Drafts.DSN = v
	}

	config.SetupLogging(cfg.Log)
	a.cfg = cfg
	return nil
}

// writeMetrics dumps the registry for a node_exporter textfile collector.
func (a *pickemApp) writeMetrics(c *cli.Context) error {
	path := c.String("metrics-file")
	if path == "" || a.deps.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, a.deps.registry)
}

func (a *pickemApp) requireGame() error {
	if a.cfg.Game.ID == "" {
		return errors.New("a game is required (--game or PICKEM_GAME_ID)")
	}
	return nil
}

// session is an initialized pick sheet and the draft backend behind it.
type session struct {
	sheet   *picks.Sheet
	backend drafts.Backend
}

func (a *pickemApp) openSession(ctx context.Context) (*session, error) {
	if err := a.requireGame(); err != nil {
		return nil, err
	}
	if a.cfg.Game.PlayerID == "" {
		return nil, errors.New("a player is required (--player or PICKEM_PLAYER_ID)")
	}

	backend, err := drafts.Open(ctx, a.cfg.Drafts.DSN)
	if err != nil {
		return nil, err
	}
	store := drafts.NewStore(backend, models.PicksPayload.Fingerprint, a.deps.clock)
	sheet := picks.NewSheet(a.cfg.Sheet(), a.deps.newAPI(a.cfg), store, a.deps.clock, picks.WithMetrics(a.metrics))

	if err := sheet.Init(ctx); err != nil {
		sheet.OnTeardown()
		backend.Close()
		return nil, err
	}
	return &session{sheet: sheet, backend: backend}, nil
}

func (s *session) Close() error {
	s.sheet.OnTeardown()
	return s.backend.Close()
}
