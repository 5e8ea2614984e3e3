package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pickem/go/clients/pickem_client"
	"github.com/mcdev12/pickem/go/internal/config"
	"github.com/mcdev12/pickem/go/internal/display"
	"github.com/mcdev12/pickem/go/internal/drafts"
	"github.com/mcdev12/pickem/go/internal/live"
	"github.com/mcdev12/pickem/go/internal/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load(os.Getenv("PICKEM_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.Log)

	if cfg.Game.ID == "" {
		log.Fatal().Msg("game.id (PICKEM_GAME_ID) is required")
	}

	log.Info().
		Str("game_id", cfg.Game.ID).
		Str("api", cfg.API.BaseURL).
		Str("addr", cfg.Display.Addr).
		Bool("nats", cfg.NATS.Enabled).
		Msg("starting display gateway")

	client := pickem_client.NewPickemClient(cfg.API.BaseURL, cfg.API.Token)
	client.SetTimeout(cfg.API.Timeout)

	opts := []live.GameOption{live.WithMetrics(live.NewPrometheusMetrics(prometheus.DefaultRegisterer))}
	if cfg.Display.WakeLock {
		opts = append(opts, live.WithWakeLock(&platform.LogWakeLock{}))
	}
	game := live.NewGame(cfg.LiveGame(false), client, clockwork.NewRealClock(), opts...)

	registry := display.NewRegistry()
	hub := display.NewHub(display.DefaultConnectionConfig(), registry.HandleCommand)
	if err := display.RegisterHubMetrics(prometheus.DefaultRegisterer, hub); err != nil {
		log.Fatal().Err(err).Msg("failed to register display metrics")
	}
	game.Subscribe(hub.Listener())
	registry.Register(cfg.Game.ID, game)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Start(ctx)
	game.Start(ctx)

	if cfg.NATS.Enabled {
		perm := platform.StaticPermission(cfg.NATS.NotificationsGranted)
		if !perm.Granted() {
			logPermissionPromptOnce(ctx, cfg)
		}
		waker, err := live.SubscribeWakeups(cfg.Push(), cfg.Game.ID, perm, game.Wake)
		switch {
		case errors.Is(err, live.ErrPushDisabled):
			log.Info().Msg("push wake-ups disabled, polling only")
		case err != nil:
			log.Warn().Err(err).Msg("failed to subscribe to wake-ups, polling only")
		default:
			defer waker.Close()
		}
	}

	server := display.NewServer(cfg.Display.Addr, display.NewHandler(hub, registry, prometheus.DefaultGatherer))
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	game.OnTeardown()
	cancel()

	log.Info().Msg("display gateway shutdown complete")
}

// logPermissionPromptOnce explains how to enable push wake-ups the first time
// this screen runs for the game.
func logPermissionPromptOnce(ctx context.Context, cfg *config.Config) {
	backend, err := drafts.Open(ctx, cfg.Drafts.DSN)
	if err != nil {
		log.Debug().Err(err).Msg("skipping notification prompt")
		return
	}
	defer backend.Close()

	flags := drafts.NewPromptFlags(backend, clockwork.NewRealClock())
	_, err = flags.Once(ctx, cfg.Game.ID, cfg.Game.PlayerID, drafts.FlagNotificationPrompt, func() {
		log.Info().Msg("notifications not granted; set PICKEM_NOTIFICATIONS=true for instant wake-ups")
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record notification prompt")
	}
}
