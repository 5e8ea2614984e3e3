package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mcdev12/pickem/go/internal/drafts"
	"github.com/mcdev12/pickem/go/internal/live"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func (a *pickemApp) watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "follow a game live: new events and leaderboard shuffles",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "me", Usage: "also poll your own picks and locks"},
			&cli.BoolFlag{Name: "once", Usage: "poll once, print the standings and exit"},
		},
		Action: a.watch,
	}
}

func (a *pickemApp) watch(c *cli.Context) error {
	if err := a.requireGame(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("me") {
		a.notificationPrompt(ctx, c.App.Writer)
	}

	game := live.NewGame(a.cfg.LiveGame(c.Bool("me")), a.deps.newAPI(a.cfg), a.deps.clock)
	defer game.OnTeardown()

	if c.Bool("once") {
		if err := game.Init(ctx); err != nil {
			return err
		}
		printStandings(c.App.Writer, game.View())
		return nil
	}

	game.Subscribe(newViewPrinter(c.App.Writer).Print)
	game.Start(ctx)
	<-ctx.Done()
	return nil
}

// notificationPrompt suggests push wake-ups once per game and player.
func (a *pickemApp) notificationPrompt(ctx context.Context, w io.Writer) {
	if a.cfg.Game.PlayerID == "" || a.cfg.NATS.NotificationsGranted {
		return
	}
	backend, err := drafts.Open(ctx, a.cfg.Drafts.DSN)
	if err != nil {
		log.Debug().Err(err).Msg("skipping notification prompt")
		return
	}
	defer backend.Close()

	flags := drafts.NewPromptFlags(backend, a.deps.clock)
	_, err = flags.Once(ctx, a.cfg.Game.ID, a.cfg.Game.PlayerID, drafts.FlagNotificationPrompt, func() {
		fmt.Fprintln(w, "Tip: set NATS_ENABLED=true and PICKEM_NOTIFICATIONS=true to get updates the moment they happen.")
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record notification prompt")
	}
}

// viewPrinter writes each new effect and frame once.
type viewPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	started  time.Time
	frame    int
	stale    bool
	hydrated bool
}

func newViewPrinter(w io.Writer) *viewPrinter {
	return &viewPrinter{w: w, frame: -1}
}

func (p *viewPrinter) Print(v live.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hydrated && v.Snapshot != nil {
		p.hydrated = true
		printStandings(p.w, v)
	}
	if v.Stale != p.stale {
		p.stale = v.Stale
		if v.Stale {
			fmt.Fprintln(p.w, "! connection lost, showing last known state")
		} else {
			fmt.Fprintln(p.w, "! reconnected")
		}
	}

	pb := v.Playback
	if pb == nil {
		return
	}
	if !pb.StartedAt.Equal(p.started) {
		p.started = pb.StartedAt
		p.frame = -1
		for _, e := range pb.Effect.Events {
			fmt.Fprintf(p.w, "* %s\n", e.Message)
		}
	}
	if pb.Effect.HasLeaderboard() && pb.Frame != p.frame && pb.Frame < len(pb.Frames) {
		p.frame = pb.Frame
		fmt.Fprintf(p.w, "  %s\n", strings.Join(pb.CurrentFrame(), " > "))
	}
}

func printStandings(w io.Writer, v live.View) {
	if v.Snapshot == nil {
		fmt.Fprintln(w, "No game state yet.")
		return
	}
	s := v.Snapshot
	fmt.Fprintf(w, "Game %s (%s) - %d/%d submitted\n", v.GameID, s.GameStatus, s.SubmittedCount, s.PlayerCount)
	for _, e := range s.Leaderboard {
		fmt.Fprintf(w, "%3d. %-20s %d\n", e.Rank, e.Nickname, e.Score)
	}
}
