package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mcdev12/pickem/go/internal/picks"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var noSaveFlag = &cli.BoolFlag{Name: "no-save", Usage: "keep the edit in the local draft only"}

func (a *pickemApp) pickCommand() *cli.Command {
	return &cli.Command{
		Name:  "pick",
		Usage: "edit your picks",
		Subcommands: []*cli.Command{
			{
				Name:      "winner",
				Usage:     "pick the winner of a match",
				ArgsUsage: "<match-id> <winner>",
				Flags:     []cli.Flag{noSaveFlag},
				Action: a.editAction(2, func(ctx context.Context, s *picks.Sheet, args []string) error {
					return s.SetWinner(ctx, args[0], args[1])
				}),
			},
			{
				Name:      "entrants",
				Usage:     "pick the entrants of a battle royal",
				ArgsUsage: "<match-id> <entrant>...",
				Flags:     []cli.Flag{noSaveFlag},
				Action: a.editAction(2, func(ctx context.Context, s *picks.Sheet, args []string) error {
					return s.SetBattleRoyalEntrants(ctx, args[0], args[1:])
				}),
			},
			{
				Name:      "bonus",
				Usage:     "answer a match bonus question",
				ArgsUsage: "<match-id> <question-id> <answer>",
				Flags:     []cli.Flag{noSaveFlag},
				Action: a.editAction(3, func(ctx context.Context, s *picks.Sheet, args []string) error {
					return s.SetMatchBonus(ctx, args[0], args[1], args[2])
				}),
			},
			{
				Name:      "event-bonus",
				Usage:     "answer an event bonus question",
				ArgsUsage: "<question-id> <answer>",
				Flags:     []cli.Flag{noSaveFlag},
				Action: a.editAction(2, func(ctx context.Context, s *picks.Sheet, args []string) error {
					return s.SetEventBonus(ctx, args[0], args[1])
				}),
			},
			{
				Name:      "tiebreaker",
				Usage:     "answer the tiebreaker",
				ArgsUsage: "<answer>",
				Flags:     []cli.Flag{noSaveFlag},
				Action: a.editAction(1, func(ctx context.Context, s *picks.Sheet, args []string) error {
					return s.SetTiebreaker(ctx, args[0])
				}),
			},
		},
	}
}

func (a *pickemApp) saveCommand() *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "save the local draft to the server",
		Action: func(c *cli.Context) error {
			return a.withSession(c, func(ctx context.Context, s *picks.Sheet) error {
				return s.Save(ctx, picks.OpSave)
			})
		},
	}
}

func (a *pickemApp) submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "save and submit your picks",
		Action: func(c *cli.Context) error {
			return a.withSession(c, func(ctx context.Context, s *picks.Sheet) error {
				return s.Submit(ctx)
			})
		},
	}
}

// editAction applies one edit to the local draft and saves it unless
// --no-save is set.
func (a *pickemApp) editAction(minArgs int, edit func(context.Context, *picks.Sheet, []string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < minArgs {
			return fmt.Errorf("expected at least %d arguments, got %d", minArgs, c.NArg())
		}
		return a.withSession(c, func(ctx context.Context, s *picks.Sheet) error {
			if s.State().Restored {
				// the server still rejects locked fields on save
				if err := s.RefreshLocks(ctx); err != nil {
					log.Debug().Err(err).Msg("editing restored draft without fresh locks")
				}
			}
			if err := edit(ctx, s, c.Args().Slice()); err != nil {
				if errors.Is(err, picks.ErrFieldLocked) {
					return fmt.Errorf("%w: the server no longer accepts this pick", err)
				}
				return err
			}
			if c.Bool("no-save") {
				fmt.Fprintln(c.App.Writer, "Draft updated locally.")
				return nil
			}
			return s.Save(ctx, picks.OpSave)
		})
	}
}

func (a *pickemApp) withSession(c *cli.Context, fn func(context.Context, *picks.Sheet) error) error {
	sess, err := a.openSession(c.Context)
	if err != nil {
		return err
	}
	defer sess.Close()

	err = fn(c.Context, sess.sheet)
	printNotices(c.App.Writer, sess.sheet)
	return err
}

func printNotices(w io.Writer, s *picks.Sheet) {
	for {
		select {
		case n := <-s.Notices():
			prefix := ""
			if n.Warning {
				prefix = "warning: "
			}
			fmt.Fprintf(w, "%s%s\n", prefix, n.Message)
		default:
			return
		}
	}
}
