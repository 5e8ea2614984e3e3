package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/pickem/go/internal/dbconfig"
	"github.com/mcdev12/pickem/go/internal/drafts"
	"github.com/mcdev12/pickem/go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func (a *pickemApp) draftsCommand() *cli.Command {
	return &cli.Command{
		Name:  "drafts",
		Usage: "inspect local drafts",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list drafts, for one game when --game is set",
				Action: a.listDrafts,
			},
			{
				Name:      "clear",
				Usage:     "delete drafts by key, or every draft of --game with --all",
				ArgsUsage: "[key]...",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "all", Usage: "delete every draft of the game"}},
				Action:    a.clearDrafts,
			},
		},
	}
}

func (a *pickemApp) listDrafts(c *cli.Context) error {
	backend, err := drafts.Open(c.Context, a.cfg.Drafts.DSN)
	if err != nil {
		return err
	}
	defer backend.Close()

	prefix := "game:"
	if a.cfg.Game.ID != "" {
		prefix = drafts.GamePrefix(a.cfg.Game.ID)
	}
	store := drafts.NewStore(backend, models.PicksPayload.Fingerprint, a.deps.clock)
	keys, err := store.Keys(c.Context, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(c.App.Writer, "No drafts.")
		return nil
	}

	for _, key := range keys {
		d, ok, err := store.Get(c.Context, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		state := "synced"
		if d.Dirty {
			state = "unsynced"
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", key, state, d.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *pickemApp) clearDrafts(c *cli.Context) error {
	keys := c.Args().Slice()
	if c.Bool("all") {
		if err := a.requireGame(); err != nil {
			return err
		}
	} else if len(keys) == 0 {
		return errors.New("give draft keys or --all")
	}

	backend, err := drafts.Open(c.Context, a.cfg.Drafts.DSN)
	if err != nil {
		return err
	}
	defer backend.Close()

	if c.Bool("all") {
		keys, err = backend.Keys(c.Context, drafts.GamePrefix(a.cfg.Game.ID))
		if err != nil {
			return err
		}
	}
	for _, key := range keys {
		if err := backend.Delete(c.Context, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	fmt.Fprintf(c.App.Writer, "Cleared %d drafts.\n", len(keys))
	return nil
}

func (a *pickemApp) migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the draft table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dsn", Usage: "database to migrate, defaults to the draft storage DSN"},
		},
		Action: func(c *cli.Context) error {
			dsn := c.String("dsn")
			if dsn == "" {
				dsn = a.cfg.Drafts.DSN
			}

			if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
				backend, err := drafts.Open(c.Context, dsn)
				if err != nil {
					return err
				}
				return backend.Close()
			}

			poolConfig, err := dbconfig.NewConfigFromEnv().PoolConfig(dsn)
			if err != nil {
				return err
			}
			pool, err := pgxpool.NewWithConfig(c.Context, poolConfig)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			log.Info().Str("host", poolConfig.ConnConfig.Host).Str("database", poolConfig.ConnConfig.Database).Msg("migrating draft table")
			return drafts.MigratePool(c.Context, pool)
		},
	}
}
