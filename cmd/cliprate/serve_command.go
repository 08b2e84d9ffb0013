package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cliprate/internal/catalog"
	"cliprate/internal/logging"
	"cliprate/internal/session"
	"cliprate/internal/store"
	"cliprate/internal/survey"
	"cliprate/internal/telegram"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the survey bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			// Two pollers on one token would steal each other's updates.
			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "cliprate.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("another cliprate instance is already running")
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			cat, err := catalog.Load(cfg.Survey.CatalogPath)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			client, err := telegram.NewClient(cfg)
			if err != nil {
				return fmt.Errorf("init telegram client: %w", err)
			}

			machine := session.NewMachine(cat, cfg.Survey.VideosPerTheme, session.NewRand(time.Now().UnixNano()))
			renderer := telegram.NewPromptRenderer(client, cat)
			manager := survey.NewManager(st, cat, machine, renderer, logger)
			poller := telegram.NewPoller(cfg, client, manager, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("cliprate started",
				logging.String("db", cfg.DatabasePath()),
				logging.Int("themes", len(cat.ThemeNames())))

			err = poller.Run(ctx)
			if errors.Is(err, ctx.Err()) {
				logger.Info("cliprate stopped")
				return nil
			}
			return err
		},
	}
}
