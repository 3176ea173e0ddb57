package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/app"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/config"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "pixel-canvas-server",
		Short:         "Realtime collaborative pixel art canvas server",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.IntVar(&overrides.GridSize, "grid-size", 0, "canvas dimension N (N×N cells)")
	flags.DurationVar(&overrides.Cooldown, "cooldown", 0, "minimum wait between accepted placements per user")
	flags.StringVar(&overrides.DatabasePath, "db", "", "path to the sqlite database")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

func run(ctx context.Context, configPath string, overrides config.Config) error {
	bootLogger := log.New("info")

	cfg, resolvedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}
	cfg.UpdateFrom(overrides)

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", resolvedPath).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to construct application")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Int("grid_size", cfg.GridSize).Msg("starting pixel canvas server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
