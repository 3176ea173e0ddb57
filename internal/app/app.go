package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/config"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/core"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/store"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/store/sqlite"
	transporthttp "github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if cfg.GridSize <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", cfg.GridSize)
	}
	if !core.IsValidColor(cfg.DefaultColor) {
		return nil, fmt.Errorf("default color %q is not a #RRGGBB string", cfg.DefaultColor)
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("store initialized")

	grid := loadInitialGrid(context.Background(), st, cfg, logger)
	cooldowns := core.NewCooldownTracker(cfg.Cooldown)
	hub := core.NewHub(grid, cooldowns, st, logger)

	verifier := identity.NewTokenVerifier([]byte(cfg.AuthSecret), cfg.AuthAudience, cfg.AuthIssuer)

	server := transporthttp.NewServer(hub, verifier, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// loadInitialGrid restores the canvas from the store. When nothing usable is
// persisted (missing, malformed, or wrong-dimensioned snapshot) it falls back
// to a fresh default grid and writes that back, continuing with degraded
// durability on write failure.
func loadInitialGrid(ctx context.Context, st store.Store, cfg config.Config, logger *zerolog.Logger) *core.Grid {
	cells, err := st.LoadSnapshot(ctx)
	if err == nil {
		if len(cells) == cfg.GridSize {
			if grid, gerr := core.GridFromCells(cells); gerr == nil {
				logger.Info().Int("size", cfg.GridSize).Msg("canvas loaded from store")
				return grid
			} else {
				logger.Warn().Err(gerr).Msg("persisted canvas is malformed, using default")
			}
		} else {
			logger.Warn().
				Int("stored", len(cells)).
				Int("configured", cfg.GridSize).
				Msg("persisted canvas has wrong dimensions, using default")
		}
	} else if errors.Is(err, store.ErrNotFound) {
		logger.Info().Msg("no persisted canvas, initializing default")
	} else {
		logger.Error().Err(err).Msg("canvas load failed, using default")
	}

	grid := core.NewGrid(cfg.GridSize, cfg.DefaultColor)
	if err := st.SaveSnapshot(ctx, grid.Snapshot()); err != nil {
		logger.Error().Err(err).Msg("failed to persist default canvas")
	}
	return grid
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup(stopHub)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup(stopHub)
			return err
		}

		a.cleanup(stopHub)
		return <-serverErr
	}
}

// cleanup stops the hub, waits for its final snapshot flush, then closes the store.
func (a *App) cleanup(stopHub context.CancelFunc) {
	stopHub()
	select {
	case <-a.hub.Done():
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Msg("hub did not stop in time")
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
