package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/reviewdeck/internal/config"
	"github.com/five82/reviewdeck/internal/logging"
	"github.com/five82/reviewdeck/internal/prefs"
	"github.com/five82/reviewdeck/internal/reviews"
	"github.com/five82/reviewdeck/internal/reviewsync"
	"github.com/five82/reviewdeck/internal/telemetry"
	"github.com/five82/reviewdeck/internal/ui"
)

// errQuit ends the errgroup when the UI exits normally.
var errQuit = errors.New("ui exited")

// Options configure the reviewdeck application.
type Options struct {
	ConfigPath string         // empty uses ~/.config/reviewdeck/config.toml
	PrefsPath  string         // empty uses ~/.config/reviewdeck/prefs.toml
	Flags      *pflag.FlagSet // command line overrides registered by config.RegisterFlags
}

// Run boots the reviewdeck TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, opts.Flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	client, err := reviews.NewClient(cfg.APIBaseURL, reviews.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return fmt.Errorf("init review client: %w", err)
	}
	logger.Info("starting reviewdeck",
		zap.String("api_base_url", client.BaseURL()),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	g, gctx := errgroup.WithContext(ctx)

	syncOpts := []reviewsync.Option{
		reviewsync.WithInterval(cfg.PollInterval),
		reviewsync.WithLogger(logger.Named("reviewsync")),
	}
	if cfg.MetricsAddr != "" {
		provider, registry, err := telemetry.NewPrometheusProvider()
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() { _ = provider.Shutdown(context.Background()) }()

		metrics, err := telemetry.NewSyncMetrics(provider)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		syncOpts = append(syncOpts, reviewsync.WithMetrics(metrics))

		g.Go(func() error {
			return telemetry.Serve(gctx, cfg.MetricsAddr, registry, logger.Named("metrics"))
		})
	}

	controller := reviewsync.New(client, syncOpts...)
	if err := controller.Start(gctx); err != nil {
		return fmt.Errorf("start sync: %w", err)
	}
	defer controller.Stop()

	uiCtx, stopUI := context.WithCancel(gctx)
	defer stopUI()
	g.Go(func() error {
		// Quitting the UI ends the whole run, metrics server included.
		defer stopUI()
		err := ui.Run(uiCtx, ui.Options{
			Syncer:    controller,
			Prefs:     userPrefs,
			PrefsPath: prefsPath,
			LogPath:   cfg.LogFile,
			Logger:    logger.Named("ui"),
		})
		if err != nil {
			return fmt.Errorf("run ui: %w", err)
		}
		return errQuit
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		logger.Error("reviewdeck stopped with error", zap.Error(err))
		return err
	}
	logger.Info("reviewdeck stopped")
	return nil
}
