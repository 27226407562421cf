package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lucasjlepore/runwalk-analyzer/ingest"
	"github.com/lucasjlepore/runwalk-analyzer/internal/config"
	"github.com/lucasjlepore/runwalk-analyzer/internal/logging"
	"github.com/lucasjlepore/runwalk-analyzer/store"
)

type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	service *ingest.Service
	cron    *cron.Cron
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("runwalk_sync", pflag.ContinueOnError)
	initDB := fs.Bool("init-db", false, "Create the tables before syncing")
	truncate := fs.Bool("truncate", false, "Delete all stored activities before syncing")
	force := fs.Bool("force", false, "Run a full update even when the store looks up to date")

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "runwalk_sync: %v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runwalk_sync: init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", zap.Error(err))
		return 1
	}
	defer app.store.Close()

	if err := app.maintain(ctx, *initDB, *truncate); err != nil {
		logger.Error("Database maintenance failed", zap.Error(err))
		return 1
	}

	if err := app.sync(ctx, *force); err != nil {
		return 1
	}
	if cfg.Schedule == "" {
		return 0
	}

	if err := app.start(ctx, *force); err != nil {
		logger.Error("Failed to schedule sync", zap.Error(err))
		return 1
	}
	<-ctx.Done()
	app.stop()
	return 0
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	st, err := store.Open(ctx, cfg.DBDriver, cfg.DSN(), logger.Named("store"))
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		service: ingest.NewService(st, logger.Named("ingest"), cfg.Workers),
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))),
		)),
	}, nil
}

func (app *App) maintain(ctx context.Context, initDB, truncate bool) error {
	if initDB {
		if err := app.store.CreateTables(ctx); err != nil {
			return err
		}
	}
	if truncate {
		if err := app.store.TruncateTables(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) sync(ctx context.Context, force bool) error {
	var (
		report ingest.Report
		err    error
	)
	if force {
		report, err = app.service.Update(ctx, app.cfg.ActivitiesDir)
	} else {
		report, err = app.service.Actualize(ctx, app.cfg.ActivitiesDir)
	}
	if err != nil {
		app.logger.Error("Sync failed", zap.String("run_id", report.RunID), zap.Error(err))
		return err
	}
	for _, f := range report.Failed {
		app.logger.Info("Skipped activity",
			zap.String("run_id", report.RunID),
			zap.String("file", f.File),
			zap.String("kind", f.Kind),
			zap.String("stage", f.Stage),
			zap.String("error", f.Error),
		)
	}
	return nil
}

func (app *App) start(ctx context.Context, force bool) error {
	_, err := app.cron.AddFunc(app.cfg.Schedule, func() {
		app.logger.Info("Starting scheduled sync", zap.String("schedule", app.cfg.Schedule))
		_ = app.sync(ctx, force)
	})
	if err != nil {
		return err
	}
	app.cron.Start()
	app.logger.Info("Scheduler started", zap.String("schedule", app.cfg.Schedule), zap.String("activities_dir", app.cfg.ActivitiesDir))
	return nil
}

func (app *App) stop() {
	app.logger.Info("Shutting down scheduler")
	stopped := app.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		app.logger.Warn("Timed out waiting for running sync")
	}
}
