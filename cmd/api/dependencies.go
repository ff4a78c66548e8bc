package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/fixture-report/internal/domain/report/consolidator"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/engine"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/handler"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/resolver"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/service"
	"github.com/FACorreiaa/fixture-report/internal/domain/report/state"
	"github.com/FACorreiaa/fixture-report/pkg/config"
	"github.com/FACorreiaa/fixture-report/pkg/cron"
	"github.com/FACorreiaa/fixture-report/pkg/db"
	"github.com/FACorreiaa/fixture-report/pkg/mailer"
	"github.com/FACorreiaa/fixture-report/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	StateRepo   state.Repository
	FileStorage storage.Storage

	// Services
	Engine        *engine.Engine
	Mailer        *mailer.Mailer
	ReportService *service.ReportService
	Scheduler     *cron.Scheduler

	// Handlers
	ReportHandler *handler.ReportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase connects to Postgres and runs migrations. Report state is kept
// in memory when the database is disabled.
func (d *Dependencies) initDatabase() error {
	if !d.Config.Database.Enabled {
		d.Logger.Warn("database disabled, report state will not survive restarts")
		return nil
	}

	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() error {
	if d.DB != nil {
		d.StateRepo = state.NewPostgresRepository(d.DB.Pool)
	} else {
		d.StateRepo = state.NewMemoryRepository()
	}

	fileStorage, err := storage.New(&storage.Config{
		Type:      storage.StorageTypeLocal,
		LocalPath: d.Config.Storage.Path,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initServices() error {
	opts := engine.Options{
		Ratings: consolidator.Ratings{
			Kitchen:   d.Config.Ratings.Kitchen,
			Bathroom:  d.Config.Ratings.Bathroom,
			Shower:    d.Config.Ratings.Shower,
			ADAShower: d.Config.Ratings.ADAShower,
			Toilet:    d.Config.Ratings.Toilet,
		},
		MergeDuplicates: d.Config.Report.MergeDuplicates,
		Logger:          d.Logger,
	}
	if d.Config.Report.FuzzyColumns {
		opts.Strategy = resolver.NewFuzzyStrategy()
	}
	d.Engine = engine.New(opts)

	d.ReportService = service.NewReportService(d.Engine, d.StateRepo, d.FileStorage, d.Logger)

	if d.Config.Mail.APIKey != "" {
		d.Mailer = mailer.New(d.Config.Mail.APIKey, d.Config.Mail.From, d.Logger)
		d.ReportService.WithMailer(d.Mailer)
	} else {
		d.Logger.Warn("RESEND_API_KEY not set, report delivery disabled")
	}

	d.Scheduler = cron.NewScheduler(d.ReportService, d.Config.State.PurgeSchedule, d.Config.State.TTL, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() error {
	d.ReportHandler = handler.NewReportHandler(d.ReportService, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.ReportService != nil {
		d.ReportService.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
