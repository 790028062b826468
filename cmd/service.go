package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmhodges/clock"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/KasumiMercury/primind-med-remind/internal/app"
	"github.com/KasumiMercury/primind-med-remind/internal/config"
	"github.com/KasumiMercury/primind-med-remind/internal/domain"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/filestore"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/notify"
	"github.com/KasumiMercury/primind-med-remind/internal/infra/repository"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/logging"
	"github.com/KasumiMercury/primind-med-remind/internal/observability/metrics"
)

// service holds the wired engine shared by every command.
type service struct {
	sc        app.SchedulerContext
	scheduler *app.NotificationScheduler
	loop      *app.ReconciliationLoop
	useCase   app.ReminderUseCase

	// runBackend drives the backend's event source until ctx is done.
	runBackend func(ctx context.Context) error
	closers    []func() error
}

func newService(ctx context.Context, cfg *config.Config, m *metrics.SchedulerMetrics) (*service, error) {
	clk := clock.New()
	svc := &service{}

	reminders, logs, closeStore, err := openStore(cfg.Store, clk, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	svc.closers = append(svc.closers, closeStore)

	backend, err := svc.openBackend(cfg, clk)
	if err != nil {
		svc.Close()

		return nil, fmt.Errorf("failed to open %s notification backend: %w", cfg.Notify.Backend, err)
	}

	publisher, err := initPublisher(ctx, cfg)
	if err != nil {
		svc.Close()

		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}

	if publisher != nil {
		svc.closers = append(svc.closers, publisher.Close)
	}

	svc.sc = app.SchedulerContext{
		Reminders: reminders,
		Logs:      logs,
		Backend:   backend,
		Clock:     clk,
		Location:  cfg.Scheduler.Location,
	}

	svc.scheduler = app.NewNotificationScheduler(svc.sc, app.SchedulerConfig{
		SnoozeDuration: cfg.Scheduler.SnoozeDuration,
		ActionTimeout:  cfg.Scheduler.ActionTimeout,
		RetryBudget:    cfg.Scheduler.RetryBudget,
	}, publisher, m)

	svc.loop = app.NewReconciliationLoop(svc.sc, svc.scheduler, app.ReconcileConfig{
		Schedule: cfg.Scheduler.ReconcileSchedule,
	}, m)

	svc.useCase = app.NewReminderUseCase(svc.sc, svc.scheduler, svc.loop, publisher)

	return svc, nil
}

func (s *service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}

	s.closers = nil
}

func (s *service) openBackend(cfg *config.Config, clk clock.Clock) (domain.NotificationBackend, error) {
	switch cfg.Notify.Backend {
	case config.NotifyBroker:
		publisher, subscriber, err := notify.NewNATSTransport(notify.NATSTransportConfig{
			URL:              cfg.PubSub.NatsURL,
			QueueGroupPrefix: "medremind",
		})
		if err != nil {
			return nil, err
		}

		backend := notify.NewBrokerBackend(publisher, subscriber, clk, notify.BrokerConfig{
			TriggerTopic: cfg.Notify.TriggerTopic,
			EventTopic:   cfg.Notify.EventTopic,
			Horizon:      cfg.Notify.Horizon,
		})

		s.runBackend = backend.Run
		s.closers = append(s.closers, backend.Close)

		slog.Info("broker notification backend configured",
			"trigger_topic", cfg.Notify.TriggerTopic,
			"event_topic", cfg.Notify.EventTopic,
		)

		return backend, nil
	default:
		backend := notify.NewTimerBackend(clk, notify.TimerConfig{
			Horizon:      cfg.Notify.Horizon,
			PollInterval: cfg.Notify.PollInterval,
		})

		s.runBackend = func(ctx context.Context) error {
			backend.Run(ctx)

			return nil
		}

		return backend, nil
	}
}

func openStore(
	cfg config.StoreConfig,
	clk clock.Clock,
	level slog.Level,
) (domain.ReminderRepository, domain.ActionLogRepository, func() error, error) {
	if cfg.Driver == config.StoreFile {
		reminders, err := filestore.OpenReminderStore(cfg.DataDir, clk)
		if err != nil {
			return nil, nil, nil, err
		}

		logs, err := filestore.OpenActionLog(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}

		slog.Info("file store opened", "data_dir", cfg.DataDir)

		return reminders, logs, func() error { return nil }, nil
	}

	db, err := initDatabase(cfg, level)
	if err != nil {
		return nil, nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, err
	}

	if err := db.AutoMigrate(repository.Models()...); err != nil {
		return nil, nil, nil, errors.Join(fmt.Errorf("failed to migrate: %w", err), sqlDB.Close())
	}

	return repository.NewReminderRepository(db, clk), repository.NewActionLogRepository(db), sqlDB.Close, nil
}

func initDatabase(cfg config.StoreConfig, level slog.Level) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case config.StorePostgres:
		dialector = postgres.Open(cfg.PostgresDSN)
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, err
		}

		dialector = sqlite.Open(cfg.SQLitePath + "?_journal_mode=WAL&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(cfg.SlowQueryThreshold, level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.Driver == config.StoreSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	slog.Info("database opened", "driver", cfg.Driver)

	return db, nil
}
