package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	notificationservice "greenloop/contexts/engagement/notification-service"
	notificationpostgres "greenloop/contexts/engagement/notification-service/adapters/postgres"
	rewardledger "greenloop/contexts/engagement/reward-ledger"
	rewardpostgres "greenloop/contexts/engagement/reward-ledger/adapters/postgres"
	rewardworkers "greenloop/contexts/engagement/reward-ledger/application/workers"
	scoringengine "greenloop/contexts/engagement/scoring-engine"
	scoringpostgres "greenloop/contexts/engagement/scoring-engine/adapters/postgres"
	scoringworkers "greenloop/contexts/engagement/scoring-engine/application/workers"
	"greenloop/internal/platform/config"
	"greenloop/internal/platform/db"
	"greenloop/internal/platform/httpserver"
	"greenloop/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	kafka         *messaging.Kafka
	scoringRelay  scoringworkers.OutboxRelay
	rewardRelay   rewardworkers.OutboxRelay
	notifications notificationservice.Module
	topic         string
	consumerGroup string
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	scoringRepo := scoringpostgres.NewRepository(pg.DB, logger)
	scoringModule := scoringengine.NewModule(scoringengine.Dependencies{
		Repository:  scoringRepo,
		Clock:       scoringpostgres.SystemClock{},
		IDGenerator: scoringpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	rewardRepo := rewardpostgres.NewRepository(pg.DB, logger)
	rewardModule := rewardledger.NewModule(rewardledger.Dependencies{
		Repository:  rewardRepo,
		Clock:       rewardpostgres.SystemClock{},
		IDGenerator: rewardpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	notificationRepo := notificationpostgres.NewRepository(pg.DB, logger)
	notificationModule := notificationservice.NewModule(notificationservice.Dependencies{
		Repository: notificationRepo,
		Clock:      notificationpostgres.SystemClock{},
		Logger:     logger,
	})

	server := httpserver.New(scoringModule, rewardModule, notificationModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	scoringRepo := scoringpostgres.NewRepository(pg.DB, logger)
	rewardRepo := rewardpostgres.NewRepository(pg.DB, logger)
	notificationRepo := notificationpostgres.NewRepository(pg.DB, logger)

	notificationModule := notificationservice.NewModule(notificationservice.Dependencies{
		Repository: notificationRepo,
		Clock:      notificationpostgres.SystemClock{},
		Logger:     logger,
	})
	notificationModule.Consumer.MuteAchievements = !cfg.EnableAchievementNotifications
	notificationModule.Consumer.MuteCarbon = !cfg.EnableCarbonNotifications
	notificationModule.Consumer.MuteRewards = !cfg.EnableRewardNotifications

	return &WorkerApp{
		postgres: pg,
		kafka:    kafka,
		scoringRelay: scoringworkers.OutboxRelay{
			Outbox:    scoringRepo,
			Publisher: kafka,
			Clock:     scoringpostgres.SystemClock{},
			Topic:     cfg.EngagementTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		rewardRelay: rewardworkers.OutboxRelay{
			Outbox:    rewardRepo,
			Publisher: kafka,
			Clock:     rewardpostgres.SystemClock{},
			Topic:     cfg.EngagementTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		notifications: notificationModule,
		topic:         cfg.EngagementTopic,
		consumerGroup: cfg.ConsumerGroup,
		pollInterval:  2 * time.Second,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Subscribe blocks, so the consumer loop runs beside the relay
	// ticker and either failure stops the process.
	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- w.kafka.Subscribe(ctx, w.topic, w.consumerGroup, w.notifications.Consumer.HandleMessage)
	}()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"topic", w.topic,
		"consumer_group", w.consumerGroup,
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.scoringRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.rewardRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case err := <-consumerErr:
			return err
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.kafka != nil {
		errs = append(errs, w.kafka.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
