package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinwhisperer/internal/adapters/config"
	"coinwhisperer/internal/adapters/errors/noop"
	"coinwhisperer/internal/adapters/errors/sentry"
	"coinwhisperer/internal/adapters/kafka"
	pgadapter "coinwhisperer/internal/adapters/postgres"
	redisadapter "coinwhisperer/internal/adapters/redis"
	"coinwhisperer/internal/analysis"
	"coinwhisperer/internal/api"
	"coinwhisperer/internal/api/health"
	"coinwhisperer/internal/api/rest"
	"coinwhisperer/internal/events"
	"coinwhisperer/internal/feed"
	"coinwhisperer/internal/metrics"
	"coinwhisperer/internal/notify"
	"coinwhisperer/internal/storage"
	"coinwhisperer/internal/storage/memory"
	"coinwhisperer/internal/storage/postgres"
	"coinwhisperer/internal/storage/redisstore"
	"coinwhisperer/internal/workers"
	"coinwhisperer/internal/ws"
	"coinwhisperer/pkg/errors"
	"coinwhisperer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer flushCancel()
		errorTracker.Flush(flushCtx)
	}()

	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := health.New(log, cfg.App.Name, cfg.App.Version, cfg.Storage.Backend)
	store, err := initStore(ctx, cfg, healthHandler, log)
	if err != nil {
		log.Fatalf("Failed to initialize %s storage: %v", cfg.Storage.Backend, err)
	}
	defer store.Close()

	if err := storage.SeedDefaults(ctx, store, log); err != nil {
		log.Fatalf("Failed to seed default coins: %v", err)
	}

	hub := ws.NewHub()
	defer hub.Shutdown()

	broadcaster := initBroadcaster(cfg, hub, log)
	notifier := initNotifier(cfg, log)

	svc := analysis.NewService(store, feed.NewMockSource(), broadcaster, notifier,
		cfg.Analysis.SentimentLookback)

	apiHandler := rest.New(store, svc, rest.Config{
		AnalyzeRate:    cfg.Analysis.RateLimit,
		AnalyzeBurst:   cfg.Analysis.RateBurst,
		AnalyzeTimeout: cfg.Analysis.RunTimeout,
	})

	server := api.NewServer(api.ServerConfig{
		Port:        cfg.HTTP.Port,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	}, apiHandler, healthHandler, hub, log)

	scheduler := workers.NewScheduler()
	scheduler.Register(analysis.NewWorker(svc,
		cfg.Analysis.WorkerInterval, cfg.Analysis.RunTimeout, cfg.Analysis.WorkerEnabled))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("Received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil {
			log.Errorf("HTTP server error: %v", err)
		}
	}

	cancel()
	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initStore selects the storage backend and registers its health check.
func initStore(ctx context.Context, cfg *config.Config, healthHandler *health.Handler, log *logger.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Info("Using in-memory storage")
		return memory.New(), nil

	case config.BackendRedis:
		client, err := redisadapter.NewClient(cfg.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		healthHandler.AddCheck("redis", client)
		log.Info("Using Redis storage")
		return redisstore.New(client, cfg.Redis.KeyPrefix), nil

	case config.BackendPostgres:
		client, err := pgadapter.NewClient(cfg.Postgres)
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres")
		}
		healthHandler.AddCheck("postgres", client)

		store := postgres.New(client.DB())
		if err := store.Migrate(ctx); err != nil {
			return nil, errors.Wrap(err, "migrate")
		}
		log.Info("Using PostgreSQL storage")
		return store, nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownBackend, "%s", cfg.Storage.Backend)
}

// initBroadcaster composes the WS hub with the optional Kafka mirror.
func initBroadcaster(cfg *config.Config, hub *ws.Hub, log *logger.Logger) events.Broadcaster {
	if !cfg.Kafka.Enabled() {
		return hub
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	log.Infof("Kafka event mirror enabled on topic %s", cfg.Kafka.Topic)
	return events.Multi{hub, events.NewKafkaPublisher(producer, cfg.Kafka.Topic)}
}

// initNotifier wires the Telegram trade notifier when configured.
func initNotifier(cfg *config.Config, log *logger.Logger) notify.Notifier {
	if !cfg.Telegram.Enabled() {
		return notify.Noop{}
	}

	notifier, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Warnf("Failed to initialize Telegram notifier: %v", err)
		return notify.Noop{}
	}

	log.Info("Telegram trade notifications enabled")
	return notifier
}
