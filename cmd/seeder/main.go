// Seeder populates the configured storage backend with the default coin
// set. Useful for the redis and postgres backends, which persist across
// restarts; the server also seeds on startup so running this is optional.
package main

import (
	"context"
	"time"

	"coinwhisperer/internal/adapters/config"
	pgadapter "coinwhisperer/internal/adapters/postgres"
	redisadapter "coinwhisperer/internal/adapters/redis"
	"coinwhisperer/internal/storage"
	"coinwhisperer/internal/storage/memory"
	"coinwhisperer/internal/storage/postgres"
	"coinwhisperer/internal/storage/redisstore"
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

	log := logger.Get().With("component", "seeder")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}
	defer store.Close()

	if err := storage.SeedDefaults(ctx, store, log); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	coins, err := store.ListCoins(ctx)
	if err != nil {
		log.Fatalf("Failed to list coins: %v", err)
	}
	log.Infof("Seeding complete, %d coins in %s storage", len(coins), cfg.Storage.Backend)
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		client, err := redisadapter.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return redisstore.New(client, cfg.Redis.KeyPrefix), nil

	case config.BackendPostgres:
		client, err := pgadapter.NewClient(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := postgres.New(client.DB())
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	// Seeding a fresh in-memory store is a no-op beyond validating the
	// seed data itself.
	return memory.New(), nil
}
