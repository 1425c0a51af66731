// Command server runs the HTTP gateway in front of the liver disease
// prediction service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/liver-predict/internal/api"
	"github.com/liver-predict/internal/cache"
	"github.com/liver-predict/internal/config"
	"github.com/liver-predict/internal/database"
	"github.com/liver-predict/internal/domain"
	"github.com/liver-predict/internal/history"
	"github.com/liver-predict/internal/logging"
	"github.com/liver-predict/internal/service"
	"github.com/liver-predict/pkg/predictor"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := configManager.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}

	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Gateway failed")
	}
	logger.Info("Gateway stopped")
}

func run(ctx context.Context, cancel context.CancelFunc, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()

	resultCache, closeCache, err := openCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	store, closeStore, err := openHistory(ctx, cfg.History, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	client := predictor.NewClient(predictor.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Logger:  logger,
	})
	resilient := predictor.NewResilientClient(client, predictor.BreakerConfig{
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}, resultCache, logger)

	opts := []service.Option{service.WithSource("gateway")}
	if store != nil {
		opts = append(opts, service.WithHistory(store))
	}
	svc := service.NewPredictionService(logger, resilient, opts...)

	serverOpts := []api.Option{api.WithBreakerState(resilient)}
	if mem, ok := resultCache.(*cache.MemoryCache); ok {
		serverOpts = append(serverOpts, api.WithCacheStats(mem.Stats))
	}
	server := api.NewServer(configManager, svc, logger, serverOpts...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host":     cfg.Server.Host,
		"port":     cfg.Server.Port,
		"upstream": client.BaseURL(),
		"cache":    cfg.Cache.Backend,
		"history":  cfg.History.Driver,
	}).Info("Starting liver prediction gateway")

	return server.Start(ctx)
}

// openCache builds the configured result cache. A nil cache disables caching.
func openCache(ctx context.Context, cfg domain.CacheConfig, logger *logrus.Logger) (predictor.ResultCache, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "memory":
		mem, err := cache.NewMemoryCache(cfg.MaxItems, cfg.TTL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create memory cache: %w", err)
		}
		return mem, noop, nil
	case "redis":
		rc, err := predictor.NewRedisCache(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, noop, err
		}
		return rc, func() {
			if err := rc.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close Redis cache")
			}
		}, nil
	default:
		return nil, noop, nil
	}
}

// openHistory opens the configured history store. A nil store disables history.
func openHistory(ctx context.Context, cfg domain.HistoryConfig, logger *logrus.Logger) (history.Store, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { store.Close() }, nil

	case "postgres":
		db, err := database.NewConnection(ctx, database.DefaultConfig(cfg.PostgresURL), logger)
		if err != nil {
			return nil, noop, err
		}
		if err := database.Migrate(ctx, db, logger); err != nil {
			db.Close()
			return nil, noop, err
		}
		store, err := history.NewPostgresStore(db.SQL())
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, func() {
			store.Close()
			db.Close()
		}, nil

	default:
		return nil, noop, nil
	}
}
