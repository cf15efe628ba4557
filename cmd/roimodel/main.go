package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/calculator"
	"github.com/gartstein/roimodeling/internal/roimodel/config"
	"github.com/gartstein/roimodeling/internal/roimodel/controller"
	gorm "github.com/gartstein/roimodeling/internal/roimodel/db"
	"github.com/gartstein/roimodeling/internal/roimodel/events"
	"github.com/gartstein/roimodeling/internal/roimodel/handlers"
	"github.com/gartstein/roimodeling/internal/roimodel/lookup"
)

const startupRetries = 5

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML configuration file")
	flag.Parse()

	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	var repo *gorm.Repository
	err = retry(logger, "database", func() error {
		var err error
		repo, err = gorm.NewRepository(initDatabase(cfg))
		return err
	})
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer closeRepository(repo, logger)

	var producer *events.Producer
	err = retry(logger, "kafka producer", func() error {
		var err error
		producer, err = events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		return err
	})
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	calc, err := calculator.NewClient(calculator.Config{
		URL:     cfg.CalculatorURL,
		Timeout: cfg.CalculatorTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize calculator client", zap.Error(err))
	}

	lookupSvc, closeCache := initLookup(cfg, logger)
	defer closeCache()

	sessions := controller.NewSessions(controller.Dependencies{
		Calculator: calc,
		Producer:   producer,
		Repository: repo,
		Logger:     logger,
	})

	handler := handlers.NewHandler(sessions, lookupSvc, logger)
	server := handlers.NewServer(cfg.HTTPPort, handlers.NewRouter(handler, cfg.JWTSecret), logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(server, sessions, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join("internal", "roimodel", "config", "config.yaml")
}

// initDatabase initializes the database connection.
func initDatabase(cfg *config.Config) *gorm.Config {
	return &gorm.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// initLookup builds the cached lookup service. Redis backs the cache when
// configured, otherwise an in-process LRU does.
func initLookup(cfg *config.Config, logger *zap.Logger) (lookup.Service, func()) {
	client, err := lookup.NewClient(lookup.Config{
		URL:     cfg.LookupURL,
		Timeout: cfg.LookupTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to initialize lookup client", zap.Error(err))
	}

	if cfg.RedisAddr == "" {
		cache := lookup.NewLRUCache(cfg.LookupCacheSize, cfg.LookupCacheTTL)
		return lookup.NewCachedService(client, cache, logger), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cache, err := lookup.NewRedisCache(ctx, cfg.RedisAddr, cfg.LookupCacheTTL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	return lookup.NewCachedService(client, cache, logger), func() {
		if err := cache.Close(); err != nil {
			logger.Error("failed to close redis cache", zap.Error(err))
		}
	}
}

// retry runs fn with exponential backoff while a dependency comes up.
func retry(logger *zap.Logger, name string, fn func() error) error {
	return backoff.RetryNotify(fn,
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), startupRetries),
		func(err error, wait time.Duration) {
			logger.Warn("dependency not ready",
				zap.String("dependency", name),
				zap.Duration("retry_in", wait),
				zap.Error(err),
			)
		})
}

func closeRepository(repo *gorm.Repository, logger *zap.Logger) {
	if err := repo.Close(); err != nil {
		logger.Error("failed to close database", zap.Error(err))
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then
// stops the server and drains the sessions.
func waitForShutdown(server *handlers.Server, sessions *controller.Sessions, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	sessions.CloseAll()
	logger.Info("Server stopped properly")
}
