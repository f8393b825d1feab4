package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cuongbtq/scrape-queue/internal/config"
	"github.com/cuongbtq/scrape-queue/internal/executor"
	"github.com/cuongbtq/scrape-queue/internal/jobqueue"
	"github.com/cuongbtq/scrape-queue/internal/scraper"
	"github.com/cuongbtq/scrape-queue/internal/worker"
	"github.com/cuongbtq/scrape-queue/shared/logger"
	"github.com/cuongbtq/scrape-queue/shared/redisclient"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Worker identity is loaded once and threaded through every component
	// that needs it; the persisted file keeps the processing ledger stable
	// across restarts.
	workerID, err := worker.LoadOrCreateIdentity(cfg.Worker.IdentityFile)
	if err != nil {
		return fmt.Errorf("failed to load worker identity: %w", err)
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("worker_id", workerID),
	)

	// Initialize Redis client
	redisClient, err := initRedis(&cfg.Redis, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Ship logs to the Redis stream so operators can tail workers remotely
	if cfg.Logging.Stream.Enabled {
		streamKey := cfg.Logging.Stream.Key
		if streamKey == "" {
			streamKey = jobqueue.LogStreamKey
		}
		appLogger = appLogger.Fanout(logger.NewStreamHandler(redisClient.GetRDB(), logger.StreamHandlerConfig{
			StreamKey: streamKey,
			WorkerID:  workerID,
			MaxLen:    cfg.Logging.Stream.MaxLen,
		}))
		appLogger.Info("Redis log stream shipping enabled",
			slog.String("stream", streamKey),
		)
	}

	// Build the Redis-backed queue protocol components
	rdb := redisClient.GetRDB()
	store := jobqueue.NewStore(rdb, appLogger.Logger)
	queues := authorizedQueues(cfg.Worker.Queues)
	queue := jobqueue.NewQueue(rdb, queues, appLogger.Logger)
	deadLetter := jobqueue.NewDeadLetter(rdb, appLogger.Logger)
	admission := jobqueue.NewAdmission(rdb, appLogger.Logger)

	// Wire the closed dispatch table and validate it before claiming
	registry, err := buildRegistry(&cfg.Scraper, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to build executor registry: %w", err)
	}

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:           appLogger.Logger,
		Store:            store,
		Queue:            queue,
		DeadLetter:       deadLetter,
		Admission:        admission,
		Executor:         registry,
		WorkerID:         workerID,
		ClaimTimeout:     cfg.Worker.ClaimTimeout,
		ForbiddenBackoff: cfg.Worker.ForbiddenBackoff,
		ErrorBackoff:     cfg.Worker.ErrorBackoff,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	// Wait for interrupt signal. Shutdown makes no attempt to finish an
	// in-flight job: recovery on next start re-queues the abandoned claim.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Warn("Received signal, shutting down",
			slog.String("signal", sig.String()),
			slog.String("worker_id", workerID),
		)
	case err := <-errChan:
		if err != nil {
			appLogger.Error("Worker error",
				slog.Any("error", err),
			)
			return err
		}
		return nil
	}

	cancel()

	select {
	case <-errChan:
	case <-time.After(10 * time.Second):
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Worker service shutdown complete",
		slog.String("worker_id", workerID),
	)
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initRedis initializes the Redis client
func initRedis(cfg *config.RedisConfig, logger *slog.Logger) (*redisclient.Client, error) {
	redisConfig := &redisclient.Config{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	}

	return redisclient.NewClient(redisConfig, logger)
}

// authorizedQueues maps the configured queue pairs to Redis keys. The
// default queue is always first so blocking claims favor it.
func authorizedQueues(pairs []config.QueuePair) []string {
	queues := []string{jobqueue.DefaultQueueKey}
	for _, p := range pairs {
		if p.Scraper == "" && p.Operation == "" {
			continue
		}
		queues = append(queues, jobqueue.QueueKey(p.Scraper, p.Operation))
	}
	return queues
}

// buildRegistry wires every site operation and validates the table is
// exhaustive before the first claim.
func buildRegistry(cfg *config.ScraperConfig, logger *slog.Logger) (*executor.Registry, error) {
	registry := executor.NewRegistry()

	gisClient := scraper.NewClient(cfg.GISEndpoint, cfg.RequestTimeout, logger)
	if err := executor.RegisterGIS(registry, gisClient); err != nil {
		return nil, err
	}

	yandexClient := scraper.NewClient(cfg.YandexEndpoint, cfg.RequestTimeout, logger)
	if err := executor.RegisterYandex(registry, yandexClient); err != nil {
		return nil, err
	}

	if err := registry.Validate(executor.DefaultPairs()); err != nil {
		return nil, err
	}

	return registry, nil
}
