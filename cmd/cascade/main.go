package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aescanero/cascade/internal/application/orchestrator"
	"github.com/aescanero/cascade/internal/config"
	"github.com/aescanero/cascade/internal/ports"
	eventsmem "github.com/aescanero/cascade/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/cascade/pkg/adapters/events/redis"
	"github.com/aescanero/cascade/pkg/adapters/llm"
	"github.com/aescanero/cascade/pkg/adapters/metrics/prometheus"
	storagemem "github.com/aescanero/cascade/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/cascade/pkg/adapters/storage/redis"
	"github.com/aescanero/cascade/pkg/api/grpc"
	"github.com/aescanero/cascade/pkg/api/http"
	"github.com/aescanero/cascade/pkg/api/websocket"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting Cascade orchestrator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx := context.Background()

	// Redis is optional: without it, events and results stay in-process.
	var eventBus ports.EventBus
	var resultStorage ports.ResultStorage
	var redisClient *goredis.Client

	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		eventBus = eventsredis.NewStreamsEventBus(
			redisClient,
			"cascade-consumers",
			fmt.Sprintf("cascade-%d", os.Getpid()),
			logger,
		)
		resultStorage = storageredis.NewResultStorage(redisClient, cfg.Redis.ResultTTL, logger)
	} else {
		logger.Info("no Redis address configured, using in-memory adapters")
		eventBus = eventsmem.NewEventBus()
		resultStorage = storagemem.NewResultStorage()
	}

	executor, err := llm.NewExecutor(cfg.LLM, logger)
	if err != nil {
		logger.Fatal("failed to create LLM executor", zap.Error(err))
	}

	metricsCollector := prometheus.NewCollector()
	executor = llm.WithMetrics(executor, metricsCollector)

	engine, err := orchestrator.New(executor, cfg.Orchestration, logger)
	if err != nil {
		logger.Fatal("failed to create orchestrator", zap.Error(err))
	}

	manager := orchestrator.NewManager(
		engine,
		eventBus,
		resultStorage,
		metricsCollector,
		logger,
		cfg.Timeouts.RunTimeout,
	)

	httpServer := http.NewServer(&http.Config{
		Port:    cfg.HTTPPort,
		Manager: manager,
		Logger:  logger,
	})

	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("Cascade orchestrator started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("num_workers", cfg.Orchestration.NumWorkers),
		zap.Int("max_concurrency", cfg.Orchestration.MaxConcurrency))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error("manager shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("Cascade orchestrator shut down complete")
}

// initLogger initializes the logger based on log level.
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
