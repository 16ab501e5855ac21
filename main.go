package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/config"
	"github.com/cercalo-ai/cercalo-engine/pkg/database"
	"github.com/cercalo-ai/cercalo-engine/pkg/handlers"
	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/logging"
	"github.com/cercalo-ai/cercalo-engine/pkg/query"
	"github.com/cercalo-ai/cercalo-engine/pkg/repositories"
	"github.com/cercalo-ai/cercalo-engine/pkg/retry"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
	"github.com/cercalo-ai/cercalo-engine/pkg/seo"
	"github.com/cercalo-ai/cercalo-engine/pkg/store/postgres"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.PoolConfig{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, rate limit window is process-local")
	}

	catalog := schema.Default()
	if cfg.Engine.CatalogPath != "" {
		catalog, err = schema.Load(cfg.Engine.CatalogPath)
		if err != nil {
			logger.Fatal("Failed to load field catalog", zap.Error(err))
		}
	}

	llmClient, err := llm.NewClient(&llm.Config{
		Provider: cfg.AI.Provider,
		Endpoint: cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}

	limiter := llm.NewRateLimiter(cfg.Engine.RateLimitPerMinute, time.Minute, redisClient)
	breaker := llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())
	retryCfg := retry.DefaultConfig()

	entityStore := postgres.NewStore(db.Pool, catalog, logger)
	sink := repositories.NewExecutionRepository(db, logger)

	orchestrator := query.NewOrchestrator(
		catalog,
		query.NewMatcher(query.DefaultPatterns()),
		query.NewExecutor(entityStore, logger),
		query.NewTranslator(llmClient, logger),
		query.NewResolver(logger),
		entityStore,
		limiter,
		breaker,
		retryCfg,
		sink,
		logger,
		query.Options{
			MaxResults:       cfg.Engine.MaxResults,
			TranslateTimeout: time.Duration(cfg.Engine.TranslateTimeoutSeconds) * time.Second,
		},
	)

	seoService := seo.NewService(llmClient, limiter, breaker, retryCfg, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(orchestrator, catalog, logger).RegisterRoutes(mux)
	handlers.NewSEOHandler(seoService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting cercalo-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
