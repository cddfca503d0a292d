package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DEMONNN69/knowyourcompany/internal/audit"
	"github.com/DEMONNN69/knowyourcompany/internal/company/cache"
	"github.com/DEMONNN69/knowyourcompany/internal/company/connectors"
	companyhandler "github.com/DEMONNN69/knowyourcompany/internal/company/handler"
	companymetrics "github.com/DEMONNN69/knowyourcompany/internal/company/metrics"
	"github.com/DEMONNN69/knowyourcompany/internal/company/service"
	"github.com/DEMONNN69/knowyourcompany/internal/company/store"
	"github.com/DEMONNN69/knowyourcompany/internal/jwtauth"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/config"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/httpserver"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/logger"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/metrics"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/postgres"
	"github.com/DEMONNN69/knowyourcompany/internal/platform/redis"
	httptransport "github.com/DEMONNN69/knowyourcompany/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	platformMetrics := metrics.New()
	pipelineMetrics := companymetrics.New()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	insightCache := buildCache(cfg, redisClient, log)
	insightStore, err := buildStore(db, log)
	if err != nil {
		log.Error("store initialization failed", "error", err)
		os.Exit(1)
	}

	publisher, err := buildPublisher(cfg.Kafka, log)
	if err != nil {
		log.Error("audit publisher initialization failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	httpClient := connectors.NewClient(cfg.Connectors)
	registry, err := connectors.NewRegistry(httpClient, cfg.Connectors, log)
	if err != nil {
		log.Error("connector registry initialization failed", "error", err)
		os.Exit(1)
	}

	svc := service.New(
		insightCache,
		insightStore,
		registry,
		publisher,
		pipelineMetrics,
		log,
		cfg.Aggregator,
	)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "knowyourcompany")
	handler := companyhandler.New(svc, log, platformMetrics, jwtService)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Company: handler,
		Redis:   redisClient,
		DB:      db,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting knowyourcompany", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildCache selects Redis when configured, otherwise the in-process cache.
// A zero or negative CACHE_TTL disables caching entirely.
func buildCache(cfg config.Config, redisClient *redis.Client, log *slog.Logger) cache.Cache {
	if cfg.Aggregator.CacheTTL <= 0 {
		log.Warn("caching disabled, every lookup hits the store")
		return cache.NewNoop()
	}
	if redisClient != nil {
		log.Info("using redis insight cache")
		return cache.NewRedis(redisClient.Client)
	}
	log.Info("redis not configured, using in-process insight cache")
	return cache.NewMemory(cfg.Aggregator.CacheTTL)
}

// buildStore selects Postgres when configured, otherwise the in-memory store.
// The schema is applied at startup so deployments need no separate migration
// step for the single companies table.
func buildStore(db *sql.DB, log *slog.Logger) (store.Store, error) {
	if db == nil {
		log.Warn("postgres not configured, insights will not survive restarts")
		return store.NewMemory(), nil
	}

	pg := store.NewPostgres(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	log.Info("using postgres insight store")
	return pg, nil
}

// buildPublisher selects Kafka when brokers are configured, otherwise the
// in-memory publisher so audit events are still observable in dev.
func buildPublisher(cfg config.KafkaConfig, log *slog.Logger) (audit.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("kafka not configured, audit events stay in process")
		return audit.NewMemory(), nil
	}
	return audit.NewKafka(cfg.Brokers, cfg.Topic, log)
}
