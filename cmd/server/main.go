package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/mystery-kit-service/config"
	"github.com/fekuna/mystery-kit-service/internal/feed"
	"github.com/fekuna/mystery-kit-service/internal/metrics"
	"github.com/fekuna/mystery-kit-service/migrations"
	"github.com/fekuna/mystery-kit-service/pkg/broker"
	"github.com/fekuna/mystery-kit-service/pkg/cache"
	"github.com/fekuna/mystery-kit-service/pkg/database/postgres"
	"github.com/fekuna/mystery-kit-service/pkg/logger"

	"github.com/fekuna/mystery-kit-service/internal/auth"
	catRepoPkg "github.com/fekuna/mystery-kit-service/internal/catalog/repository"

	kitH "github.com/fekuna/mystery-kit-service/internal/kit/handler"
	kitRepoPkg "github.com/fekuna/mystery-kit-service/internal/kit/repository"
	kitUCPkg "github.com/fekuna/mystery-kit-service/internal/kit/usecase"

	planH "github.com/fekuna/mystery-kit-service/internal/planning/handler"
	planUCPkg "github.com/fekuna/mystery-kit-service/internal/planning/usecase"

	trH "github.com/fekuna/mystery-kit-service/internal/transfer/handler"
	trListenerPkg "github.com/fekuna/mystery-kit-service/internal/transfer/listener"
	trRepoPkg "github.com/fekuna/mystery-kit-service/internal/transfer/repository"
	trUCPkg "github.com/fekuna/mystery-kit-service/internal/transfer/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	applied, err := migrations.Up(context.Background(), db)
	if err != nil {
		appLogger.Fatal("Could not apply migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		appLogger.Info("Applied migrations", zap.Strings("names", applied))
	}

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Change Feed
	bus, closeFeed, err := newFeed(cfg, redisClient, appLogger)
	if err != nil {
		appLogger.Fatal("Could not initialize change feed", zap.Error(err))
	}
	defer closeFeed()
	appLogger.Info("Change feed ready", zap.String("driver", cfg.Feed.Driver))

	// 6. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// 7. Initialize Repositories
	catalogPG := catRepoPkg.NewPGRepository(db)
	catalogRepo := catRepoPkg.NewCachedRepository(catalogPG, redisClient, cfg.Planner.CatalogCacheTTL, appLogger)
	kitRepo := kitRepoPkg.NewPGRepository(db)
	eventRepo := trRepoPkg.NewPGEventRepository(db)
	completionRepo := trRepoPkg.NewPGCompletionRepository(db)

	// 8. Initialize UseCases
	kitUC := kitUCPkg.NewKitUseCase(kitRepo, catalogRepo, redisClient, cfg.Planner.KitLockTTL, appLogger)
	planUC := planUCPkg.NewPlanningUseCase(catalogRepo, catalogRepo, catalogPG, kitUC, cfg.Planner.UpstreamTimeout, appMetrics, appLogger)
	eventUC := trUCPkg.NewEventUseCase(eventRepo, bus, appMetrics, appLogger)
	completionUC := trUCPkg.NewCompletionUseCase(completionRepo, kitUC, bus, appMetrics, appLogger)

	// 8.5 Initialize Listeners
	completionListener := trListenerPkg.NewCompletionListener(bus, completionUC, appMetrics, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go completionListener.Start(ctx)

	// 9. Initialize Handlers
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(auth.Middleware)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	kitH.NewKitHandler(kitUC, appLogger).RegisterRoutes(router)
	planH.NewPlanningHandler(planUC, appLogger).RegisterRoutes(router)
	trH.NewTransferHandler(eventUC, completionUC, completionListener, appLogger).RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:              withColon(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 10. Start gRPC Server (health + reflection)
	lis, err := net.Listen("tcp", withColon(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting servers", zap.String("http", httpServer.Addr), zap.String("grpc", lis.Addr().String()))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

// newFeed builds the configured change feed and returns its cleanup.
func newFeed(cfg *config.Config, redisClient *cache.RedisClient, log logger.ZapLogger) (feed.PubSub, func(), error) {
	switch cfg.Feed.Driver {
	case config.FeedDriverRedis:
		return feed.NewRedis(redisClient.Client, cfg.Feed.Channel, log), func() {}, nil
	case config.FeedDriverKafka:
		// every instance must see every event, so the group id is per host
		host, _ := os.Hostname()
		producer := broker.NewProducer(&broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: fmt.Sprintf("%s-%s", cfg.Kafka.GroupID, host),
		})
		return feed.NewKafka(producer, consumer, log), func() {
			producer.Close()
			consumer.Close()
		}, nil
	case config.FeedDriverMemory:
		return feed.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown feed driver %q", cfg.Feed.Driver)
	}
}

func withColon(port string) string {
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}
