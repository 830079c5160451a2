package main

import (
	"time"

	"github.com/fekuna/mystery-kit-service/config"
	"github.com/fekuna/mystery-kit-service/internal/feed"
	"github.com/fekuna/mystery-kit-service/pkg/cache"
	"github.com/fekuna/mystery-kit-service/pkg/database/postgres"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	catRepoPkg "github.com/fekuna/mystery-kit-service/internal/catalog/repository"
	"github.com/fekuna/mystery-kit-service/internal/kit"
	kitRepoPkg "github.com/fekuna/mystery-kit-service/internal/kit/repository"
	kitUCPkg "github.com/fekuna/mystery-kit-service/internal/kit/usecase"
	"github.com/fekuna/mystery-kit-service/internal/planning"
	planUCPkg "github.com/fekuna/mystery-kit-service/internal/planning/usecase"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
	trRepoPkg "github.com/fekuna/mystery-kit-service/internal/transfer/repository"
	trUCPkg "github.com/fekuna/mystery-kit-service/internal/transfer/usecase"
)

// app holds the connections a command needs. Redis is optional here: without
// it resizes run unlocked and completion resets are not broadcast.
type app struct {
	cfg    *config.Config
	logger logger.ZapLogger
	db     *sqlx.DB
	redis  *cache.RedisClient
}

func newApp(verbose bool) (*app, error) {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.NewZapLogger(&logger.ZapLoggerConfig{
		Encoding:          "console",
		Level:             level,
		DisableCaller:     true,
		DisableStacktrace: true,
	})

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log, db: db}
	if rc, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		log.Warn("Redis unavailable, continuing without locks or change feed", zap.Error(err))
	} else {
		a.redis = rc
	}
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
	a.logger.Sync()
}

func (a *app) kitUseCase() kit.UseCase {
	var locker kitUCPkg.Locker
	if a.redis != nil {
		locker = a.redis
	}
	return kitUCPkg.NewKitUseCase(kitRepoPkg.NewPGRepository(a.db), catRepoPkg.NewPGRepository(a.db), locker, a.cfg.Planner.KitLockTTL, a.logger)
}

func (a *app) planningUseCase() planning.UseCase {
	catalog := catRepoPkg.NewPGRepository(a.db)
	return planUCPkg.NewPlanningUseCase(catalog, catalog, catalog, a.kitUseCase(), a.cfg.Planner.UpstreamTimeout, nil, a.logger)
}

func (a *app) completionUseCase() transfer.CompletionUseCase {
	var publisher feed.Publisher
	if a.redis != nil && a.cfg.Feed.Driver == config.FeedDriverRedis {
		publisher = feed.NewRedis(a.redis.Client, a.cfg.Feed.Channel, a.logger)
	}
	return trUCPkg.NewCompletionUseCase(trRepoPkg.NewPGCompletionRepository(a.db), a.kitUseCase(), publisher, nil, a.logger)
}
