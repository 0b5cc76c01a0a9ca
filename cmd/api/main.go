// @title                      Task System API
// @version                    1.0
// @description                Multi-tenant task tracking with JWT authentication.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	_ "github.com/taskdesk/task-system/docs"
	"github.com/taskdesk/task-system/internal/api"
	"github.com/taskdesk/task-system/internal/api/handler"
	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/core/service"
	"github.com/taskdesk/task-system/internal/infrastructure/db/mongo"
	"github.com/taskdesk/task-system/internal/infrastructure/db/redis"
	"github.com/taskdesk/task-system/internal/infrastructure/queue"
	"github.com/taskdesk/task-system/internal/infrastructure/security"
	"github.com/taskdesk/task-system/internal/pkg/config"
	"github.com/taskdesk/task-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "task-system",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "task-system",
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	users := mongo.NewUserRepository(db)
	tasks := mongo.NewTaskRepository(db)
	if err := mongo.EnsureIndexes(ctx, users, tasks); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}

	var (
		rdb      *goredis.Client
		throttle ports.LoginThrottle
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		throttle = redis.NewLoginThrottle(rdb, cfg.Auth.MaxFailedLogins, cfg.Auth.LockoutWindow)
	} else {
		log.Warn().Msg("REDIS_ADDR is empty, login throttling disabled")
	}

	codec, err := security.NewJWTCodec(cfg.Auth.SecretKey, cfg.Auth.Algorithm)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token configuration")
	}

	authService, err := service.NewAuthService(
		users,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		codec,
		throttle,
		cfg.Auth.TokenTTL(),
		logger.Component("auth"),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build auth service")
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, mongo.NewEventRepository(db), logger.Component("audit"))
	dispatcher.Start()

	taskService := service.NewTaskService(tasks, users, dispatcher, logger.Component("tasks"))

	e := api.NewRouter(api.Dependencies{
		Auth:      authService,
		Tasks:     taskService,
		Readiness: handler.NewHealthDependenciesHandler(db, rdb),
		Logger:    logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("audit dispatcher did not drain")
	}

	log.Info().Msg("server stopped")
}
