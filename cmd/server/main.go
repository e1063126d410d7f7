// @title        Order Tracking Auth API
// @version      1.0
// @description  Account signup, login, token refresh and access control for the order-tracking backend.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/threadworks/order-tracking/internal/api"
	"github.com/threadworks/order-tracking/internal/api/handler"
	"github.com/threadworks/order-tracking/internal/core/ports"
	"github.com/threadworks/order-tracking/internal/core/service"
	mongodb "github.com/threadworks/order-tracking/internal/infrastructure/db/mongo"
	redisdb "github.com/threadworks/order-tracking/internal/infrastructure/db/redis"
	"github.com/threadworks/order-tracking/internal/infrastructure/queue"
	"github.com/threadworks/order-tracking/internal/pkg/config"
	"github.com/threadworks/order-tracking/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; real deployments inject the environment.
	if os.Getenv("ENV") != "production" {
		_ = godotenv.Load()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "order-tracking",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	accounts := mongodb.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("creating account indexes failed")
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	sessions := service.NewSessionService(accounts, tokens, log,
		service.WithBcryptCost(cfg.Auth.BcryptCost),
		service.WithSessionCache(redisdb.NewSessionCache(rdb, redisdb.DefaultSessionCacheTTL)),
	)

	auditCtx, cancelAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers,
		service.NewAuditService(mongodb.NewAuditRepository(db), log), log)
	dispatcher.Start(auditCtx)

	var checker ports.SessionChecker
	if cfg.Auth.StrictSessionCheck {
		checker = sessions
	}

	e := api.NewRouter(api.Dependencies{
		Sessions: sessions,
		Tokens:   tokens,
		Checker:  checker,
		Audit:    dispatcher,
		Cookies:  handler.NewCookiePolicy(cfg.IsProduction(), tokens.AccessTTL(), tokens.RefreshTTL()),
		Checks: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		Log: log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	cancelAudit()
	dispatcher.Wait()
}
