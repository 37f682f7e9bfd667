// @title        User Management API
// @version      1.0
// @description  CRUD service over user records stored in MongoDB.
// @host         localhost:8080
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/api"
	"github.com/99minutos/user-management/internal/api/handler"
	"github.com/99minutos/user-management/internal/core/service"
	"github.com/99minutos/user-management/internal/infrastructure/db/mongo"
	"github.com/99minutos/user-management/internal/infrastructure/db/redis"
	"github.com/99minutos/user-management/internal/infrastructure/queue"
	"github.com/99minutos/user-management/internal/pkg/config"
	"github.com/99minutos/user-management/internal/pkg/metrics"
	"github.com/99minutos/user-management/pkg/logger"
)

const serviceName = "user-management"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Pretty(),
		Service: serviceName,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	userRepo := mongo.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	checks := []handler.DependencyCheck{handler.MongoCheck(db)}

	var rdb *goredis.Client
	if cfg.CacheEnabled() {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache")
			rdb = nil
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Error().Err(err).Msg("redis close failed")
				}
			}()
			checks = append(checks, handler.RedisCheck(rdb))
		}
	}
	cachedRepo := redis.NewCachingUserRepository(userRepo, rdb, cfg.Redis.CacheTTL, log)

	// --- Audit trail ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, mongo.NewEventRepository(db), log)
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(reg); err != nil {
		return err
	}

	// --- HTTP ---
	userService := service.NewUserService(cachedRepo, dispatcher, log)
	e := api.NewRouter(log, reg, api.Handlers{
		Users:  handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(checks...),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
