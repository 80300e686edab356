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
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/squeak-be/internal/auth"
	"github.com/hongminglow/squeak-be/internal/cache"
	"github.com/hongminglow/squeak-be/internal/config"
	"github.com/hongminglow/squeak-be/internal/logging"
	"github.com/hongminglow/squeak-be/internal/server"
	"github.com/hongminglow/squeak-be/internal/service"
	"github.com/hongminglow/squeak-be/internal/storage"
	"github.com/hongminglow/squeak-be/internal/storage/memory"
	"github.com/hongminglow/squeak-be/internal/storage/mongo"
	"github.com/hongminglow/squeak-be/internal/storage/postgres"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StorageDriver).Fatal("init storage")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.WithError(err).Warn("close storage")
		}
	}()

	userCache := openCache(ctx, cfg, log)
	accounts := service.NewAccountService(
		store, store,
		auth.NewPasswordHasher(cfg.BcryptCost),
		auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		userCache,
		log,
	)
	posts := service.NewPostService(store, log)

	srv := server.New(cfg, accounts, posts, log)

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.HTTPAddress(), "storage": cfg.StorageDriver}).Info("squeak backend listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("graceful shutdown error")
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return mongo.NewStore(ctx, cfg.MongoURL, cfg.MongoDatabase)
	}
}

// openCache returns the Redis-backed user cache, or nil when Redis is not
// configured or unreachable. The service runs uncached in that case.
func openCache(ctx context.Context, cfg config.Config, log logrus.FieldLogger) cache.UserCache {
	if cfg.RedisURL == "" {
		return nil
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable; continuing without user cache")
		return nil
	}
	return cache.NewRedisUserCache(client, cfg.UserCacheTTL, log)
}
