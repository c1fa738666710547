package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"

	"github.com/digkill/bizimage/internal/apperr"
	"github.com/digkill/bizimage/internal/config"
	"github.com/digkill/bizimage/internal/database"
	"github.com/digkill/bizimage/internal/gemini"
	"github.com/digkill/bizimage/internal/httpapi"
	"github.com/digkill/bizimage/internal/repository"
	"github.com/digkill/bizimage/internal/service"
	"github.com/digkill/bizimage/internal/storage"
	"github.com/digkill/bizimage/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel, cfg.LogFile)

	sentryEnabled := cfg.SentryDSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnv,
			TracesSampleRate: 0.2,
		}); err != nil {
			logr.Error("sentry init failed", "err", err)
			sentryEnabled = false
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, closeStore, err := openBlobStore(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	defer closeStore()

	gateway, err := gemini.NewClient(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("gemini client: %v", err)
	}

	opts := []service.Option{
		service.WithErrorHandler(apperr.NewHandler(logr, sentryEnabled)),
	}
	if cfg.OffloadEnabled() {
		uploader, err := storage.NewUploader(storage.ConfigFrom(cfg))
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		opts = append(opts, service.WithUploader(uploader))
	}

	snapshots := repository.NewSnapshotRepository(blobs, logr)
	dashboard, err := service.NewDashboard(ctx, logr, snapshots, gateway, opts...)
	if err != nil {
		log.Fatalf("dashboard: %v", err)
	}

	server := httpapi.NewServer(httpapi.Options{
		Addr:           cfg.ListenAddr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		WriteTimeout:   cfg.RequestTimeout + 30*time.Second,
		SentryEnabled:  sentryEnabled,
	}, logr, dashboard)

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("http server stopped", "err", err)
	}
}

func openBlobStore(ctx context.Context, cfg config.Config, logr *slog.Logger) (repository.BlobStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMySQL:
		db, err := database.Connect(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logr.Info("using mysql blob store")
		return repository.NewMySQLBlobRepository(db), func() { db.Close() }, nil

	case config.StoreDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		logr.Info("using redis blob store", "addr", cfg.RedisAddr)
		return repository.NewRedisBlobRepository(client, cfg.RedisKeyPrefix), func() { client.Close() }, nil

	default:
		store, err := repository.NewFileBlobRepository(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		logr.Info("using file blob store", "dir", cfg.StoreDir)
		return store, func() {}, nil
	}
}
