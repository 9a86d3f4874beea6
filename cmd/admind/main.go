// Command admind runs the admin backend API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/novachain/admin-backend/internal/app"
	"github.com/novachain/admin-backend/internal/config"
	"github.com/novachain/admin-backend/internal/platform/migrations"
	"github.com/novachain/admin-backend/internal/storage/postgres"
	"github.com/novachain/admin-backend/internal/upstream"
	"github.com/novachain/admin-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("admind").WithError(err).Error("load configuration")
		os.Exit(1)
	}

	log := logger.New("admind", cfg.Log.Level)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stores app.Stores
	if cfg.Database.DSN != "" {
		db, err := postgres.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			log.WithError(err).Error("connect database")
			os.Exit(1)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

		if err := migrations.Apply(ctx, db.DB); err != nil {
			log.WithError(err).Error("apply migrations")
			os.Exit(1)
		}

		pg := postgres.NewStore(db)
		stores = app.Stores{
			Admins:   pg,
			Users:    pg,
			Ledger:   pg,
			Requests: pg,
			Trades:   pg,
			Settings: pg,
			Wallets:  pg,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("ADMIN_DATABASE_DSN not set; using in-memory storage")
	}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := cache.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable; deposit-address cache disabled")
			cache = nil
		}
	}

	backend := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, log,
		upstream.WithAPIKey(cfg.Upstream.APIKey))

	application, err := app.New(cfg, stores, backend, cache, log)
	if err != nil {
		log.WithError(err).Error("initialise application")
		os.Exit(1)
	}

	errCh, err := application.Start(ctx)
	if err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
