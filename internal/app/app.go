// Package app ties the services, stores, and HTTP surface together and
// manages their lifecycle.
package app

import (
	"context"
	"net/http"

	"github.com/go-redis/redis/v8"

	"github.com/novachain/admin-backend/internal/config"
	"github.com/novachain/admin-backend/internal/httpapi"
	"github.com/novachain/admin-backend/internal/middleware"
	"github.com/novachain/admin-backend/internal/services/accounts"
	"github.com/novachain/admin-backend/internal/services/approvals"
	"github.com/novachain/admin-backend/internal/services/auth"
	"github.com/novachain/admin-backend/internal/services/ledger"
	"github.com/novachain/admin-backend/internal/services/reporting"
	"github.com/novachain/admin-backend/internal/services/trademode"
	"github.com/novachain/admin-backend/internal/services/wallets"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/internal/storage/memory"
	"github.com/novachain/admin-backend/internal/upstream"
	"github.com/novachain/admin-backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to a
// shared in-memory implementation.
type Stores struct {
	Admins   storage.AdminStore
	Users    storage.UserStore
	Ledger   storage.LedgerStore
	Requests storage.RequestStore
	Trades   storage.TradeStore
	Settings storage.SettingStore
	Wallets  storage.WalletStore
}

// Application ties the admin backend together and manages its lifecycle.
type Application struct {
	cfg *config.Config
	log *logger.Logger

	server    *http.Server
	reporting *reporting.Service
	limiter   *middleware.RateLimiter
	stop      chan struct{}

	Services httpapi.Services
	Handler  http.Handler
}

// New builds a fully initialised application. backend and cache may be nil.
func New(cfg *config.Config, stores Stores, backend *upstream.Client, cache *redis.Client, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.NewStore()
	if stores.Admins == nil {
		stores.Admins = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Ledger == nil {
		stores.Ledger = mem
	}
	if stores.Requests == nil {
		stores.Requests = mem
	}
	if stores.Trades == nil {
		stores.Trades = mem
	}
	if stores.Settings == nil {
		stores.Settings = mem
	}
	if stores.Wallets == nil {
		stores.Wallets = mem
	}

	svc := httpapi.Services{
		Auth:      auth.NewService(stores.Admins, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, log),
		Ledger:    ledger.NewService(stores.Ledger, log),
		Approvals: approvals.NewService(stores.Requests, log),
		Accounts:  accounts.NewService(stores.Users, stores.Trades, log),
		Wallets:   wallets.NewService(stores.Wallets, cache, cfg.Redis.CacheTTL, log),
		TradeMode: trademode.NewService(stores.Trades, stores.Settings, backend, log),
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	handler := httpapi.NewHandler(svc, backend, log).NewRouter(httpapi.RouterConfig{
		Auth:        middleware.NewAuthMiddleware([]byte(cfg.Auth.JWTSecret), log),
		CORS:        middleware.NewCORSMiddleware(cfg.AllowedOrigins()),
		RateLimiter: limiter,
		Logging:     middleware.NewLoggingMiddleware(log),
	})

	return &Application{
		cfg: cfg,
		log: log,
		server: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		reporting: reporting.NewService(stores.Requests, log),
		limiter:   limiter,
		stop:      make(chan struct{}),
		Services:  svc,
		Handler:   handler,
	}, nil
}

// Start launches the background jobs and the HTTP listener. Listener errors
// other than a clean shutdown are reported on the returned channel.
func (a *Application) Start(ctx context.Context) (<-chan error, error) {
	if err := a.reporting.Start(a.cfg.Reporting.Schedule); err != nil {
		return nil, err
	}
	a.limiter.StartCleanup(a.cfg.Server.ReadTimeout*10, a.stop)

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.cfg.Server.Addr).Info("admin backend listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh, nil
}

// Stop drains in-flight requests and halts the background jobs.
func (a *Application) Stop(ctx context.Context) error {
	close(a.stop)
	a.reporting.Stop()
	return a.server.Shutdown(ctx)
}
