// Package httpapi exposes the admin REST API. Routes keep the paths the
// admin panel already calls; every privileged route is gated on a capability
// rather than a role name.
package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/httputil"
	"github.com/novachain/admin-backend/internal/metrics"
	"github.com/novachain/admin-backend/internal/middleware"
	"github.com/novachain/admin-backend/internal/services/accounts"
	"github.com/novachain/admin-backend/internal/services/approvals"
	"github.com/novachain/admin-backend/internal/services/auth"
	"github.com/novachain/admin-backend/internal/services/ledger"
	"github.com/novachain/admin-backend/internal/services/trademode"
	"github.com/novachain/admin-backend/internal/services/wallets"
	"github.com/novachain/admin-backend/internal/upstream"
	"github.com/novachain/admin-backend/pkg/logger"
)

// Services bundles the application services the API fronts.
type Services struct {
	Auth      *auth.Service
	Ledger    *ledger.Service
	Approvals *approvals.Service
	Accounts  *accounts.Service
	Wallets   *wallets.Service
	TradeMode *trademode.Service
}

// Handler holds the HTTP handlers for the admin API.
type Handler struct {
	svc      Services
	backend  *upstream.Client
	validate *validator.Validate
	log      *logger.Logger
}

// RouterConfig wires the middleware stack around the routes.
type RouterConfig struct {
	Auth        *middleware.AuthMiddleware
	CORS        *middleware.CORSMiddleware
	RateLimiter *middleware.RateLimiter
	Logging     *middleware.LoggingMiddleware
}

// NewHandler creates the API handler. backend may be nil when no main
// backend is configured; the passthrough routes then answer 502.
func NewHandler(svc Services, backend *upstream.Client, log *logger.Logger) *Handler {
	return &Handler{
		svc:      svc,
		backend:  backend,
		validate: validator.New(),
		log:      log.Named("httpapi"),
	}
}

// NewRouter builds the full HTTP handler: routes plus the middleware chain.
func (h *Handler) NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// public routes: login and the customer-facing deposit-address list
	pub := r.PathPrefix("/api/admin").Subrouter()
	if cfg.RateLimiter != nil {
		pub.Use(cfg.RateLimiter.Handler)
	}
	pub.HandleFunc("/login", h.login).Methods(http.MethodPost)
	pub.HandleFunc("/deposit-addresses", h.listDepositAddresses).Methods(http.MethodGet)

	priv := r.PathPrefix("/api/admin").Subrouter()
	if cfg.Auth != nil {
		priv.Use(cfg.Auth.Handler)
	}
	if cfg.RateLimiter != nil {
		priv.Use(cfg.RateLimiter.Handler)
	}

	gate := func(c admin.Capability, fn http.HandlerFunc) http.Handler {
		return middleware.RequireCapability(c)(fn)
	}

	priv.HandleFunc("/change-password", h.changePassword).Methods(http.MethodPost)

	priv.Handle("/users", gate(admin.CapManageUsers, h.listUsers)).Methods(http.MethodGet)
	priv.Handle("/user/{id:[0-9]+}", gate(admin.CapManageUsers, h.deleteUser)).Methods(http.MethodDelete)
	priv.Handle("/user/{id:[0-9]+}/kyc", gate(admin.CapManageUsers, h.getKYC)).Methods(http.MethodGet)
	priv.Handle("/user-kyc-status", gate(admin.CapManageUsers, h.setKYCStatus)).Methods(http.MethodPost)
	priv.Handle("/user-status", gate(admin.CapManageUsers, h.setUserStatus)).Methods(http.MethodPost)

	priv.Handle("/deposits", gate(admin.CapApproveRequests, h.listDeposits)).Methods(http.MethodGet)
	priv.Handle("/deposits/{id:[0-9]+}/approve", gate(admin.CapApproveRequests, h.approveDeposit)).Methods(http.MethodPost)
	priv.Handle("/deposits/{id:[0-9]+}/deny", gate(admin.CapApproveRequests, h.denyDeposit)).Methods(http.MethodPost)
	priv.Handle("/withdrawals", gate(admin.CapApproveRequests, h.listWithdrawals)).Methods(http.MethodGet)
	priv.Handle("/withdrawals/{id:[0-9]+}/approve", gate(admin.CapApproveRequests, h.approveWithdrawal)).Methods(http.MethodPost)
	priv.Handle("/withdrawals/{id:[0-9]+}/deny", gate(admin.CapApproveRequests, h.denyWithdrawal)).Methods(http.MethodPost)

	priv.Handle("/add-balance", gate(admin.CapAdjustBalances, h.addBalance)).Methods(http.MethodPost)
	priv.Handle("/user/{id:[0-9]+}/reduce-balance", gate(admin.CapAdjustBalances, h.reduceBalance)).Methods(http.MethodPost)
	priv.Handle("/freeze-balance", gate(admin.CapAdjustBalances, h.freezeBalance)).Methods(http.MethodPost)
	priv.Handle("/user/{id:[0-9]+}/balances", gate(admin.CapAdjustBalances, h.listBalances)).Methods(http.MethodGet)

	priv.Handle("/trades", gate(admin.CapOverrideTrades, h.listTrades)).Methods(http.MethodGet)
	priv.Handle("/update-trade", gate(admin.CapOverrideTrades, h.updateTrade)).Methods(http.MethodPost)
	priv.Handle("/users/{id:[0-9]+}/trade-mode", gate(admin.CapOverrideTrades, h.setTradeMode)).Methods(http.MethodPost)
	priv.Handle("/user-win-modes", gate(admin.CapOverrideTrades, h.listTradeModes)).Methods(http.MethodGet)
	priv.Handle("/auto-winning", gate(admin.CapOverrideTrades, h.getAutoWinning)).Methods(http.MethodGet)
	priv.Handle("/auto-winning", gate(admin.CapManagePlatform, h.setAutoWinning)).Methods(http.MethodPost)

	priv.Handle("/deposit-addresses", gate(admin.CapConfigureWallets, h.upsertDepositAddress)).Methods(http.MethodPost)
	priv.Handle("/deposit-addresses/{coin}/{network}", gate(admin.CapConfigureWallets, h.deleteDepositAddress)).Methods(http.MethodDelete)

	priv.PathPrefix("/main/").Handler(gate(admin.CapManageUsers, h.passthrough)).Methods(http.MethodGet)

	var handler http.Handler = r
	handler = metrics.InstrumentHandler(handler)
	if cfg.CORS != nil {
		handler = cfg.CORS.Handler(handler)
	}
	if cfg.Logging != nil {
		handler = cfg.Logging.Handler(handler)
	}
	return handler
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
