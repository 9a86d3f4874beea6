package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/domain/wallet"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/httputil"
	"github.com/novachain/admin-backend/internal/middleware"
	"github.com/novachain/admin-backend/internal/services/ledger"
)

// decode parses and validates a JSON request body.
func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Validation("invalid JSON body")
	}
	if err := h.validate.Struct(v); err != nil {
		return errors.Validation("invalid request").WithDetails("reason", err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.Validation("invalid id")
	}
	return id, nil
}

// --- auth ---

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, a, err := h.svc.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"email": a.Email,
		"role":  a.Role,
	})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, errors.Unauthorized("authentication required"))
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.Auth.ChangePassword(r.Context(), claims.Email, payload.CurrentPassword, payload.NewPassword); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// --- users ---

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Accounts.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Accounts.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	// the admin panel posts newStatus; accept both spellings
	var payload struct {
		UserID    int64  `json:"userId"`
		Status    string `json:"status"`
		NewStatus string `json:"newStatus"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if payload.Status == "" {
		payload.Status = payload.NewStatus
	}
	if payload.UserID == 0 || payload.Status == "" {
		httputil.WriteError(w, errors.Validation("userId and status are required"))
		return
	}
	if err := h.svc.Accounts.SetStatus(r.Context(), payload.UserID, user.Status(payload.Status)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

func (h *Handler) getKYC(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	detail, err := h.svc.Accounts.KYC(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) setKYCStatus(w http.ResponseWriter, r *http.Request) {
	// the admin panel posts user_id/kyc_status; accept both spellings
	var payload struct {
		UserID      int64  `json:"userId"`
		UserIDSnake int64  `json:"user_id"`
		Status      string `json:"status"`
		KYCStatus   string `json:"kyc_status"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if payload.UserID == 0 {
		payload.UserID = payload.UserIDSnake
	}
	if payload.Status == "" {
		payload.Status = payload.KYCStatus
	}
	if payload.UserID == 0 || payload.Status == "" {
		httputil.WriteError(w, errors.Validation("user_id and kyc_status are required"))
		return
	}
	if err := h.svc.Accounts.ReviewKYC(r.Context(), payload.UserID, user.KYCStatus(payload.Status)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "kyc updated"})
}

// --- balances ---

func (h *Handler) listBalances(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	balances, err := h.svc.Ledger.Balances(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balances)
}

func (h *Handler) addBalance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID int64           `json:"userId" validate:"required"`
		Coin   string          `json:"coin" validate:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Ledger.Adjust(r.Context(), payload.UserID, payload.Coin, ledger.OpCredit, payload.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "balance credited"})
}

func (h *Handler) reduceBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var payload struct {
		Coin   string          `json:"coin" validate:"required"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Ledger.Adjust(r.Context(), id, payload.Coin, ledger.OpDebit, payload.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "balance reduced"})
}

func (h *Handler) freezeBalance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID    int64           `json:"userId" validate:"required"`
		Coin      string          `json:"coin" validate:"required"`
		Amount    decimal.Decimal `json:"amount"`
		Operation string          `json:"operation"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	op := ledger.OpFreeze
	if payload.Operation == "unfreeze" {
		op = ledger.OpUnfreeze
	}
	if err := h.svc.Ledger.Adjust(r.Context(), payload.UserID, payload.Coin, op, payload.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "balance updated"})
}

// --- deposits & withdrawals ---

func (h *Handler) listDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.svc.Approvals.Deposits(r.Context(), request.Status(r.URL.Query().Get("status")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deposits)
}

func (h *Handler) listWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.svc.Approvals.Withdrawals(r.Context(), request.Status(r.URL.Query().Get("status")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withdrawals)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, kind request.Kind, approve bool) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Approvals.Decide(r.Context(), kind, id, approve); err != nil {
		httputil.WriteError(w, err)
		return
	}
	decision := "denied"
	if approve {
		decision = "approved"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": string(kind) + " " + decision})
}

func (h *Handler) approveDeposit(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, request.KindDeposit, true)
}

func (h *Handler) denyDeposit(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, request.KindDeposit, false)
}

func (h *Handler) approveWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, request.KindWithdrawal, true)
}

func (h *Handler) denyWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, request.KindWithdrawal, false)
}

// --- trades ---

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.svc.Accounts.Trades(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trades)
}

func (h *Handler) updateTrade(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TradeID int64  `json:"tradeId" validate:"required"`
		Result  string `json:"result" validate:"required"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Accounts.OverrideTrade(r.Context(), payload.TradeID, user.TradeResult(payload.Result)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "trade updated"})
}

func (h *Handler) setTradeMode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var payload struct {
		Mode string `json:"mode"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.TradeMode.SetUserMode(r.Context(), id, user.TradeMode(payload.Mode)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "trade mode updated"})
}

func (h *Handler) listTradeModes(w http.ResponseWriter, r *http.Request) {
	modes, err := h.svc.TradeMode.UserModes(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make(map[string]user.TradeMode, len(modes))
	for id, mode := range modes {
		out[strconv.FormatInt(id, 10)] = mode
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getAutoWinning(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.svc.TradeMode.AutoWinning(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

func (h *Handler) setAutoWinning(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Enabled bool `json:"enabled"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.TradeMode.SetAutoWinning(r.Context(), payload.Enabled); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": payload.Enabled})
}

// --- deposit addresses ---

func (h *Handler) listDepositAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := h.svc.Wallets.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, addrs)
}

func (h *Handler) upsertDepositAddress(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Coin    string `json:"coin" validate:"required"`
		Network string `json:"network" validate:"required"`
		Address string `json:"address" validate:"required"`
		QRURL   string `json:"qrUrl"`
	}
	if err := h.decode(r, &payload); err != nil {
		httputil.WriteError(w, err)
		return
	}
	addr := &wallet.DepositAddress{
		Coin:    payload.Coin,
		Network: payload.Network,
		Address: payload.Address,
		QRURL:   payload.QRURL,
	}
	if err := h.svc.Wallets.Upsert(r.Context(), addr); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, addr)
}

func (h *Handler) deleteDepositAddress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.Wallets.Delete(r.Context(), vars["coin"], vars["network"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "deposit address removed"})
}

// --- upstream passthrough ---

func (h *Handler) passthrough(w http.ResponseWriter, r *http.Request) {
	if h.backend == nil {
		httputil.WriteError(w, errors.Upstream("main backend not configured", nil))
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/main")
	h.backend.Proxy(path).ServeHTTP(w, r)
}
