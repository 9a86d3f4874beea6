package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopspring/decimal"

	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/middleware"
	"github.com/novachain/admin-backend/internal/services/accounts"
	"github.com/novachain/admin-backend/internal/services/approvals"
	"github.com/novachain/admin-backend/internal/services/auth"
	"github.com/novachain/admin-backend/internal/services/ledger"
	"github.com/novachain/admin-backend/internal/services/trademode"
	"github.com/novachain/admin-backend/internal/services/wallets"
	"github.com/novachain/admin-backend/internal/storage/memory"
	"github.com/novachain/admin-backend/pkg/logger"
)

var apiSecret = []byte("api-test-secret")

type fixture struct {
	handler http.Handler
	store   *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewDefault("test")
	ctx := context.Background()

	for email, role := range map[string]admin.Role{
		"root@example.com":    admin.RoleSuperadmin,
		"support@example.com": admin.RoleSupport,
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte("password-1"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		if err := store.CreateAdmin(ctx, &admin.Admin{Email: email, PasswordHash: string(hash), Role: role}); err != nil {
			t.Fatalf("seed admin: %v", err)
		}
	}

	svc := Services{
		Auth:      auth.NewService(store, apiSecret, time.Hour, log),
		Ledger:    ledger.NewService(store, log),
		Approvals: approvals.NewService(store, log),
		Accounts:  accounts.NewService(store, store, log),
		Wallets:   wallets.NewService(store, nil, time.Minute, log),
		TradeMode: trademode.NewService(store, store, nil, log),
	}
	h := NewHandler(svc, nil, log)
	handler := h.NewRouter(RouterConfig{
		Auth: middleware.NewAuthMiddleware(apiSecret, log),
		CORS: middleware.NewCORSMiddleware([]string{"http://localhost:3000"}),
	})
	return &fixture{handler: handler, store: store}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email": email, "password": "password-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return out.Token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

func (f *fixture) seedUser(t *testing.T) int64 {
	t.Helper()
	u := &user.User{Email: "alice@example.com", Username: "alice", Status: user.StatusActive, KYCStatus: user.KYCPending}
	if err := f.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLoginAndBadCredentials(t *testing.T) {
	f := newFixture(t)

	token := f.login(t, "root@example.com")
	if token == "" {
		t.Fatal("empty token")
	}

	rec := f.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email": "root@example.com", "password": "nope",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_credentials" {
		t.Errorf("error code = %q, want invalid_credentials", code)
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCapabilityGating(t *testing.T) {
	f := newFixture(t)
	support := f.login(t, "support@example.com")
	root := f.login(t, "root@example.com")

	// support can list users
	if rec := f.do(t, http.MethodGet, "/api/admin/users", support, nil); rec.Code != http.StatusOK {
		t.Fatalf("support list users status = %d, want 200", rec.Code)
	}

	// but cannot configure wallets
	body := map[string]string{"coin": "USDT", "network": "TRC20", "address": "Taddr"}
	rec := f.do(t, http.MethodPost, "/api/admin/deposit-addresses", support, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("support wallet config status = %d, want 403", rec.Code)
	}

	// nor flip the platform auto-winning flag
	rec = f.do(t, http.MethodPost, "/api/admin/auto-winning", support, map[string]bool{"enabled": true})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("support auto-winning status = %d, want 403", rec.Code)
	}

	// superadmin can do both
	if rec := f.do(t, http.MethodPost, "/api/admin/deposit-addresses", root, body); rec.Code != http.StatusOK {
		t.Fatalf("root wallet config status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, "/api/admin/auto-winning", root, map[string]bool{"enabled": true}); rec.Code != http.StatusOK {
		t.Fatalf("root auto-winning status = %d", rec.Code)
	}
}

func TestBalanceAdjustmentFlow(t *testing.T) {
	f := newFixture(t)
	root := f.login(t, "root@example.com")
	userID := f.seedUser(t)

	rec := f.do(t, http.MethodPost, "/api/admin/add-balance", root, map[string]interface{}{
		"userId": userID, "coin": "USDT", "amount": "100",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add-balance status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/user/%d/reduce-balance", userID), root, map[string]interface{}{
		"coin": "USDT", "amount": "150",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("overdraft status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "insufficient_funds" {
		t.Errorf("error code = %q, want insufficient_funds", code)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/admin/user/%d/balances", userID), root, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balances status = %d", rec.Code)
	}
	var balances []struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &balances); err != nil {
		t.Fatalf("decode balances: %v", err)
	}
	if len(balances) != 1 || !balances[0].Balance.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("balance = %v, want [100]", balances)
	}
}

func TestDepositApprovalIsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	root := f.login(t, "root@example.com")
	userID := f.seedUser(t)

	d := &request.Deposit{UserID: userID, Coin: "USDT", Amount: decimal.RequireFromString("250")}
	if err := f.store.CreateDeposit(context.Background(), d); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	path := fmt.Sprintf("/api/admin/deposits/%d/approve", d.ID)
	if rec := f.do(t, http.MethodPost, path, root, nil); rec.Code != http.StatusOK {
		t.Fatalf("first approval status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec := f.do(t, http.MethodPost, path, root, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second approval status = %d, want 409", rec.Code)
	}
	if code := errorCode(t, rec); code != "already_finalized" {
		t.Errorf("error code = %q, want already_finalized", code)
	}
}

func TestDeleteUserCascade(t *testing.T) {
	f := newFixture(t)
	root := f.login(t, "root@example.com")
	userID := f.seedUser(t)

	if err := f.store.Credit(context.Background(), userID, "USDT", decimal.RequireFromString("10")); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/user/%d", userID), root, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/user/%d", userID), root, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestPublicDepositAddressList(t *testing.T) {
	f := newFixture(t)
	root := f.login(t, "root@example.com")

	body := map[string]string{"coin": "USDT", "network": "TRC20", "address": "Taddr"}
	if rec := f.do(t, http.MethodPost, "/api/admin/deposit-addresses", root, body); rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d", rec.Code)
	}

	// no token required for the customer-facing read
	rec := f.do(t, http.MethodGet, "/api/admin/deposit-addresses", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public list status = %d, want 200", rec.Code)
	}
	var addrs []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &addrs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(addrs) != 1 {
		t.Fatalf("got %d addresses, want 1", len(addrs))
	}
}

func TestTradeModePersistedAndListed(t *testing.T) {
	f := newFixture(t)
	root := f.login(t, "root@example.com")
	userID := f.seedUser(t)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/trade-mode", userID), root, map[string]string{"mode": "WIN"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set trade mode status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/admin/user-win-modes", root, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("win modes status = %d", rec.Code)
	}
	var modes map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &modes); err != nil {
		t.Fatalf("decode modes: %v", err)
	}
	if modes[fmt.Sprint(userID)] != "WIN" {
		t.Fatalf("modes = %v, want WIN for user %d", modes, userID)
	}
}

func TestUpdateTradeValidation(t *testing.T) {
	f := newFixture(t)
	root := f.login(t, "root@example.com")
	userID := f.seedUser(t)

	trade := &user.Trade{UserID: userID, Direction: "buy", Amount: decimal.RequireFromString("5"), Result: user.TradeLoss}
	if err := f.store.CreateTrade(context.Background(), trade); err != nil {
		t.Fatalf("seed trade: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/admin/update-trade", root, map[string]interface{}{
		"tradeId": trade.ID, "result": "Draw",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid result status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/api/admin/update-trade", root, map[string]interface{}{
		"tradeId": trade.ID, "result": "Win",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid result status = %d", rec.Code)
	}
}

func TestPanelPayloadSpellings(t *testing.T) {
	f := newFixture(t)
	root := f.login(t, "root@example.com")
	userID := f.seedUser(t)

	// the panel sends user_id/kyc_status for KYC review
	rec := f.do(t, http.MethodPost, "/api/admin/user-kyc-status", root, map[string]interface{}{
		"user_id": userID, "kyc_status": "approved",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("kyc approve status = %d, body %s", rec.Code, rec.Body.String())
	}
	u, err := f.store.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.KYCStatus != user.KYCApproved || !u.Verified {
		t.Fatalf("kyc = %q verified = %v, want approved/true", u.KYCStatus, u.Verified)
	}

	// resetting to pending reopens the review
	rec = f.do(t, http.MethodPost, "/api/admin/user-kyc-status", root, map[string]interface{}{
		"user_id": userID, "kyc_status": "pending",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("kyc reset status = %d, body %s", rec.Code, rec.Body.String())
	}
	u, err = f.store.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.KYCStatus != user.KYCPending || u.Verified {
		t.Fatalf("kyc = %q verified = %v, want pending/false", u.KYCStatus, u.Verified)
	}

	// the panel sends userId/newStatus for account status
	rec = f.do(t, http.MethodPost, "/api/admin/user-status", root, map[string]interface{}{
		"userId": userID, "newStatus": "suspended",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("user-status status = %d, body %s", rec.Code, rec.Body.String())
	}
	u, err = f.store.GetUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Status != user.StatusSuspended {
		t.Fatalf("status = %q, want suspended", u.Status)
	}

	// missing identifiers are rejected
	rec = f.do(t, http.MethodPost, "/api/admin/user-kyc-status", root, map[string]interface{}{
		"kyc_status": "approved",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing user_id status = %d, want 400", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}
}
