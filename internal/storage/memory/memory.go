// Package memory provides a mutex-guarded in-memory implementation of the
// storage contracts. It backs unit tests and local development when no
// database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/domain/ledger"
	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/domain/wallet"
	"github.com/novachain/admin-backend/internal/storage"
)

type balanceKey struct {
	userID int64
	coin   string
}

type addressKey struct {
	coin    string
	network string
}

// Store holds every table in maps behind one mutex. The single lock keeps
// multi-table operations (approvals, cascade delete) atomic the same way the
// postgres store's transactions do.
type Store struct {
	mu sync.Mutex

	admins      map[string]admin.Admin
	users       map[int64]user.User
	balances    map[balanceKey]ledger.Balance
	deposits    map[int64]request.Deposit
	withdrawals map[int64]request.Withdrawal
	trades      map[int64]user.Trade
	tradeModes  map[int64]user.TradeMode
	settings    map[string]string
	addresses   map[addressKey]wallet.DepositAddress

	nextID int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		admins:      make(map[string]admin.Admin),
		users:       make(map[int64]user.User),
		balances:    make(map[balanceKey]ledger.Balance),
		deposits:    make(map[int64]request.Deposit),
		withdrawals: make(map[int64]request.Withdrawal),
		trades:      make(map[int64]user.Trade),
		tradeModes:  make(map[int64]user.TradeMode),
		settings:    make(map[string]string),
		addresses:   make(map[addressKey]wallet.DepositAddress),
		nextID:      1,
	}
}

func (s *Store) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// --- AdminStore ---

func (s *Store) GetAdmin(ctx context.Context, email string) (*admin.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *admin.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	rec := *a
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.admins[a.Email] = rec
	return nil
}

func (s *Store) UpdateAdminPassword(ctx context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[email]
	if !ok {
		return storage.ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = time.Now().UTC()
	s.admins[email] = a
	return nil
}

// --- UserStore ---

// CreateUser inserts a user row, assigning an ID when none is set. Used by
// tests and local seeding.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.allocID()
	} else if u.ID >= s.nextID {
		s.nextID = u.ID + 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user.Overview, 0, len(s.users))
	for _, u := range s.users {
		ov := user.Overview{
			ID:        u.ID,
			Email:     u.Email,
			Username:  u.Username,
			Verified:  u.Verified,
			KYCStatus: u.KYCStatus,
			Status:    u.Status,
			Balance:   decimal.Zero,
			Frozen:    decimal.Zero,
			TradeMode: string(s.tradeModes[u.ID]),
			CreatedAt: u.CreatedAt,
		}
		for key, b := range s.balances {
			if key.userID == u.ID {
				ov.Balance = ov.Balance.Add(b.Balance)
				ov.Frozen = ov.Frozen.Add(b.Frozen)
			}
		}
		out = append(out, ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Store) SetUserStatus(ctx context.Context, id int64, status user.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Status = status
	s.users[id] = u
	return nil
}

func (s *Store) GetKYC(ctx context.Context, id int64) (*user.KYCDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user.KYCDetail{Selfie: u.KYCSelfie, IDCard: u.KYCIDCard, Status: u.KYCStatus}, nil
}

func (s *Store) SetKYCStatus(ctx context.Context, id int64, status user.KYCStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.KYCStatus = status
	u.Verified = status == user.KYCApproved
	s.users[id] = u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	delete(s.tradeModes, id)
	for key := range s.balances {
		if key.userID == id {
			delete(s.balances, key)
		}
	}
	for dID, d := range s.deposits {
		if d.UserID == id {
			delete(s.deposits, dID)
		}
	}
	for wID, w := range s.withdrawals {
		if w.UserID == id {
			delete(s.withdrawals, wID)
		}
	}
	for tID, t := range s.trades {
		if t.UserID == id {
			delete(s.trades, tID)
		}
	}
	return nil
}

// --- LedgerStore ---

func (s *Store) ListBalances(ctx context.Context, userID int64) ([]ledger.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Balance
	for key, b := range s.balances {
		if key.userID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coin < out[j].Coin })
	return out, nil
}

func (s *Store) Credit(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creditLocked(userID, coin, amount)
	return nil
}

func (s *Store) creditLocked(userID int64, coin string, amount decimal.Decimal) {
	key := balanceKey{userID, coin}
	b, ok := s.balances[key]
	if !ok {
		b = ledger.Balance{UserID: userID, Coin: coin, Balance: decimal.Zero, Frozen: decimal.Zero}
	}
	b.Balance = b.Balance.Add(amount)
	b.UpdatedAt = time.Now().UTC()
	s.balances[key] = b
}

func (s *Store) Debit(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debitLocked(userID, coin, amount)
}

func (s *Store) debitLocked(userID int64, coin string, amount decimal.Decimal) error {
	key := balanceKey{userID, coin}
	b, ok := s.balances[key]
	if !ok || b.Balance.LessThan(amount) {
		return storage.ErrInsufficientFunds
	}
	b.Balance = b.Balance.Sub(amount)
	b.UpdatedAt = time.Now().UTC()
	s.balances[key] = b
	return nil
}

func (s *Store) Freeze(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := balanceKey{userID, coin}
	b, ok := s.balances[key]
	if !ok || b.Balance.LessThan(amount) {
		return storage.ErrInsufficientFunds
	}
	b.Balance = b.Balance.Sub(amount)
	b.Frozen = b.Frozen.Add(amount)
	b.UpdatedAt = time.Now().UTC()
	s.balances[key] = b
	return nil
}

func (s *Store) Unfreeze(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := balanceKey{userID, coin}
	b, ok := s.balances[key]
	if !ok || b.Frozen.LessThan(amount) {
		return storage.ErrInsufficientFunds
	}
	b.Frozen = b.Frozen.Sub(amount)
	b.Balance = b.Balance.Add(amount)
	b.UpdatedAt = time.Now().UTC()
	s.balances[key] = b
	return nil
}

// --- RequestStore ---

// CreateDeposit inserts a deposit row. Used by tests and local seeding.
func (s *Store) CreateDeposit(ctx context.Context, d *request.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.allocID()
	} else if d.ID >= s.nextID {
		s.nextID = d.ID + 1
	}
	if d.Status == "" {
		d.Status = request.StatusPending
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.deposits[d.ID] = *d
	return nil
}

// CreateWithdrawal inserts a withdrawal row. Used by tests and local seeding.
func (s *Store) CreateWithdrawal(ctx context.Context, w *request.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == 0 {
		w.ID = s.allocID()
	} else if w.ID >= s.nextID {
		s.nextID = w.ID + 1
	}
	if w.Status == "" {
		w.Status = request.StatusPending
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	s.withdrawals[w.ID] = *w
	return nil
}

func (s *Store) ListDeposits(ctx context.Context, status request.Status) ([]request.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []request.Deposit
	for _, d := range s.deposits {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListWithdrawals(ctx context.Context, status request.Status) ([]request.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []request.Withdrawal
	for _, w := range s.withdrawals {
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ApproveDeposit(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deposits[id]
	if !ok {
		return storage.ErrNotFound
	}
	if d.Status.Terminal() {
		return storage.ErrAlreadyFinalized
	}
	d.Status = request.StatusApproved
	s.deposits[id] = d
	s.creditLocked(d.UserID, d.Coin, d.Amount)
	return nil
}

func (s *Store) ApproveWithdrawal(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return storage.ErrNotFound
	}
	if w.Status.Terminal() {
		return storage.ErrAlreadyFinalized
	}
	if err := s.debitLocked(w.UserID, w.Coin, w.Amount); err != nil {
		return err
	}
	w.Status = request.StatusApproved
	s.withdrawals[id] = w
	return nil
}

func (s *Store) DenyDeposit(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deposits[id]
	if !ok {
		return storage.ErrNotFound
	}
	if d.Status.Terminal() {
		return storage.ErrAlreadyFinalized
	}
	d.Status = request.StatusDenied
	s.deposits[id] = d
	return nil
}

func (s *Store) DenyWithdrawal(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return storage.ErrNotFound
	}
	if w.Status.Terminal() {
		return storage.ErrAlreadyFinalized
	}
	w.Status = request.StatusDenied
	s.withdrawals[id] = w
	return nil
}

func (s *Store) CountPending(ctx context.Context, kind request.Kind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	switch kind {
	case request.KindDeposit:
		for _, d := range s.deposits {
			if d.Status == request.StatusPending {
				n++
			}
		}
	case request.KindWithdrawal:
		for _, w := range s.withdrawals {
			if w.Status == request.StatusPending {
				n++
			}
		}
	}
	return n, nil
}

// --- TradeStore ---

// CreateTrade inserts a trade row. Used by tests and local seeding.
func (s *Store) CreateTrade(ctx context.Context, t *user.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.allocID()
	} else if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.trades[t.ID] = *t
	return nil
}

func (s *Store) ListTrades(ctx context.Context) ([]user.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		if u, ok := s.users[t.UserID]; ok && t.Username == "" {
			t.Username = u.Username
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SetTradeResult(ctx context.Context, id int64, result user.TradeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.Result = result
	s.trades[id] = t
	return nil
}

func (s *Store) SetTradeMode(ctx context.Context, userID int64, mode user.TradeMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return storage.ErrNotFound
	}
	if mode == "" {
		delete(s.tradeModes, userID)
		return nil
	}
	s.tradeModes[userID] = mode
	return nil
}

func (s *Store) GetTradeMode(ctx context.Context, userID int64) (user.TradeMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradeModes[userID], nil
}

func (s *Store) ListTradeModes(ctx context.Context) (map[int64]user.TradeMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]user.TradeMode, len(s.tradeModes))
	for id, mode := range s.tradeModes {
		out[id] = mode
	}
	return out, nil
}

// --- SettingStore ---

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

// --- WalletStore ---

func (s *Store) ListDepositAddresses(ctx context.Context) ([]wallet.DepositAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wallet.DepositAddress, 0, len(s.addresses))
	for _, a := range s.addresses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coin != out[j].Coin {
			return out[i].Coin < out[j].Coin
		}
		return out[i].Network < out[j].Network
	})
	return out, nil
}

func (s *Store) UpsertDepositAddress(ctx context.Context, addr *wallet.DepositAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := addressKey{addr.Coin, addr.Network}
	rec := *addr
	if prev, ok := s.addresses[key]; ok && rec.QRURL == "" {
		rec.QRURL = prev.QRURL
	}
	rec.UpdatedAt = time.Now().UTC()
	s.addresses[key] = rec
	return nil
}

func (s *Store) DeleteDepositAddress(ctx context.Context, coin, network string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := addressKey{coin, network}
	if _, ok := s.addresses[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.addresses, key)
	return nil
}
