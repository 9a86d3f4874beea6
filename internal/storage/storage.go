// Package storage defines the persistence contracts for the admin backend
// and the sentinel errors stores report. Two implementations exist: an
// in-memory store for tests and local development, and the postgres store
// used in production.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/domain/ledger"
	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/domain/wallet"
)

var (
	// ErrNotFound reports an absent row.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyFinalized reports a deposit or withdrawal whose status is
	// already terminal. The row is left untouched.
	ErrAlreadyFinalized = errors.New("storage: request already finalized")

	// ErrInsufficientFunds reports a debit or freeze that would take a
	// balance below zero. The row is left untouched.
	ErrInsufficientFunds = errors.New("storage: insufficient funds")
)

// AdminStore persists operator accounts.
type AdminStore interface {
	GetAdmin(ctx context.Context, email string) (*admin.Admin, error)
	CreateAdmin(ctx context.Context, a *admin.Admin) error
	UpdateAdminPassword(ctx context.Context, email, passwordHash string) error
}

// UserStore reads and transitions customer accounts.
type UserStore interface {
	ListUsers(ctx context.Context) ([]user.Overview, error)
	GetUser(ctx context.Context, id int64) (*user.User, error)
	SetUserStatus(ctx context.Context, id int64, status user.Status) error
	GetKYC(ctx context.Context, id int64) (*user.KYCDetail, error)
	SetKYCStatus(ctx context.Context, id int64, status user.KYCStatus) error

	// DeleteUser removes the user and every dependent row (wallets,
	// balances, trades, deposits, withdrawals, trade-mode override) in a
	// single transaction.
	DeleteUser(ctx context.Context, id int64) error
}

// LedgerStore mutates balances. Every mutation is atomic: concurrent calls
// never observe or produce a negative balance or frozen amount.
type LedgerStore interface {
	ListBalances(ctx context.Context, userID int64) ([]ledger.Balance, error)

	// Credit adds amount to the user's available balance, creating the row
	// if absent.
	Credit(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error

	// Debit subtracts amount from the available balance. Returns
	// ErrInsufficientFunds when the balance is smaller than amount.
	Debit(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error

	// Freeze moves amount from available to frozen. Returns
	// ErrInsufficientFunds when the available balance is smaller than amount.
	Freeze(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error

	// Unfreeze moves amount from frozen back to available. Returns
	// ErrInsufficientFunds when the frozen amount is smaller than amount.
	Unfreeze(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error
}

// RequestStore reviews deposits and withdrawals. Approve and Deny are
// exactly-once: the first finalizing call wins and every later call returns
// ErrAlreadyFinalized without touching the ledger.
type RequestStore interface {
	ListDeposits(ctx context.Context, status request.Status) ([]request.Deposit, error)
	ListWithdrawals(ctx context.Context, status request.Status) ([]request.Withdrawal, error)

	// ApproveDeposit flips the deposit to approved and credits the user's
	// balance in one transaction.
	ApproveDeposit(ctx context.Context, id int64) error

	// ApproveWithdrawal flips the withdrawal to approved and debits the
	// user's balance in one transaction. ErrInsufficientFunds leaves the
	// withdrawal pending.
	ApproveWithdrawal(ctx context.Context, id int64) error

	DenyDeposit(ctx context.Context, id int64) error
	DenyWithdrawal(ctx context.Context, id int64) error

	CountPending(ctx context.Context, kind request.Kind) (int64, error)
}

// TradeStore reads trades and applies result overrides.
type TradeStore interface {
	ListTrades(ctx context.Context) ([]user.Trade, error)
	SetTradeResult(ctx context.Context, id int64, result user.TradeResult) error
	SetTradeMode(ctx context.Context, userID int64, mode user.TradeMode) error
	GetTradeMode(ctx context.Context, userID int64) (user.TradeMode, error)
	ListTradeModes(ctx context.Context) (map[int64]user.TradeMode, error)
}

// SettingStore persists platform-wide flags as key/value rows.
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// WalletStore manages the shared deposit-address table.
type WalletStore interface {
	ListDepositAddresses(ctx context.Context) ([]wallet.DepositAddress, error)

	// UpsertDepositAddress inserts or replaces the (coin, network) entry.
	// An empty QRURL keeps the stored QR image.
	UpsertDepositAddress(ctx context.Context, addr *wallet.DepositAddress) error

	DeleteDepositAddress(ctx context.Context, coin, network string) error
}
