// Package user models platform customers and their trades. These records are
// owned by the main trading backend; the admin API reads them and transitions
// a small set of fields.
package user

import (
	"time"

	"github.com/shopspring/decimal"
)

// KYCStatus is the verification state of a customer's identity documents.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

func (s KYCStatus) Valid() bool {
	return s == KYCPending || s == KYCApproved || s == KYCRejected
}

// Status is the account state of a customer.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

// User is a platform customer.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Username  string    `db:"username" json:"username"`
	Verified  bool      `db:"verified" json:"verified"`
	KYCStatus KYCStatus `db:"kyc_status" json:"kyc_status"`
	KYCSelfie string    `db:"kyc_selfie" json:"kyc_selfie,omitempty"`
	KYCIDCard string    `db:"kyc_id_card" json:"kyc_id_card,omitempty"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Overview is the admin list view: the user row merged with aggregated
// balances and the current trade-mode override.
type Overview struct {
	ID        int64           `db:"id" json:"id"`
	Email     string          `db:"email" json:"email"`
	Username  string          `db:"username" json:"username"`
	Verified  bool            `db:"verified" json:"verified"`
	KYCStatus KYCStatus       `db:"kyc_status" json:"kyc_status"`
	Status    Status          `db:"status" json:"status"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Frozen    decimal.Decimal `db:"frozen" json:"frozen"`
	TradeMode string          `db:"trade_mode" json:"trade_mode"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// KYCDetail is the document view for one user.
type KYCDetail struct {
	Selfie string    `db:"kyc_selfie" json:"kyc_selfie"`
	IDCard string    `db:"kyc_id_card" json:"kyc_id_card"`
	Status KYCStatus `db:"kyc_status" json:"kyc_status"`
}

// TradeResult is the settled outcome of a trade.
type TradeResult string

const (
	TradeWin  TradeResult = "Win"
	TradeLoss TradeResult = "Loss"
)

func (r TradeResult) Valid() bool {
	return r == TradeWin || r == TradeLoss
}

// Trade is one binary-options position, owned by the trading engine. The
// admin API lists trades and can override the result.
type Trade struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Username  string          `db:"username" json:"username"`
	Direction string          `db:"direction" json:"type"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Result    TradeResult     `db:"result" json:"result"`
	Duration  int             `db:"duration" json:"duration"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// TradeMode is a per-user override forced onto future trades. Empty string
// clears the override.
type TradeMode string

const (
	TradeModeWin  TradeMode = "WIN"
	TradeModeLose TradeMode = "LOSE"
)

func (m TradeMode) Valid() bool {
	return m == TradeModeWin || m == TradeModeLose || m == ""
}
