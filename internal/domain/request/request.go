// Package request models pending deposit and withdrawal requests awaiting
// operator review.
package request

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes the two request tables.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
)

func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Status is the review state. approved and denied are terminal: once set, a
// request never transitions again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Terminal reports whether the status permits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// Deposit is a customer's claim of an on-chain transfer, reviewed manually.
type Deposit struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	Coin       string          `db:"coin" json:"coin"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Address    string          `db:"address" json:"address,omitempty"`
	Screenshot string          `db:"screenshot" json:"screenshot,omitempty"`
	Status     Status          `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Withdrawal is a customer's request to move funds out.
type Withdrawal struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Coin      string          `db:"coin" json:"coin"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Address   string          `db:"address" json:"address,omitempty"`
	Status    Status          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
