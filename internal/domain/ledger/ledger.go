// Package ledger models per-user per-coin balances. The ledger is the only
// authoritative record of customer funds inside the admin backend.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is one (user, coin) row. Both amounts are always non-negative;
// the stores enforce the invariant atomically.
type Balance struct {
	UserID    int64           `db:"user_id" json:"user_id"`
	Coin      string          `db:"coin" json:"coin"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Frozen    decimal.Decimal `db:"frozen" json:"frozen"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
