// Package wallet models the shared deposit-address configuration shown to
// customers. Addresses are global platform settings, not per-user records.
package wallet

import "time"

// DepositAddress is one (coin, network) entry. QRURL points at a stored QR
// image when one was uploaded.
type DepositAddress struct {
	Coin      string    `db:"coin" json:"coin"`
	Network   string    `db:"network" json:"network"`
	Address   string    `db:"address" json:"address"`
	QRURL     string    `db:"qr_url" json:"qr_url,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
