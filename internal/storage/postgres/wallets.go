package postgres

import (
	"context"
	"fmt"

	"github.com/novachain/admin-backend/internal/domain/wallet"
)

func (s *Store) ListDepositAddresses(ctx context.Context) ([]wallet.DepositAddress, error) {
	addrs := []wallet.DepositAddress{}
	err := s.db.SelectContext(ctx, &addrs, `
		SELECT coin, network, address,
		       COALESCE(qr_url, '') AS qr_url,
		       updated_at
		FROM deposit_addresses ORDER BY coin, network`)
	if err != nil {
		return nil, fmt.Errorf("list deposit addresses: %w", err)
	}
	return addrs, nil
}

// UpsertDepositAddress replaces the (coin, network) entry. An empty QRURL
// keeps the stored QR image so rotating an address does not drop it.
func (s *Store) UpsertDepositAddress(ctx context.Context, addr *wallet.DepositAddress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deposit_addresses (coin, network, address, qr_url)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (coin, network)
		DO UPDATE SET address = EXCLUDED.address,
		              qr_url = COALESCE(EXCLUDED.qr_url, deposit_addresses.qr_url),
		              updated_at = NOW()`,
		addr.Coin, addr.Network, addr.Address, addr.QRURL)
	if err != nil {
		return fmt.Errorf("upsert deposit address: %w", err)
	}
	return nil
}

func (s *Store) DeleteDepositAddress(ctx context.Context, coin, network string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM deposit_addresses WHERE coin = $1 AND network = $2`, coin, network)
	if err != nil {
		return fmt.Errorf("delete deposit address: %w", err)
	}
	return requireRow(res)
}
