package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/storage"
)

func (s *Store) ListUsers(ctx context.Context) ([]user.Overview, error) {
	users := []user.Overview{}
	err := s.db.SelectContext(ctx, &users, `
		SELECT u.id, u.email, u.username, u.verified, u.kyc_status, u.status, u.created_at,
		       COALESCE(b.balance, 0) AS balance,
		       COALESCE(b.frozen, 0)  AS frozen,
		       COALESCE(m.mode, '')   AS trade_mode
		FROM users u
		LEFT JOIN (
			SELECT user_id, SUM(balance) AS balance, SUM(frozen) AS frozen
			FROM user_balances GROUP BY user_id
		) b ON b.user_id = u.id
		LEFT JOIN user_trade_modes m ON m.user_id = u.id
		ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, email, username, verified, kyc_status,
		       COALESCE(kyc_selfie, '') AS kyc_selfie,
		       COALESCE(kyc_id_card, '') AS kyc_id_card,
		       status, created_at
		FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) SetUserStatus(ctx context.Context, id int64, status user.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	return requireRow(res)
}

func (s *Store) GetKYC(ctx context.Context, id int64) (*user.KYCDetail, error) {
	var d user.KYCDetail
	err := s.db.GetContext(ctx, &d, `
		SELECT COALESCE(kyc_selfie, '') AS kyc_selfie,
		       COALESCE(kyc_id_card, '') AS kyc_id_card,
		       kyc_status
		FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get kyc: %w", err)
	}
	return &d, nil
}

func (s *Store) SetKYCStatus(ctx context.Context, id int64, status user.KYCStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET kyc_status = $2, verified = ($2 = 'approved') WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set kyc status: %w", err)
	}
	return requireRow(res)
}

// DeleteUser removes the user row and every dependent row in one transaction.
// A missing user rolls back with ErrNotFound.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, q := range []string{
			`DELETE FROM wallets WHERE user_id = $1`,
			`DELETE FROM user_balances WHERE user_id = $1`,
			`DELETE FROM trades WHERE user_id = $1`,
			`DELETE FROM deposits WHERE user_id = $1`,
			`DELETE FROM withdrawals WHERE user_id = $1`,
			`DELETE FROM user_trade_modes WHERE user_id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("delete user dependents: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return requireRow(res)
	})
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
