package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/storage"
)

func (s *Store) ListDeposits(ctx context.Context, status request.Status) ([]request.Deposit, error) {
	deposits := []request.Deposit{}
	q := `SELECT id, user_id, coin, amount,
	             COALESCE(address, '') AS address,
	             COALESCE(screenshot, '') AS screenshot,
	             status, created_at
	      FROM deposits`
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &deposits, q+` ORDER BY created_at DESC`)
	} else {
		err = s.db.SelectContext(ctx, &deposits, q+` WHERE status = $1 ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	return deposits, nil
}

func (s *Store) ListWithdrawals(ctx context.Context, status request.Status) ([]request.Withdrawal, error) {
	withdrawals := []request.Withdrawal{}
	q := `SELECT id, user_id, coin, amount,
	             COALESCE(address, '') AS address,
	             status, created_at
	      FROM withdrawals`
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &withdrawals, q+` ORDER BY created_at DESC`)
	} else {
		err = s.db.SelectContext(ctx, &withdrawals, q+` WHERE status = $1 ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// lockRequest loads the row under FOR UPDATE and checks the status guard.
func lockRequest(ctx context.Context, tx *sqlx.Tx, table string, id int64) (userID int64, coin string, amount decimal.Decimal, err error) {
	var row struct {
		UserID int64           `db:"user_id"`
		Coin   string          `db:"coin"`
		Amount decimal.Decimal `db:"amount"`
		Status request.Status  `db:"status"`
	}
	q := fmt.Sprintf(`SELECT user_id, coin, amount, status FROM %s WHERE id = $1 FOR UPDATE`, table)
	if err = tx.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = storage.ErrNotFound
		} else {
			err = fmt.Errorf("lock %s: %w", table, err)
		}
		return
	}
	if row.Status.Terminal() {
		err = storage.ErrAlreadyFinalized
		return
	}
	return row.UserID, row.Coin, row.Amount, nil
}

// finalize flips the status with a compare-and-set on pending.
func finalize(ctx context.Context, tx *sqlx.Tx, table string, id int64, status request.Status) error {
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1 AND status = 'pending'`, table),
		id, status)
	if err != nil {
		return fmt.Errorf("finalize %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize %s: %w", table, err)
	}
	if n == 0 {
		return storage.ErrAlreadyFinalized
	}
	return nil
}

func (s *Store) ApproveDeposit(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		userID, coin, amount, err := lockRequest(ctx, tx, "deposits", id)
		if err != nil {
			return err
		}
		if err := finalize(ctx, tx, "deposits", id, request.StatusApproved); err != nil {
			return err
		}
		return creditTx(ctx, tx, userID, coin, amount)
	})
}

func (s *Store) ApproveWithdrawal(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		userID, coin, amount, err := lockRequest(ctx, tx, "withdrawals", id)
		if err != nil {
			return err
		}
		if err := finalize(ctx, tx, "withdrawals", id, request.StatusApproved); err != nil {
			return err
		}
		// insufficient funds rolls the status flip back, leaving the
		// withdrawal pending
		return debitTx(ctx, tx, userID, coin, amount)
	})
}

func (s *Store) DenyDeposit(ctx context.Context, id int64) error {
	return s.deny(ctx, "deposits", id)
}

func (s *Store) DenyWithdrawal(ctx context.Context, id int64) error {
	return s.deny(ctx, "withdrawals", id)
}

func (s *Store) deny(ctx context.Context, table string, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, _, _, err := lockRequest(ctx, tx, table, id); err != nil {
			return err
		}
		return finalize(ctx, tx, table, id, request.StatusDenied)
	})
}

func (s *Store) CountPending(ctx context.Context, kind request.Kind) (int64, error) {
	table := "deposits"
	if kind == request.KindWithdrawal {
		table = "withdrawals"
	}
	var n int64
	err := s.db.GetContext(ctx, &n,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = 'pending'`, table))
	if err != nil {
		return 0, fmt.Errorf("count pending %s: %w", table, err)
	}
	return n, nil
}
