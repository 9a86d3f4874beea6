package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/novachain/admin-backend/internal/domain/ledger"
	"github.com/novachain/admin-backend/internal/storage"
)

func (s *Store) ListBalances(ctx context.Context, userID int64) ([]ledger.Balance, error) {
	balances := []ledger.Balance{}
	err := s.db.SelectContext(ctx, &balances, `
		SELECT user_id, coin, balance, frozen, updated_at
		FROM user_balances WHERE user_id = $1 ORDER BY coin`, userID)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return balances, nil
}

func (s *Store) Credit(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	return creditTx(ctx, s.db, userID, coin, amount)
}

func (s *Store) Debit(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	return debitTx(ctx, s.db, userID, coin, amount)
}

func (s *Store) Freeze(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_balances
		SET balance = balance - $3, frozen = frozen + $3, updated_at = NOW()
		WHERE user_id = $1 AND coin = $2 AND balance >= $3`,
		userID, coin, amount)
	if err != nil {
		return fmt.Errorf("freeze: %w", err)
	}
	return requireFunds(res)
}

func (s *Store) Unfreeze(ctx context.Context, userID int64, coin string, amount decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_balances
		SET balance = balance + $3, frozen = frozen - $3, updated_at = NOW()
		WHERE user_id = $1 AND coin = $2 AND frozen >= $3`,
		userID, coin, amount)
	if err != nil {
		return fmt.Errorf("unfreeze: %w", err)
	}
	return requireFunds(res)
}

// creditTx upserts the balance row. sqlx.ExtContext covers the pool and a tx.
func creditTx(ctx context.Context, e sqlx.ExtContext, userID int64, coin string, amount decimal.Decimal) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, coin, balance, frozen)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, coin)
		DO UPDATE SET balance = user_balances.balance + EXCLUDED.balance, updated_at = NOW()`,
		userID, coin, amount)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	return nil
}

// debitTx subtracts with the non-negative guard in the WHERE clause. A missing
// row counts as a zero balance.
func debitTx(ctx context.Context, e sqlx.ExtContext, userID int64, coin string, amount decimal.Decimal) error {
	res, err := e.ExecContext(ctx, `
		UPDATE user_balances
		SET balance = balance - $3, updated_at = NOW()
		WHERE user_id = $1 AND coin = $2 AND balance >= $3`,
		userID, coin, amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	return requireFunds(res)
}

func requireFunds(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrInsufficientFunds
	}
	return nil
}
