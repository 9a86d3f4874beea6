package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/storage"
)

func (s *Store) ListTrades(ctx context.Context) ([]user.Trade, error) {
	trades := []user.Trade{}
	err := s.db.SelectContext(ctx, &trades, `
		SELECT t.id, t.user_id,
		       COALESCE(u.username, '') AS username,
		       t.direction, t.amount, t.result, t.duration, t.created_at
		FROM trades t
		LEFT JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return trades, nil
}

func (s *Store) SetTradeResult(ctx context.Context, id int64, result user.TradeResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trades SET result = $2 WHERE id = $1`, id, result)
	if err != nil {
		return fmt.Errorf("set trade result: %w", err)
	}
	return requireRow(res)
}

func (s *Store) SetTradeMode(ctx context.Context, userID int64, mode user.TradeMode) error {
	if mode == "" {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM user_trade_modes WHERE user_id = $1`, userID)
		if err != nil {
			return fmt.Errorf("clear trade mode: %w", err)
		}
		return nil
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_trade_modes (user_id, mode)
		SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM users WHERE id = $1)
		ON CONFLICT (user_id) DO UPDATE SET mode = EXCLUDED.mode, updated_at = NOW()`,
		userID, mode)
	if err != nil {
		return fmt.Errorf("set trade mode: %w", err)
	}
	return requireRow(res)
}

func (s *Store) GetTradeMode(ctx context.Context, userID int64) (user.TradeMode, error) {
	var mode user.TradeMode
	err := s.db.GetContext(ctx, &mode,
		`SELECT mode FROM user_trade_modes WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get trade mode: %w", err)
	}
	return mode, nil
}

func (s *Store) ListTradeModes(ctx context.Context) (map[int64]user.TradeMode, error) {
	rows := []struct {
		UserID int64          `db:"user_id"`
		Mode   user.TradeMode `db:"mode"`
	}{}
	err := s.db.SelectContext(ctx, &rows, `SELECT user_id, mode FROM user_trade_modes`)
	if err != nil {
		return nil, fmt.Errorf("list trade modes: %w", err)
	}
	out := make(map[int64]user.TradeMode, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.Mode
	}
	return out, nil
}

// --- SettingStore ---

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM system_settings WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
