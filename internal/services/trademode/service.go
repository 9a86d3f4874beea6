// Package trademode manages forced trade outcomes: per-user overrides and
// the global auto-winning flag. State is persisted locally and mirrored to
// the main trading backend, which applies it to incoming trades.
package trademode

import (
	"context"
	"strconv"

	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/internal/upstream"
	"github.com/novachain/admin-backend/pkg/logger"
)

const autoWinningKey = "auto_winning"

// Service persists trade-mode state and notifies the main backend.
type Service struct {
	trades   storage.TradeStore
	settings storage.SettingStore
	backend  *upstream.Client
	log      *logger.Logger
}

// NewService creates the trade-mode service. backend may be nil when no main
// backend is configured.
func NewService(trades storage.TradeStore, settings storage.SettingStore, backend *upstream.Client, log *logger.Logger) *Service {
	return &Service{trades: trades, settings: settings, backend: backend, log: log.Named("trademode")}
}

// SetUserMode persists the per-user override and notifies the main backend.
// The local row is authoritative; a failed notification is logged and
// retried implicitly on the next change.
func (s *Service) SetUserMode(ctx context.Context, userID int64, mode user.TradeMode) error {
	if !mode.Valid() {
		return errors.Validation("mode must be WIN, LOSE, or empty to clear").
			WithDetails("mode", string(mode))
	}

	if err := s.trades.SetTradeMode(ctx, userID, mode); err != nil {
		if err == storage.ErrNotFound {
			return errors.NotFound("user not found").WithDetails("id", userID)
		}
		return errors.Internal("set trade mode", err)
	}

	s.notify(ctx, "/api/admin/set-trade-mode", map[string]interface{}{
		"userId": userID,
		"mode":   string(mode),
	})

	s.log.WithField("user_id", userID).WithField("mode", string(mode)).Info("trade mode set")
	return nil
}

// UserMode returns the per-user override, empty when none is set.
func (s *Service) UserMode(ctx context.Context, userID int64) (user.TradeMode, error) {
	mode, err := s.trades.GetTradeMode(ctx, userID)
	if err != nil {
		return "", errors.Internal("get trade mode", err)
	}
	return mode, nil
}

// UserModes returns every persisted per-user override.
func (s *Service) UserModes(ctx context.Context) (map[int64]user.TradeMode, error) {
	modes, err := s.trades.ListTradeModes(ctx)
	if err != nil {
		return nil, errors.Internal("list trade modes", err)
	}
	return modes, nil
}

// AutoWinning reports the global auto-winning flag. Unset means off.
func (s *Service) AutoWinning(ctx context.Context) (bool, error) {
	v, err := s.settings.GetSetting(ctx, autoWinningKey)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, errors.Internal("get auto-winning", err)
	}
	enabled, _ := strconv.ParseBool(v)
	return enabled, nil
}

// SetAutoWinning persists the global flag and notifies the main backend.
func (s *Service) SetAutoWinning(ctx context.Context, enabled bool) error {
	if err := s.settings.SetSetting(ctx, autoWinningKey, strconv.FormatBool(enabled)); err != nil {
		return errors.Internal("set auto-winning", err)
	}

	s.notify(ctx, "/api/admin/auto-winning", map[string]interface{}{
		"enabled": enabled,
	})

	s.log.WithField("enabled", enabled).Info("auto-winning flag set")
	return nil
}

func (s *Service) notify(ctx context.Context, path string, body interface{}) {
	if s.backend == nil {
		return
	}
	if _, err := s.backend.Post(ctx, path, body); err != nil {
		s.log.WithError(err).WithField("path", path).Warn("main backend notification failed")
	}
}
