// Package accounts implements customer administration: listing, KYC review,
// suspension, deletion, and trade inspection.
package accounts

import (
	"context"

	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/pkg/logger"
)

// Service manages customer accounts on behalf of operators.
type Service struct {
	users  storage.UserStore
	trades storage.TradeStore
	log    *logger.Logger
}

// NewService creates the accounts service.
func NewService(users storage.UserStore, trades storage.TradeStore, log *logger.Logger) *Service {
	return &Service{users: users, trades: trades, log: log.Named("accounts")}
}

// List returns every customer with aggregated balances and trade-mode
// overrides.
func (s *Service) List(ctx context.Context) ([]user.Overview, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, errors.Internal("list users", err)
	}
	return users, nil
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, errors.NotFound("user not found").WithDetails("id", id)
		}
		return nil, errors.Internal("get user", err)
	}
	return u, nil
}

// SetStatus activates or suspends a customer account.
func (s *Service) SetStatus(ctx context.Context, id int64, status user.Status) error {
	if !status.Valid() {
		return errors.Validation("unknown status").WithDetails("status", string(status))
	}
	if err := s.users.SetUserStatus(ctx, id, status); err != nil {
		if err == storage.ErrNotFound {
			return errors.NotFound("user not found").WithDetails("id", id)
		}
		return errors.Internal("set user status", err)
	}
	s.log.WithField("user_id", id).WithField("status", string(status)).Info("user status changed")
	return nil
}

// KYC returns the customer's submitted documents.
func (s *Service) KYC(ctx context.Context, id int64) (*user.KYCDetail, error) {
	d, err := s.users.GetKYC(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, errors.NotFound("user not found").WithDetails("id", id)
		}
		return nil, errors.Internal("get kyc", err)
	}
	return d, nil
}

// ReviewKYC transitions the customer's KYC status. Approval marks the account
// verified; pending reopens the review and clears the verified flag.
func (s *Service) ReviewKYC(ctx context.Context, id int64, status user.KYCStatus) error {
	if !status.Valid() {
		return errors.Validation("kyc status must be pending, approved, or rejected").
			WithDetails("status", string(status))
	}
	if err := s.users.SetKYCStatus(ctx, id, status); err != nil {
		if err == storage.ErrNotFound {
			return errors.NotFound("user not found").WithDetails("id", id)
		}
		return errors.Internal("set kyc status", err)
	}
	s.log.WithField("user_id", id).WithField("kyc_status", string(status)).Info("kyc reviewed")
	return nil
}

// Delete removes the customer and all dependent records.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if err == storage.ErrNotFound {
			return errors.NotFound("user not found").WithDetails("id", id)
		}
		return errors.Internal("delete user", err)
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}

// Trades returns every trade on the platform, newest first.
func (s *Service) Trades(ctx context.Context) ([]user.Trade, error) {
	trades, err := s.trades.ListTrades(ctx)
	if err != nil {
		return nil, errors.Internal("list trades", err)
	}
	return trades, nil
}

// OverrideTrade rewrites the settled result of a trade.
func (s *Service) OverrideTrade(ctx context.Context, id int64, result user.TradeResult) error {
	if !result.Valid() {
		return errors.Validation("result must be Win or Loss").WithDetails("result", string(result))
	}
	if err := s.trades.SetTradeResult(ctx, id, result); err != nil {
		if err == storage.ErrNotFound {
			return errors.NotFound("trade not found").WithDetails("id", id)
		}
		return errors.Internal("set trade result", err)
	}
	s.log.WithField("trade_id", id).WithField("result", string(result)).Info("trade result overridden")
	return nil
}
