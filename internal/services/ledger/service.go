// Package ledger implements manual balance adjustments on top of the
// atomic store primitives.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/novachain/admin-backend/internal/domain/ledger"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/metrics"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/pkg/logger"
)

// Operation is one of the manual adjustment verbs.
type Operation string

const (
	OpCredit   Operation = "credit"
	OpDebit    Operation = "debit"
	OpFreeze   Operation = "freeze"
	OpUnfreeze Operation = "unfreeze"
)

// Valid reports whether the operation is known.
func (op Operation) Valid() bool {
	switch op {
	case OpCredit, OpDebit, OpFreeze, OpUnfreeze:
		return true
	}
	return false
}

// Service applies operator-initiated balance adjustments.
type Service struct {
	store storage.LedgerStore
	log   *logger.Logger
}

// NewService creates the ledger service.
func NewService(store storage.LedgerStore, log *logger.Logger) *Service {
	return &Service{store: store, log: log.Named("ledger")}
}

// Balances returns every balance row for the user.
func (s *Service) Balances(ctx context.Context, userID int64) ([]ledger.Balance, error) {
	balances, err := s.store.ListBalances(ctx, userID)
	if err != nil {
		return nil, errors.Internal("list balances", err)
	}
	return balances, nil
}

// Adjust applies one balance mutation. The amount must be strictly positive;
// the direction comes from op.
func (s *Service) Adjust(ctx context.Context, userID int64, coin string, op Operation, amount decimal.Decimal) error {
	if !op.Valid() {
		return errors.Validation("unknown operation").WithDetails("operation", string(op))
	}
	if coin == "" {
		return errors.Validation("coin is required")
	}
	if !amount.IsPositive() {
		return errors.Validation("amount must be positive").WithDetails("amount", amount.String())
	}

	var err error
	switch op {
	case OpCredit:
		err = s.store.Credit(ctx, userID, coin, amount)
	case OpDebit:
		err = s.store.Debit(ctx, userID, coin, amount)
	case OpFreeze:
		err = s.store.Freeze(ctx, userID, coin, amount)
	case OpUnfreeze:
		err = s.store.Unfreeze(ctx, userID, coin, amount)
	}

	if err != nil {
		metrics.RecordLedgerOp(string(op), "rejected")
		if err == storage.ErrInsufficientFunds {
			return errors.InsufficientFunds("insufficient funds").
				WithDetails("user_id", userID).
				WithDetails("coin", coin)
		}
		return errors.Internal("adjust balance", err)
	}

	metrics.RecordLedgerOp(string(op), "applied")
	s.log.WithFields(map[string]interface{}{
		"user_id":   userID,
		"coin":      coin,
		"operation": string(op),
		"amount":    amount.String(),
	}).Info("balance adjusted")
	return nil
}
