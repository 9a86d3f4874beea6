// Package approvals implements the deposit and withdrawal review workflow.
package approvals

import (
	"context"

	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/metrics"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/pkg/logger"
)

// Service finalizes deposit and withdrawal requests. Decisions are
// exactly-once: retries and races surface as conflicts, never as double
// ledger mutations.
type Service struct {
	store storage.RequestStore
	log   *logger.Logger
}

// NewService creates the approvals service.
func NewService(store storage.RequestStore, log *logger.Logger) *Service {
	return &Service{store: store, log: log.Named("approvals")}
}

// Deposits lists deposit requests, optionally filtered by status.
func (s *Service) Deposits(ctx context.Context, status request.Status) ([]request.Deposit, error) {
	deposits, err := s.store.ListDeposits(ctx, status)
	if err != nil {
		return nil, errors.Internal("list deposits", err)
	}
	return deposits, nil
}

// Withdrawals lists withdrawal requests, optionally filtered by status.
func (s *Service) Withdrawals(ctx context.Context, status request.Status) ([]request.Withdrawal, error) {
	withdrawals, err := s.store.ListWithdrawals(ctx, status)
	if err != nil {
		return nil, errors.Internal("list withdrawals", err)
	}
	return withdrawals, nil
}

// Decide finalizes one request. Approving a deposit credits the user;
// approving a withdrawal debits the user; denial never touches the ledger.
func (s *Service) Decide(ctx context.Context, kind request.Kind, id int64, approve bool) error {
	if !kind.Valid() {
		return errors.Validation("unknown request kind").WithDetails("kind", string(kind))
	}

	var err error
	switch {
	case kind == request.KindDeposit && approve:
		err = s.store.ApproveDeposit(ctx, id)
	case kind == request.KindDeposit:
		err = s.store.DenyDeposit(ctx, id)
	case approve:
		err = s.store.ApproveWithdrawal(ctx, id)
	default:
		err = s.store.DenyWithdrawal(ctx, id)
	}

	decision := "denied"
	if approve {
		decision = "approved"
	}

	if err != nil {
		switch err {
		case storage.ErrNotFound:
			return errors.NotFound("request not found").WithDetails("id", id)
		case storage.ErrAlreadyFinalized:
			return errors.AlreadyFinalized("request already finalized").WithDetails("id", id)
		case storage.ErrInsufficientFunds:
			return errors.InsufficientFunds("user balance cannot cover the withdrawal").WithDetails("id", id)
		}
		return errors.Internal("finalize request", err)
	}

	metrics.RecordApproval(string(kind), decision)
	s.log.WithFields(map[string]interface{}{
		"kind":     string(kind),
		"id":       id,
		"decision": decision,
	}).Info("request finalized")
	return nil
}
