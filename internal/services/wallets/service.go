// Package wallets manages the shared deposit-address configuration, with an
// optional Redis read cache in front of the database.
package wallets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/novachain/admin-backend/internal/domain/wallet"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/storage"
	"github.com/novachain/admin-backend/pkg/logger"
)

const cacheKey = "admin:deposit_addresses"

// Service manages deposit addresses. The database stays authoritative; the
// cache only serves List and is invalidated on every write.
type Service struct {
	store    storage.WalletStore
	cache    *redis.Client
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService creates the wallets service. cache may be nil to disable
// caching.
func NewService(store storage.WalletStore, cache *redis.Client, cacheTTL time.Duration, log *logger.Logger) *Service {
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL, log: log.Named("wallets")}
}

// List returns every configured deposit address.
func (s *Service) List(ctx context.Context) ([]wallet.DepositAddress, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []wallet.DepositAddress
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	addrs, err := s.store.ListDepositAddresses(ctx)
	if err != nil {
		return nil, errors.Internal("list deposit addresses", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(addrs); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				s.log.WithError(err).Warn("cache write failed")
			}
		}
	}
	return addrs, nil
}

// Upsert creates or replaces the (coin, network) entry. An empty QR URL
// keeps the previously stored image.
func (s *Service) Upsert(ctx context.Context, addr *wallet.DepositAddress) error {
	if addr.Coin == "" || addr.Network == "" {
		return errors.Validation("coin and network are required")
	}
	if addr.Address == "" {
		return errors.Validation("address is required")
	}

	if err := s.store.UpsertDepositAddress(ctx, addr); err != nil {
		return errors.Internal("upsert deposit address", err)
	}
	s.invalidate(ctx)

	s.log.WithField("coin", addr.Coin).WithField("network", addr.Network).Info("deposit address updated")
	return nil
}

// Delete removes the (coin, network) entry.
func (s *Service) Delete(ctx context.Context, coin, network string) error {
	if err := s.store.DeleteDepositAddress(ctx, coin, network); err != nil {
		if err == storage.ErrNotFound {
			return errors.NotFound("deposit address not found").
				WithDetails("coin", coin).
				WithDetails("network", network)
		}
		return errors.Internal("delete deposit address", err)
	}
	s.invalidate(ctx)

	s.log.WithField("coin", coin).WithField("network", network).Info("deposit address removed")
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.log.WithError(err).Warn("cache invalidation failed")
	}
}
