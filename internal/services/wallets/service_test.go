package wallets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novachain/admin-backend/internal/domain/wallet"
	"github.com/novachain/admin-backend/internal/errors"
	"github.com/novachain/admin-backend/internal/storage/memory"
	"github.com/novachain/admin-backend/pkg/logger"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store, nil, time.Minute, logger.NewDefault("test")), store
}

func TestUpsertAndList(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, &wallet.DepositAddress{
		Coin: "USDT", Network: "TRC20", Address: "Taddr1", QRURL: "/uploads/qr.png",
	}))
	require.NoError(t, s.Upsert(ctx, &wallet.DepositAddress{
		Coin: "BTC", Network: "Bitcoin", Address: "bc1q",
	}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "BTC", list[0].Coin)
	assert.Equal(t, "USDT", list[1].Coin)
}

func TestUpsertKeepsQRWhenOmitted(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, &wallet.DepositAddress{
		Coin: "USDT", Network: "TRC20", Address: "Taddr1", QRURL: "/uploads/qr.png",
	}))
	require.NoError(t, s.Upsert(ctx, &wallet.DepositAddress{
		Coin: "USDT", Network: "TRC20", Address: "Taddr2",
	}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Taddr2", list[0].Address)
	assert.Equal(t, "/uploads/qr.png", list[0].QRURL)
}

func TestUpsertValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	cases := []*wallet.DepositAddress{
		{Network: "TRC20", Address: "x"},
		{Coin: "USDT", Address: "x"},
		{Coin: "USDT", Network: "TRC20"},
	}
	for _, addr := range cases {
		err := s.Upsert(ctx, addr)
		require.Error(t, err)
		se := errors.GetServiceError(err)
		require.NotNil(t, se)
		assert.Equal(t, errors.CodeValidation, se.Code)
	}
}

func TestDeleteMissingEntry(t *testing.T) {
	s, _ := newService(t)

	err := s.Delete(context.Background(), "DOGE", "Dogecoin")
	require.Error(t, err)
	se := errors.GetServiceError(err)
	require.NotNil(t, se)
	assert.Equal(t, errors.CodeNotFound, se.Code)
}
