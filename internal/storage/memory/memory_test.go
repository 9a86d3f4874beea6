package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novachain/admin-backend/internal/domain/request"
	"github.com/novachain/admin-backend/internal/domain/user"
	"github.com/novachain/admin-backend/internal/domain/wallet"
	"github.com/novachain/admin-backend/internal/storage"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedUser(t *testing.T, s *Store) *user.User {
	t.Helper()
	u := &user.User{Email: "alice@example.com", Username: "alice", Status: user.StatusActive, KYCStatus: user.KYCPending}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestDebitInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("100")))

	err := s.Debit(ctx, u.ID, "USDT", dec("150"))
	require.ErrorIs(t, err, storage.ErrInsufficientFunds)

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(dec("100")), "failed debit must not change the balance")
}

func TestDebitUnknownCoin(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	err := s.Debit(ctx, u.ID, "BTC", dec("1"))
	assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
}

func TestFreezeConservesTotal(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("100")))
	require.NoError(t, s.Freeze(ctx, u.ID, "USDT", dec("40")))

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(dec("60")))
	assert.True(t, balances[0].Frozen.Equal(dec("40")))

	require.NoError(t, s.Unfreeze(ctx, u.ID, "USDT", dec("40")))
	balances, err = s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balances[0].Balance.Equal(dec("100")))
	assert.True(t, balances[0].Frozen.Equal(decimal.Zero))
}

func TestUnfreezeMoreThanFrozen(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("100")))
	require.NoError(t, s.Freeze(ctx, u.ID, "USDT", dec("10")))

	err := s.Unfreeze(ctx, u.ID, "USDT", dec("20"))
	assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
}

func TestConcurrentDebitsNeverGoNegative(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("100")))

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Debit(ctx, u.ID, "USDT", dec("10")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded, "exactly ten 10-unit debits fit in 100")

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balances[0].Balance.Equal(decimal.Zero))
	assert.False(t, balances[0].Balance.IsNegative())
}

func TestApproveDepositCreditsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	d := &request.Deposit{UserID: u.ID, Coin: "USDT", Amount: dec("250")}
	require.NoError(t, s.CreateDeposit(ctx, d))

	require.NoError(t, s.ApproveDeposit(ctx, d.ID))

	err := s.ApproveDeposit(ctx, d.ID)
	require.ErrorIs(t, err, storage.ErrAlreadyFinalized)

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.Equal(dec("250")), "retried approval must not credit twice")
}

func TestConcurrentWithdrawalApprovalExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("500")))
	w := &request.Withdrawal{UserID: u.ID, Coin: "USDT", Amount: dec("500")}
	require.NoError(t, s.CreateWithdrawal(ctx, w))

	const racers = 20
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.ApproveWithdrawal(ctx, w.ID)
		}()
	}
	wg.Wait()
	close(errs)

	wins, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case err == storage.ErrAlreadyFinalized:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balances[0].Balance.Equal(decimal.Zero), "the balance is debited exactly once")
}

func TestApproveWithdrawalInsufficientFundsLeavesPending(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("50")))
	w := &request.Withdrawal{UserID: u.ID, Coin: "USDT", Amount: dec("80")}
	require.NoError(t, s.CreateWithdrawal(ctx, w))

	err := s.ApproveWithdrawal(ctx, w.ID)
	require.ErrorIs(t, err, storage.ErrInsufficientFunds)

	pending, err := s.ListWithdrawals(ctx, request.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1, "failed approval leaves the request pending")

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balances[0].Balance.Equal(dec("50")))
}

func TestDenyThenApprove(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	d := &request.Deposit{UserID: u.ID, Coin: "USDT", Amount: dec("10")}
	require.NoError(t, s.CreateDeposit(ctx, d))
	require.NoError(t, s.DenyDeposit(ctx, d.ID))

	err := s.ApproveDeposit(ctx, d.ID)
	require.ErrorIs(t, err, storage.ErrAlreadyFinalized)

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, balances, "denied deposit never touches the ledger")
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)
	other := &user.User{Email: "bob@example.com", Username: "bob", Status: user.StatusActive}
	require.NoError(t, s.CreateUser(ctx, other))

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("100")))
	require.NoError(t, s.Credit(ctx, other.ID, "USDT", dec("7")))
	require.NoError(t, s.CreateDeposit(ctx, &request.Deposit{UserID: u.ID, Coin: "USDT", Amount: dec("1")}))
	require.NoError(t, s.CreateWithdrawal(ctx, &request.Withdrawal{UserID: u.ID, Coin: "USDT", Amount: dec("1")}))
	require.NoError(t, s.CreateTrade(ctx, &user.Trade{UserID: u.ID, Direction: "buy", Amount: dec("5"), Result: user.TradeWin}))
	require.NoError(t, s.SetTradeMode(ctx, u.ID, user.TradeModeWin))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err := s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	balances, err := s.ListBalances(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, balances)

	deposits, err := s.ListDeposits(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, deposits)

	withdrawals, err := s.ListWithdrawals(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, withdrawals)

	trades, err := s.ListTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, trades)

	mode, err := s.GetTradeMode(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, mode)

	// unrelated rows survive
	otherBalances, err := s.ListBalances(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, otherBalances, 1)
	assert.True(t, otherBalances[0].Balance.Equal(dec("7")))
}

func TestDeleteUserNotFound(t *testing.T) {
	s := NewStore()
	err := s.DeleteUser(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListUsersAggregatesBalances(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := seedUser(t, s)

	require.NoError(t, s.Credit(ctx, u.ID, "USDT", dec("100")))
	require.NoError(t, s.Credit(ctx, u.ID, "BTC", dec("2")))
	require.NoError(t, s.Freeze(ctx, u.ID, "USDT", dec("30")))
	require.NoError(t, s.SetTradeMode(ctx, u.ID, user.TradeModeLose))

	list, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Balance.Equal(dec("72")), "available across coins: 70 USDT + 2 BTC")
	assert.True(t, list[0].Frozen.Equal(dec("30")))
	assert.Equal(t, "LOSE", list[0].TradeMode)
}

func TestUpsertDepositAddressKeepsQR(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := &wallet.DepositAddress{Coin: "USDT", Network: "TRC20", Address: "Taddr1", QRURL: "/uploads/qr1.png"}
	require.NoError(t, s.UpsertDepositAddress(ctx, first))

	// rotate the address without re-uploading the QR image
	second := &wallet.DepositAddress{Coin: "USDT", Network: "TRC20", Address: "Taddr2"}
	require.NoError(t, s.UpsertDepositAddress(ctx, second))

	list, err := s.ListDepositAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Taddr2", list[0].Address)
	assert.Equal(t, "/uploads/qr1.png", list[0].QRURL)
}

func TestDeleteDepositAddress(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.UpsertDepositAddress(ctx, &wallet.DepositAddress{Coin: "BTC", Network: "Bitcoin", Address: "bc1q"}))
	require.NoError(t, s.DeleteDepositAddress(ctx, "BTC", "Bitcoin"))

	err := s.DeleteDepositAddress(ctx, "BTC", "Bitcoin")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.GetSetting(ctx, "auto_winning")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SetSetting(ctx, "auto_winning", "true"))
	v, err := s.GetSetting(ctx, "auto_winning")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}
