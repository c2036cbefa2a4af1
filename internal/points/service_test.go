package points

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/event"
	"github.com/osse101/MallLoyalty_Go/internal/testing/memstore"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*service, *memstore.PointsStore, *testClock) {
	t.Helper()
	store := memstore.NewPointsStore()
	clock := &testClock{now: baseTime}
	svc := NewService(store, event.NewMemoryBus(), nil, 0).(*service)
	svc.now = clock.Now
	return svc, store, clock
}

const day = 24 * time.Hour

func TestCredit_CreatesAccountLotAndTransaction(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	txn, err := svc.Credit(ctx, "user-1", 100, domain.TransactionEarning, "Welcome bonus", "reg_user-1")
	require.NoError(t, err)

	assert.Equal(t, 100, txn.Amount)
	assert.Equal(t, 100, txn.BalanceAfter)
	require.NotNil(t, txn.ReferenceID)
	assert.Equal(t, "reg_user-1", *txn.ReferenceID)

	account, ok := store.Account("user-1")
	require.True(t, ok)
	assert.Equal(t, 100, account.AvailablePoints)
	assert.Equal(t, 100, account.TotalPoints)
	assert.Equal(t, 100, account.LifetimeEarned)
	assert.Equal(t, 0, account.LifetimeRedeemed)

	lots := store.Lots("user-1")
	require.Len(t, lots, 1)
	assert.Equal(t, 100, lots[0].RemainingPoints)
	assert.Equal(t, baseTime.Add(domain.DefaultRetentionDays*day), lots[0].ExpiresAt)
	require.NotNil(t, lots[0].TransactionID)
	assert.Equal(t, txn.ID, *lots[0].TransactionID)
}

func TestCredit_Validation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 0, domain.TransactionEarning, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidPointsAmount)

	_, err = svc.Credit(ctx, "user-1", -5, domain.TransactionEarning, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidPointsAmount)

	_, err = svc.Credit(ctx, "user-1", 10, domain.TransactionRedemption, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, ok := store.Account("user-1")
	assert.False(t, ok, "failed credits must not create the account")
}

func TestCredit_DuplicateReference(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 20, domain.TransactionEarning, "Order", "order_7")
	require.NoError(t, err)

	_, err = svc.Credit(ctx, "user-1", 20, domain.TransactionEarning, "Order", "order_7")
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)

	// the same reference under another type is a different business event
	_, err = svc.Credit(ctx, "user-1", 20, domain.TransactionRefund, "Refund", "order_7")
	require.NoError(t, err)

	account, _ := store.Account("user-1")
	assert.Equal(t, 40, account.AvailablePoints)
}

func TestDebit_ConsumesLotsFIFO(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 300, domain.TransactionEarning, "first", "")
	require.NoError(t, err)
	clock.Advance(10 * day)
	_, err = svc.Credit(ctx, "user-1", 800, domain.TransactionEarning, "second", "")
	require.NoError(t, err)

	txn, err := svc.Debit(ctx, "user-1", 500, domain.TransactionRedemption, "Checkout", "discount_1")
	require.NoError(t, err)
	assert.Equal(t, -500, txn.Amount)
	assert.Equal(t, 600, txn.BalanceAfter)
	assert.Equal(t, domain.TransactionRedemption, txn.Type)

	lots := store.Lots("user-1")
	require.Len(t, lots, 2)
	assert.Equal(t, 0, lots[0].RemainingPoints)
	assert.True(t, lots[0].IsFullyRedeemed)
	assert.Equal(t, 600, lots[1].RemainingPoints)
	assert.False(t, lots[1].IsFullyRedeemed)

	account, _ := store.Account("user-1")
	assert.Equal(t, 600, account.AvailablePoints)
	assert.Equal(t, 500, account.LifetimeRedeemed)
	assert.Equal(t, 1100, account.TotalPoints)
}

func TestDebit_InsufficientLeavesStateUntouched(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Debit(ctx, "nobody", 10, domain.TransactionRedemption, "", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)

	_, err = svc.Credit(ctx, "user-1", 300, domain.TransactionEarning, "", "")
	require.NoError(t, err)

	_, err = svc.Debit(ctx, "user-1", 301, domain.TransactionRedemption, "", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)

	_, err = svc.Debit(ctx, "user-1", 0, domain.TransactionRedemption, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidPointsAmount)

	_, err = svc.Debit(ctx, "user-1", 10, domain.TransactionEarning, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	account, _ := store.Account("user-1")
	assert.Equal(t, 300, account.AvailablePoints)
	assert.Equal(t, 300, store.Lots("user-1")[0].RemainingPoints)
	assert.Len(t, store.Transactions("user-1"), 1)
}

func TestDebit_RollsBackOnWriteFailure(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 700, domain.TransactionEarning, "", "")
	require.NoError(t, err)

	store.Fail("InsertTransaction", errors.New("disk full"))
	_, err = svc.Debit(ctx, "user-1", 600, domain.TransactionRedemption, "", "")
	require.Error(t, err)
	store.Fail("InsertTransaction", nil)

	account, _ := store.Account("user-1")
	assert.Equal(t, 700, account.AvailablePoints)
	assert.Equal(t, 700, store.Lots("user-1")[0].RemainingPoints, "lot consumption must roll back with the debit")
}

func TestDebit_SweepsExpiredLotsFirst(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 300, domain.TransactionEarning, "old", "")
	require.NoError(t, err)
	clock.Advance(200 * day)
	_, err = svc.Credit(ctx, "user-1", 200, domain.TransactionEarning, "new", "")
	require.NoError(t, err)
	clock.Advance(200 * day)

	// the 300 lot expired; only 200 are spendable
	_, err = svc.Debit(ctx, "user-1", 250, domain.TransactionRedemption, "", "")
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)

	account, _ := store.Account("user-1")
	assert.Equal(t, 500, account.AvailablePoints, "failed debit rolls back the inline sweep")

	txn, err := svc.Debit(ctx, "user-1", 150, domain.TransactionRedemption, "", "")
	require.NoError(t, err)
	assert.Equal(t, 50, txn.BalanceAfter)

	txns := store.Transactions("user-1")
	require.Len(t, txns, 4)
	assert.Equal(t, domain.TransactionExpiration, txns[2].Type)
	assert.Equal(t, -300, txns[2].Amount)
}

func TestSweepExpired_IsIdempotent(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 120, domain.TransactionEarning, "", "")
	require.NoError(t, err)
	clock.Advance(5 * day)
	_, err = svc.Credit(ctx, "user-1", 80, domain.TransactionEarning, "", "")
	require.NoError(t, err)
	clock.Advance(30 * day)
	_, err = svc.Credit(ctx, "user-1", 50, domain.TransactionEarning, "", "")
	require.NoError(t, err)

	// partially spend the oldest lot so only its remainder expires
	_, err = svc.Debit(ctx, "user-1", 20, domain.TransactionRedemption, "", "")
	require.NoError(t, err)

	clock.Advance(340 * day)
	expired, err := svc.SweepExpired(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 180, expired)

	account, _ := store.Account("user-1")
	assert.Equal(t, 50, account.AvailablePoints)

	var expirations []domain.PointsTransaction
	for _, txn := range store.Transactions("user-1") {
		if txn.Type == domain.TransactionExpiration {
			expirations = append(expirations, txn)
		}
	}
	require.Len(t, expirations, 2, "one expiration entry per lot")
	assert.Equal(t, -100, expirations[0].Amount)
	assert.Equal(t, "Points expired from 2025-03-01", expirations[0].Description)
	require.NotNil(t, expirations[0].ReferenceID)
	assert.Equal(t, "exp_1", *expirations[0].ReferenceID)
	assert.Equal(t, -80, expirations[1].Amount)

	again, err := svc.SweepExpired(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, again)
	account, _ = store.Account("user-1")
	assert.Equal(t, 50, account.AvailablePoints)
}

func TestSweepExpired_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	n, err := svc.SweepExpired(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepAllExpired(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	for _, user := range []string{"a", "b", "c"} {
		_, err := svc.Credit(ctx, user, 100, domain.TransactionEarning, "", "")
		require.NoError(t, err)
	}
	clock.Advance(300 * day)
	_, err := svc.Credit(ctx, "c", 40, domain.TransactionEarning, "", "")
	require.NoError(t, err)
	clock.Advance(100 * day)

	report, err := svc.SweepAllExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Accounts)
	assert.Equal(t, 300, report.PointsExpired)
	assert.Empty(t, report.Failed)

	c, _ := store.Account("c")
	assert.Equal(t, 40, c.AvailablePoints)

	report, err = svc.SweepAllExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Accounts)
}

func TestSweepAllExpired_ContinuesPastFailures(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "a", 100, domain.TransactionEarning, "", "")
	require.NoError(t, err)
	clock.Advance(400 * day)

	store.Fail("BeginTx", errors.New("connection reset"))
	report, err := svc.SweepAllExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, report.Failed)
	store.Fail("BeginTx", nil)

	store.Fail("ListUsersWithExpiredLots", errors.New("timeout"))
	_, err = svc.SweepAllExpired(ctx)
	assert.Error(t, err)
}

func TestCreditDebit_RoundTrip(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 900, domain.TransactionEarning, "", "")
	require.NoError(t, err)
	before, _ := store.Account("user-1")

	_, err = svc.Credit(ctx, "user-1", 650, domain.TransactionAdjustment, "goodwill", "")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, "user-1", 650, domain.TransactionAdjustment, "reversal", "")
	require.NoError(t, err)

	after, _ := store.Account("user-1")
	assert.Equal(t, before.AvailablePoints, after.AvailablePoints)

	remaining := 0
	for _, lot := range store.Lots("user-1") {
		remaining += lot.RemainingPoints
	}
	assert.Equal(t, after.AvailablePoints, remaining, "balance equals the sum of lot remainders")
}

func TestDebit_ConcurrentRedemptions(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Credit(ctx, "user-1", 1000, domain.TransactionEarning, "", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Debit(ctx, "user-1", 100, domain.TransactionRedemption, "", ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	account, _ := store.Account("user-1")
	assert.Equal(t, 0, account.AvailablePoints)
	assert.Equal(t, 1000, account.LifetimeRedeemed)
}

func TestMaxRedeemable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.MaxRedeemable(ctx, "nobody", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = svc.Credit(ctx, "user-1", 2000, domain.TransactionEarning, "", "")
	require.NoError(t, err)

	got, err = svc.MaxRedeemable(ctx, "user-1", decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.Equal(t, 1500, got)
}

func TestGetSummary(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	summary, err := svc.GetSummary(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, summary.AvailablePoints)
	assert.NotNil(t, summary.RecentTransactions)

	_, err = svc.Credit(ctx, "user-1", 300, domain.TransactionEarning, "", "")
	require.NoError(t, err)
	clock.Advance(100 * day)
	_, err = svc.Credit(ctx, "user-1", 200, domain.TransactionEarning, "", "")
	require.NoError(t, err)

	// 340 days after the first credit, only the first lot expires within 30 days
	clock.Advance(240 * day)
	summary, err = svc.GetSummary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 500, summary.AvailablePoints)
	assert.Equal(t, 300, summary.ExpiringSoon)
	require.Len(t, summary.RecentTransactions, 2)
	assert.Equal(t, 200, summary.RecentTransactions[0].Amount, "newest first")
}

func TestGetTransactions_Limits(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Credit(ctx, "user-1", 10, domain.TransactionEarning, "", "")
		require.NoError(t, err)
	}

	txns, err := svc.GetTransactions(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.Len(t, txns, 3)

	txns, err = svc.GetTransactions(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, txns, 5)

	txns, err = svc.GetTransactions(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestLedgerPublishesEvents(t *testing.T) {
	store := memstore.NewPointsStore()
	bus := event.NewMemoryBus()
	svc := NewService(store, bus, nil, 0)
	ctx := context.Background()

	var mu sync.Mutex
	seen := map[event.Type]int{}
	record := func(ctx context.Context, evt event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen[evt.Type]++
		return nil
	}
	bus.Subscribe(event.PointsCredited, record)
	bus.Subscribe(event.PointsDebited, record)

	_, err := svc.Credit(ctx, "user-1", 800, domain.TransactionEarning, "", "")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, "user-1", 500, domain.TransactionRedemption, "", "")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, "user-1", 500, domain.TransactionRedemption, "", "")
	require.Error(t, err)

	assert.Equal(t, 1, seen[event.PointsCredited])
	assert.Equal(t, 1, seen[event.PointsDebited], "failed debits publish nothing")
}

func TestFindByReference(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	txn, err := svc.FindByReference(ctx, "nobody", domain.TransactionEarning, "order_1")
	require.NoError(t, err)
	assert.Nil(t, txn)

	_, err = svc.Credit(ctx, "user-1", 700, domain.TransactionEarning, "Purchase", "order_1")
	require.NoError(t, err)

	txn, err = svc.FindByReference(ctx, "user-1", domain.TransactionEarning, "order_1")
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, 700, txn.Amount)

	txn, err = svc.FindByReference(ctx, "user-1", domain.TransactionRefund, "order_1")
	require.NoError(t, err)
	assert.Nil(t, txn, "type is part of the reference key")
}

// BenchmarkDebit_FIFO consumes 500 points spread over 50 lots per iteration
func BenchmarkDebit_FIFO(b *testing.B) {
	ctx := context.Background()
	svc := NewService(memstore.NewPointsStore(), nil, nil, 0).(*service)
	svc.now = func() time.Time { return baseTime }

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		userID := fmt.Sprintf("bench-%d", i)
		for lot := 0; lot < 50; lot++ {
			if _, err := svc.Credit(ctx, userID, 10, domain.TransactionEarning, "bench", fmt.Sprintf("order_%d_%d", i, lot)); err != nil {
				b.Fatal(err)
			}
		}
		b.StartTimer()

		if _, err := svc.Debit(ctx, userID, 500, domain.TransactionRedemption, "bench", fmt.Sprintf("discount_%d", i)); err != nil {
			b.Fatal(err)
		}
	}
}
