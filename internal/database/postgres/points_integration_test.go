package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/MallLoyalty_Go/internal/concurrency"
	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

func TestPointsRepository_Integration(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()
	repo := NewPointsRepository(pool)

	t.Run("account created once under lock", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer repository.SafeRollback(ctx, tx)

		first, err := tx.GetOrCreateAccountForUpdate(ctx, "pg-acct")
		require.NoError(t, err)
		second, err := tx.GetOrCreateAccountForUpdate(ctx, "pg-acct")
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, first.ID, second.ID)
		assert.Zero(t, first.AvailablePoints)

		got, err := repo.GetAccount(ctx, "pg-acct")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("missing account is nil", func(t *testing.T) {
		got, err := repo.GetAccount(ctx, "pg-nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate reference maps to domain error", func(t *testing.T) {
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer repository.SafeRollback(ctx, tx)

		acct, err := tx.GetOrCreateAccountForUpdate(ctx, "pg-dup")
		require.NoError(t, err)

		txn := &domain.PointsTransaction{AccountID: acct.ID, Type: domain.TransactionEarning, Amount: 10, BalanceAfter: 10, ReferenceID: domain.Ref("order_1")}
		require.NoError(t, tx.InsertTransaction(ctx, txn))
		assert.NotZero(t, txn.ID)

		exists, err := tx.ReferenceExists(ctx, acct.ID, domain.TransactionEarning, "order_1")
		require.NoError(t, err)
		assert.True(t, exists)

		// same reference under another type is allowed
		refund := &domain.PointsTransaction{AccountID: acct.ID, Type: domain.TransactionRefund, Amount: 5, BalanceAfter: 15, ReferenceID: domain.Ref("order_1")}
		require.NoError(t, tx.InsertTransaction(ctx, refund))
		require.NoError(t, tx.Commit(ctx))

		tx2, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer repository.SafeRollback(ctx, tx2)
		dup := &domain.PointsTransaction{AccountID: acct.ID, Type: domain.TransactionEarning, Amount: 10, BalanceAfter: 25, ReferenceID: domain.Ref("order_1")}
		assert.ErrorIs(t, tx2.InsertTransaction(ctx, dup), domain.ErrDuplicateReference)

		found, err := repo.FindTransaction(ctx, acct.ID, domain.TransactionRefund, "order_1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, 5, found.Amount)
	})

	t.Run("lots ordered by expiry", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer repository.SafeRollback(ctx, tx)

		acct, err := tx.GetOrCreateAccountForUpdate(ctx, "pg-lots")
		require.NoError(t, err)
		for _, l := range []domain.PointsLot{
			{AccountID: acct.ID, PointsAmount: 30, RemainingPoints: 30, EarnedAt: now, ExpiresAt: now.Add(48 * time.Hour)},
			{AccountID: acct.ID, PointsAmount: 20, RemainingPoints: 20, EarnedAt: now, ExpiresAt: now.Add(24 * time.Hour)},
			{AccountID: acct.ID, PointsAmount: 10, RemainingPoints: 10, EarnedAt: now, ExpiresAt: now.Add(-time.Hour)},
		} {
			require.NoError(t, tx.InsertLot(ctx, &l))
		}

		spendable, err := tx.SpendableLotsForUpdate(ctx, acct.ID, now)
		require.NoError(t, err)
		require.Len(t, spendable, 2)
		assert.Equal(t, 20, spendable[0].RemainingPoints)
		assert.Equal(t, 30, spendable[1].RemainingPoints)

		expired, err := tx.ExpiredLotsForUpdate(ctx, acct.ID, now)
		require.NoError(t, err)
		require.Len(t, expired, 1)

		expired[0].RemainingPoints = 0
		expired[0].IsExpired = true
		require.NoError(t, tx.UpdateLot(ctx, &expired[0]))
		require.NoError(t, tx.Commit(ctx))

		soon, err := repo.SumExpiring(ctx, acct.ID, now, now.Add(30*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 20, soon)

		users, err := repo.ListUsersWithExpiredLots(ctx, now)
		require.NoError(t, err)
		assert.NotContains(t, users, "pg-lots")
	})

	t.Run("rules upsert by type", func(t *testing.T) {
		minOrder := decimal.RequireFromString("10.00")
		maxPts := 500
		rule := &domain.PointsRule{RuleType: domain.RulePurchase, PointsAmount: 1, IsPercentage: true, MinOrderAmount: &minOrder, MaxPointsPerTransaction: &maxPts, IsActive: true, Description: "Purchase"}
		require.NoError(t, repo.UpsertRule(ctx, rule))
		firstID := rule.ID

		rule.PointsAmount = 2
		require.NoError(t, repo.UpsertRule(ctx, rule))
		assert.Equal(t, firstID, rule.ID)

		got, err := repo.GetActiveRule(ctx, domain.RulePurchase)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 2, got.PointsAmount)
		require.NotNil(t, got.MinOrderAmount)
		assert.True(t, got.MinOrderAmount.Equal(minOrder))

		none, err := repo.GetActiveRule(ctx, domain.RuleBirthday)
		require.NoError(t, err)
		assert.Nil(t, none)
	})
}

// TestPointsService_ConcurrentDebits_Integration verifies row locks keep the
// balance consistent when several processes spend from one account.
func TestPointsService_ConcurrentDebits_Integration(t *testing.T) {
	pool := requireDB(t)
	ctx := context.Background()

	// separate lock managers simulate separate processes
	credit := points.NewService(NewPointsRepository(pool), nil, concurrency.NewLockManager(), 0)
	_, err := credit.Credit(ctx, "pg-race", 1000, domain.TransactionEarning, "seed", "seed_1")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc := points.NewService(NewPointsRepository(pool), nil, concurrency.NewLockManager(), 0)
			if _, err := svc.Debit(ctx, "pg-race", 200, domain.TransactionRedemption, "spend", ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	acct, err := credit.GetAccount(ctx, "pg-race")
	require.NoError(t, err)
	assert.Zero(t, acct.AvailablePoints)
	assert.Equal(t, 1000, acct.LifetimeRedeemed)

	lots, err := credit.GetLots(ctx, "pg-race")
	require.NoError(t, err)
	for _, l := range lots {
		assert.Zero(t, l.RemainingPoints)
		assert.True(t, l.IsFullyRedeemed)
	}
}
