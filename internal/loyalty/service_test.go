package loyalty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/testing/memstore"
	"github.com/osse101/MallLoyalty_Go/internal/tier"
)

type fixture struct {
	svc        Service
	points     points.Service
	membership membership.Service
	pointsDB   *memstore.PointsStore
	members    *memstore.MembershipStore
	orders     *memstore.OrderStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		pointsDB: memstore.NewPointsStore(),
		members:  memstore.NewMembershipStore(),
		orders:   memstore.NewOrderStore(),
	}
	f.points = points.NewService(f.pointsDB, nil, nil, 0)
	f.membership = membership.NewService(f.members, tier.DefaultCatalog(), nil, nil)
	f.svc = NewService(f.points, f.membership, f.orders)

	rules, err := points.LoadRules("../../"+points.ConfigPathRules, "", nil)
	require.NoError(t, err)
	require.NoError(t, f.points.SyncRules(context.Background(), rules))
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) available(t *testing.T, userID string) int {
	t.Helper()
	a, ok := f.pointsDB.Account(userID)
	if !ok {
		return 0
	}
	return a.AvailablePoints
}

func (f *fixture) putMember(name domain.TierName, spending string) {
	f.members.Put(domain.MembershipAccount{
		UserID:             "user-1",
		Tier:               name,
		CumulativeSpending: dec(spending),
		TierStartedAt:      time.Now(),
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	})
}

func TestHandleOrderCompletion_NoMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("250.00"), 1, false)
	require.NoError(t, err)
	require.NoError(t, c.Err())

	assert.True(t, c.Multiplier.Equal(decimal.NewFromInt(1)))
	require.Len(t, c.Transactions, 1)
	assert.Equal(t, 2, c.Transactions[0].Amount)
	require.NotNil(t, c.Transactions[0].ReferenceID)
	assert.Equal(t, "order_1", *c.Transactions[0].ReferenceID)

	// spending update opens the membership
	require.NotNil(t, c.Spending)
	assert.Equal(t, domain.TierBronze, c.Spending.Tier.Name)
}

func TestHandleOrderCompletion_SilverWithFirstPurchase(t *testing.T) {
	f := newFixture(t)
	f.putMember(domain.TierSilver, "1000")
	ctx := context.Background()

	c, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("250.00"), 7, true)
	require.NoError(t, err)
	require.NoError(t, c.Err())

	assert.True(t, c.Multiplier.Equal(dec("1.2")))
	require.Len(t, c.Transactions, 2)
	assert.Equal(t, 3, c.Transactions[0].Amount)
	assert.Equal(t, "Purchase points ($250.00 x 1.2)", c.Transactions[0].Description)
	assert.Equal(t, 200, c.Transactions[1].Amount)
	assert.Equal(t, "first_purchase_7", *c.Transactions[1].ReferenceID)
	assert.Equal(t, 203, f.available(t, "user-1"))

	require.NotNil(t, c.Spending)
	assert.False(t, c.Spending.Changed)
	assert.True(t, c.Spending.Account.CumulativeSpending.Equal(dec("1250")))
}

func TestHandleOrderCompletion_UpgradeAfterAward(t *testing.T) {
	f := newFixture(t)
	f.putMember(domain.TierBronze, "950")

	c, err := f.svc.HandleOrderCompletion(context.Background(), "user-1", dec("100.00"), 2, false)
	require.NoError(t, err)

	// points use the tier held when the order was placed
	require.Len(t, c.Transactions, 1)
	assert.Equal(t, 1, c.Transactions[0].Amount)
	require.NotNil(t, c.Spending)
	assert.True(t, c.Spending.Upgraded)
	assert.Equal(t, domain.TierSilver, c.Spending.Tier.Name)
}

func TestHandleOrderCompletion_RepeatIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("500.00"), 3, true)
	require.NoError(t, err)
	before := f.available(t, "user-1")

	c, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("500.00"), 3, true)
	require.NoError(t, err)
	require.NoError(t, c.Err())
	assert.Empty(t, c.Transactions)
	assert.ElementsMatch(t, []string{"order_3", "first_purchase_3", "spending_3"}, c.Skipped)
	assert.Nil(t, c.Spending, "spending is not counted twice")
	assert.Equal(t, before, f.available(t, "user-1"))

	status, err := f.membership.Status(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, status.Account.CumulativeSpending.Equal(dec("500")))
}

func (f *fixture) spending(t *testing.T) decimal.Decimal {
	t.Helper()
	status, err := f.membership.Status(context.Background(), "user-1")
	require.NoError(t, err)
	return status.Account.CumulativeSpending
}

// Orders that credit no purchase points still count spending once
func TestHandleOrderCompletion_RepeatCountsSpendingOnce(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
	}{
		{"order below one point", func(t *testing.T, f *fixture) {}},
		{"inactive purchase rule", func(t *testing.T, f *fixture) {
			require.NoError(t, f.points.SyncRules(context.Background(), []domain.PointsRule{
				{RuleType: domain.RulePurchase, PointsAmount: 1, IsPercentage: true, IsActive: false},
			}))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)
			ctx := context.Background()

			for run := 0; run < 2; run++ {
				c, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("50.00"), 9, false)
				require.NoError(t, err)
				require.NoError(t, c.Err())
				assert.Empty(t, c.Transactions)
				if run == 0 {
					require.NotNil(t, c.Spending)
				} else {
					assert.Nil(t, c.Spending)
					assert.Equal(t, []string{"spending_9"}, c.Skipped)
				}
			}
			assert.True(t, f.spending(t).Equal(dec("50")), "got %s", f.spending(t))
		})
	}
}

func TestHandleOrderCompletion_RetryAfterFailedPurchaseStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.pointsDB.Fail("BeginTx", errors.New("points db down"))
	c, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("300.00"), 11, false)
	require.NoError(t, err)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, StepPurchasePoints, c.Errors[0].Step)
	require.NotNil(t, c.Spending)

	f.pointsDB.Fail("BeginTx", nil)
	c, err = f.svc.HandleOrderCompletion(ctx, "user-1", dec("300.00"), 11, false)
	require.NoError(t, err)
	require.NoError(t, c.Err())
	require.Len(t, c.Transactions, 1, "the retry awards the missing points")
	assert.Equal(t, 3, c.Transactions[0].Amount)
	assert.Equal(t, []string{"spending_11"}, c.Skipped)

	assert.True(t, f.spending(t).Equal(dec("300")), "got %s", f.spending(t))
	assert.Equal(t, 3, f.available(t, "user-1"))
}

func TestHandleOrderCompletion_RoundsAmountToCents(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.HandleOrderCompletion(context.Background(), "user-1", dec("19.999"), 12, false)
	require.NoError(t, err)
	require.NoError(t, c.Err())
	assert.True(t, f.spending(t).Equal(dec("20.00")))
}

func TestHandleOrderCompletion_MissingRuleAwardsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.points.SyncRules(ctx, []domain.PointsRule{{RuleType: domain.RulePurchase, PointsAmount: 1, IsPercentage: true, IsActive: false}}))

	c, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("250.00"), 4, false)
	require.NoError(t, err)
	assert.Empty(t, c.Transactions)
	assert.Empty(t, c.Errors)
	require.NotNil(t, c.Spending)
}

func TestHandleOrderCompletion_StepsAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.members.Fail("GetMembership", errors.New("membership db down"))
	f.members.Fail("BeginTx", errors.New("membership db down"))

	c, err := f.svc.HandleOrderCompletion(ctx, "user-1", dec("250.00"), 5, false)
	require.NoError(t, err)

	require.Len(t, c.Transactions, 1, "points still awarded at the default multiplier")
	assert.Equal(t, 2, c.Transactions[0].Amount)

	require.Len(t, c.Errors, 2)
	assert.Equal(t, StepMembershipLookup, c.Errors[0].Step)
	assert.Equal(t, StepSpendingUpdate, c.Errors[1].Step)
	assert.Contains(t, c.Err().Error(), "membership db down")
}

func TestHandleOrderCompletion_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.HandleOrderCompletion(context.Background(), "", dec("1"), 1, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.HandleOrderCompletion(context.Background(), "user-1", dec("-1"), 1, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHandleUserRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.HandleUserRegistration(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierBronze, reg.Membership.Tier)
	require.NotNil(t, reg.Bonus)
	assert.Equal(t, 100, reg.Bonus.Amount)
	assert.Equal(t, "reg_user-1", *reg.Bonus.ReferenceID)
	assert.Equal(t, 100, reg.Account.AvailablePoints)

	again, err := f.svc.HandleUserRegistration(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, again.Bonus)
	assert.Equal(t, 100, f.available(t, "user-1"))
	assert.Len(t, f.members.Changes("user-1"), 1)
}

func TestValidatePointsRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.points.Credit(ctx, "user-1", 1000, domain.TransactionEarning, "seed", "")
	require.NoError(t, err)

	check, err := f.svc.ValidatePointsRedemption(ctx, "user-1", 600, dec("20.00"))
	require.NoError(t, err)
	assert.True(t, check.IsValid)
	assert.Empty(t, check.Errors)
	assert.Equal(t, 1000, check.MaxRedeemable)
	assert.True(t, dec("6").Equal(check.DiscountAmount))

	check, err = f.svc.ValidatePointsRedemption(ctx, "user-1", 400, dec("20.00"))
	require.NoError(t, err)
	assert.False(t, check.IsValid)
	assert.Equal(t, []string{"Minimum redemption is 500 points"}, check.Errors)
	assert.ErrorIs(t, check.Err(), domain.ErrBelowMinimumRedemption)
	assert.True(t, check.DiscountAmount.IsZero())

	check, err = f.svc.ValidatePointsRedemption(ctx, "user-1", 1200, dec("20.00"))
	require.NoError(t, err)
	assert.False(t, check.IsValid)
	assert.Equal(t, []string{
		"Insufficient points. Available: 1000",
		"Maximum redeemable points for this order: 1000",
	}, check.Errors)

	check, err = f.svc.ValidatePointsRedemption(ctx, "stranger", 600, dec("20.00"))
	require.NoError(t, err)
	assert.False(t, check.IsValid)
	assert.Equal(t, 0, check.MaxRedeemable)
}

func TestRedeemForOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.points.Credit(ctx, "user-1", 1000, domain.TransactionEarning, "seed", "")
	require.NoError(t, err)
	f.orders.PutOrder(5, dec("20.00"))

	red, err := f.svc.RedeemForOrder(ctx, "user-1", 5, 600, dec("999"))
	require.NoError(t, err)
	assert.True(t, dec("14.00").Equal(red.OrderAmount))
	assert.Equal(t, -600, red.Transaction.Amount)
	assert.Equal(t, "Redeemed for $6.00 discount", red.Transaction.Description)
	assert.Equal(t, domain.DiscountPointsRedemption, red.Discount.Type)

	amount, _ := f.orders.Amount(5)
	assert.True(t, dec("14.00").Equal(amount))
	discounts, err := f.orders.ListDiscounts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.True(t, dec("6").Equal(discounts[0].Amount))
	assert.Equal(t, 400, f.available(t, "user-1"))

	// one redemption per order
	_, err = f.svc.RedeemForOrder(ctx, "user-1", 5, 500, decimal.Zero)
	assert.Error(t, err)
}

func TestRedeemForOrder_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.points.Credit(ctx, "user-1", 1000, domain.TransactionEarning, "seed", "")
	require.NoError(t, err)
	f.orders.PutOrder(5, dec("20.00"))

	_, err = f.svc.RedeemForOrder(ctx, "user-1", 5, 400, dec("20.00"))
	assert.ErrorIs(t, err, domain.ErrBelowMinimumRedemption)
	assert.Equal(t, 1000, f.available(t, "user-1"))

	_, err = f.svc.RedeemForOrder(ctx, "user-1", 99, 600, dec("20.00"))
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRedeemForOrder_CompensatesFailedDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.points.Credit(ctx, "user-1", 1000, domain.TransactionEarning, "seed", "")
	require.NoError(t, err)
	f.orders.PutOrder(5, dec("20.00"))
	f.orders.Fail("InsertDiscount", errors.New("constraint violation"))

	_, err = f.svc.RedeemForOrder(ctx, "user-1", 5, 600, dec("20.00"))
	require.Error(t, err)

	assert.Equal(t, 1000, f.available(t, "user-1"))
	txns := f.pointsDB.Transactions("user-1")
	require.Len(t, txns, 3)
	assert.Equal(t, domain.TransactionRedemption, txns[1].Type)
	assert.Equal(t, domain.TransactionRefund, txns[2].Type)
	assert.Equal(t, 600, txns[2].Amount)

	amount, _ := f.orders.Amount(5)
	assert.True(t, dec("20.00").Equal(amount))
}

func TestRedeemForOrder_WithoutOrderRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewService(f.points, f.membership, nil)
	_, err := f.points.Credit(ctx, "user-1", 1000, domain.TransactionEarning, "seed", "")
	require.NoError(t, err)

	red, err := svc.RedeemForOrder(ctx, "user-1", 8, 500, dec("10.00"))
	require.NoError(t, err)
	assert.True(t, dec("5.00").Equal(red.OrderAmount))
	assert.Zero(t, red.Discount.ID)
}

func TestRefundRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.points.Credit(ctx, "user-1", 1000, domain.TransactionEarning, "seed", "")
	require.NoError(t, err)
	f.orders.PutOrder(5, dec("20.00"))

	_, err = f.svc.RefundRedemption(ctx, "user-1", 5)
	assert.ErrorIs(t, err, domain.ErrRedemptionNotFound)

	_, err = f.svc.RedeemForOrder(ctx, "user-1", 5, 600, dec("20.00"))
	require.NoError(t, err)

	txn, err := f.svc.RefundRedemption(ctx, "user-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 600, txn.Amount)
	assert.Equal(t, domain.TransactionRefund, txn.Type)
	assert.Equal(t, 1000, f.available(t, "user-1"))

	_, err = f.svc.RefundRedemption(ctx, "user-1", 5)
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestAwards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.svc.AwardReview(ctx, "user-1", 42)
	require.NoError(t, err)
	assert.Equal(t, 50, txn.Amount)
	_, err = f.svc.AwardReview(ctx, "user-1", 42)
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	_, err = f.svc.AwardReview(ctx, "user-1", 43)
	require.NoError(t, err)

	txn, err = f.svc.AwardReferral(ctx, "user-1", "friend-1")
	require.NoError(t, err)
	assert.Equal(t, 500, txn.Amount)
	_, err = f.svc.AwardReferral(ctx, "user-1", "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	txn, err = f.svc.AwardBirthday(ctx, "user-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "birthday_2025", *txn.ReferenceID)
	_, err = f.svc.AwardBirthday(ctx, "user-1", 2025)
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)

	assert.Equal(t, 50+50+500+100, f.available(t, "user-1"))
}

func TestAdjust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Adjust(ctx, "user-1", 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidPointsAmount)

	txn, err := f.svc.Adjust(ctx, "user-1", 80, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionAdjustment, txn.Type)
	assert.Equal(t, DefaultAdjustReason, txn.Description)

	txn, err = f.svc.Adjust(ctx, "user-1", -30, "goodwill reversal")
	require.NoError(t, err)
	assert.Equal(t, -30, txn.Amount)
	assert.Equal(t, 50, f.available(t, "user-1"))

	_, err = f.svc.Adjust(ctx, "user-1", -100, "too much")
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
}
