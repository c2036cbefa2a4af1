package handler

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/osse101/MallLoyalty_Go/internal/benefits"
	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/tier"
)

// MockPointsService mocks points.Service
type MockPointsService struct {
	mock.Mock
}

func (m *MockPointsService) EnsureAccount(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsAccount), args.Error(1)
}

func (m *MockPointsService) GetAccount(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsAccount), args.Error(1)
}

func (m *MockPointsService) Credit(ctx context.Context, userID string, amount int, txType domain.TransactionType, description, referenceID string) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, amount, txType, description, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockPointsService) Debit(ctx context.Context, userID string, amount int, txType domain.TransactionType, description, referenceID string) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, amount, txType, description, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockPointsService) SweepExpired(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockPointsService) SweepAllExpired(ctx context.Context) (*points.SweepReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*points.SweepReport), args.Error(1)
}

func (m *MockPointsService) MaxRedeemable(ctx context.Context, userID string, orderAmount decimal.Decimal) (int, error) {
	args := m.Called(ctx, userID, orderAmount)
	return args.Int(0), args.Error(1)
}

func (m *MockPointsService) GetSummary(ctx context.Context, userID string) (*domain.PointsSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsSummary), args.Error(1)
}

func (m *MockPointsService) GetTransactions(ctx context.Context, userID string, limit int) ([]domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PointsTransaction), args.Error(1)
}

func (m *MockPointsService) GetLots(ctx context.Context, userID string) ([]domain.PointsLot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PointsLot), args.Error(1)
}

func (m *MockPointsService) FindByReference(ctx context.Context, userID string, txType domain.TransactionType, referenceID string) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, txType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockPointsService) GetActiveRule(ctx context.Context, ruleType domain.RuleType) (*domain.PointsRule, error) {
	args := m.Called(ctx, ruleType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsRule), args.Error(1)
}

func (m *MockPointsService) ListRules(ctx context.Context) ([]domain.PointsRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PointsRule), args.Error(1)
}

func (m *MockPointsService) SyncRules(ctx context.Context, rules []domain.PointsRule) error {
	return m.Called(ctx, rules).Error(0)
}

// MockMembershipService mocks membership.Service
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) CreateDefault(ctx context.Context, userID string) (*domain.MembershipAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipAccount), args.Error(1)
}

func (m *MockMembershipService) ApplySpendingDelta(ctx context.Context, userID string, delta decimal.Decimal) (*membership.SpendingResult, error) {
	args := m.Called(ctx, userID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.SpendingResult), args.Error(1)
}

func (m *MockMembershipService) ApplyOrderSpending(ctx context.Context, userID string, orderID int64, amount decimal.Decimal) (*membership.SpendingResult, error) {
	args := m.Called(ctx, userID, orderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.SpendingResult), args.Error(1)
}

func (m *MockMembershipService) ManualOverride(ctx context.Context, userID string, target domain.TierName, reason string) (*domain.TierChangeRecord, error) {
	args := m.Called(ctx, userID, target, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TierChangeRecord), args.Error(1)
}

func (m *MockMembershipService) Lookup(ctx context.Context, userID string) (domain.MembershipLookup, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.MembershipLookup), args.Error(1)
}

func (m *MockMembershipService) Benefits(ctx context.Context, userID string) (map[string]bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockMembershipService) MeetsTier(ctx context.Context, userID string, required domain.TierName) (bool, error) {
	args := m.Called(ctx, userID, required)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipService) UpgradeHistory(ctx context.Context, userID string, limit int) ([]domain.TierChangeRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TierChangeRecord), args.Error(1)
}

func (m *MockMembershipService) Status(ctx context.Context, userID string) (*membership.Status, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.Status), args.Error(1)
}

func (m *MockMembershipService) Catalog() *tier.Catalog {
	return tier.DefaultCatalog()
}

// MockLoyaltyService mocks loyalty.Service
type MockLoyaltyService struct {
	mock.Mock
}

func (m *MockLoyaltyService) HandleOrderCompletion(ctx context.Context, userID string, orderAmount decimal.Decimal, orderID int64, isFirstPurchase bool) (*loyalty.Completion, error) {
	args := m.Called(ctx, userID, orderAmount, orderID, isFirstPurchase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Completion), args.Error(1)
}

func (m *MockLoyaltyService) HandleUserRegistration(ctx context.Context, userID string) (*loyalty.Registration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Registration), args.Error(1)
}

func (m *MockLoyaltyService) ValidatePointsRedemption(ctx context.Context, userID string, pts int, orderAmount decimal.Decimal) (*loyalty.RedemptionCheck, error) {
	args := m.Called(ctx, userID, pts, orderAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.RedemptionCheck), args.Error(1)
}

func (m *MockLoyaltyService) RedeemForOrder(ctx context.Context, userID string, orderID int64, pts int, orderAmount decimal.Decimal) (*loyalty.Redemption, error) {
	args := m.Called(ctx, userID, orderID, pts, orderAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Redemption), args.Error(1)
}

func (m *MockLoyaltyService) RefundRedemption(ctx context.Context, userID string, orderID int64) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockLoyaltyService) AwardReview(ctx context.Context, userID string, productID int64) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockLoyaltyService) AwardReferral(ctx context.Context, referrerID, referredUserID string) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, referrerID, referredUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockLoyaltyService) AwardBirthday(ctx context.Context, userID string, year int) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockLoyaltyService) Adjust(ctx context.Context, userID string, delta int, reason string) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, userID, delta, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

// MockBenefitsEngine mocks BenefitsEngine
type MockBenefitsEngine struct {
	mock.Mock
}

func (m *MockBenefitsEngine) Apply(ctx context.Context, order *domain.Order) (*benefits.Result, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*benefits.Result), args.Error(1)
}

func (m *MockBenefitsEngine) PriceLines(ctx context.Context, userID string, lines []domain.OrderLine) ([]domain.OrderLine, error) {
	args := m.Called(ctx, userID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderLine), args.Error(1)
}

var (
	_ points.Service     = (*MockPointsService)(nil)
	_ membership.Service = (*MockMembershipService)(nil)
	_ loyalty.Service    = (*MockLoyaltyService)(nil)
	_ BenefitsEngine     = (*MockBenefitsEngine)(nil)
	_ BenefitsEngine     = (*benefits.Engine)(nil)
)
