package points

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// MockRepository is a testify mock of repository.Points
type MockRepository struct {
	mock.Mock
}

var _ repository.Points = (*MockRepository)(nil)

func (m *MockRepository) GetAccount(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsAccount), args.Error(1)
}

func (m *MockRepository) ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.PointsTransaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PointsTransaction), args.Error(1)
}

func (m *MockRepository) FindTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, referenceID string) (*domain.PointsTransaction, error) {
	args := m.Called(ctx, accountID, txType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsTransaction), args.Error(1)
}

func (m *MockRepository) ListLots(ctx context.Context, accountID int64) ([]domain.PointsLot, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PointsLot), args.Error(1)
}

func (m *MockRepository) SumExpiring(ctx context.Context, accountID int64, from, to time.Time) (int, error) {
	args := m.Called(ctx, accountID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListUsersWithExpiredLots(ctx context.Context, now time.Time) ([]string, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) GetActiveRule(ctx context.Context, ruleType domain.RuleType) (*domain.PointsRule, error) {
	args := m.Called(ctx, ruleType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PointsRule), args.Error(1)
}

func (m *MockRepository) ListRules(ctx context.Context) ([]domain.PointsRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PointsRule), args.Error(1)
}

func (m *MockRepository) UpsertRule(ctx context.Context, rule *domain.PointsRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRepository) BeginTx(ctx context.Context) (repository.PointsTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.PointsTx), args.Error(1)
}
