package repository

import (
	"context"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

// Points defines read access to the points ledger and its rules
type Points interface {
	GetAccount(ctx context.Context, userID string) (*domain.PointsAccount, error)
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.PointsTransaction, error)
	// FindTransaction returns the entry recorded for a type and reference, or nil
	FindTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, referenceID string) (*domain.PointsTransaction, error)
	ListLots(ctx context.Context, accountID int64) ([]domain.PointsLot, error)
	SumExpiring(ctx context.Context, accountID int64, from, to time.Time) (int, error)
	ListUsersWithExpiredLots(ctx context.Context, now time.Time) ([]string, error)
	GetActiveRule(ctx context.Context, ruleType domain.RuleType) (*domain.PointsRule, error)
	ListRules(ctx context.Context) ([]domain.PointsRule, error)
	UpsertRule(ctx context.Context, rule *domain.PointsRule) error
	BeginTx(ctx context.Context) (PointsTx, error)
}

// PointsTx is a ledger transaction. Account rows read through it are locked
// until Commit or Rollback.
type PointsTx interface {
	Tx
	GetAccountForUpdate(ctx context.Context, userID string) (*domain.PointsAccount, error)
	GetOrCreateAccountForUpdate(ctx context.Context, userID string) (*domain.PointsAccount, error)
	UpdateAccount(ctx context.Context, account *domain.PointsAccount) error
	ReferenceExists(ctx context.Context, accountID int64, txType domain.TransactionType, referenceID string) (bool, error)
	InsertTransaction(ctx context.Context, txn *domain.PointsTransaction) error
	InsertLot(ctx context.Context, lot *domain.PointsLot) error
	UpdateLot(ctx context.Context, lot *domain.PointsLot) error
	// SpendableLotsForUpdate returns unexpired lots with points left, oldest expiry first
	SpendableLotsForUpdate(ctx context.Context, accountID int64, now time.Time) ([]domain.PointsLot, error)
	// ExpiredLotsForUpdate returns lots past expiry that still hold points and are not yet marked
	ExpiredLotsForUpdate(ctx context.Context, accountID int64, now time.Time) ([]domain.PointsLot, error)
}
