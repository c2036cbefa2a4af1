package points

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

// GetSummary returns balances, the points expiring within ExpiringSoonDays
// and the most recent ledger entries. Users without an account get a zero
// summary.
func (s *service) GetSummary(ctx context.Context, userID string) (*domain.PointsSummary, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}
	if account == nil {
		return &domain.PointsSummary{RecentTransactions: []domain.PointsTransaction{}}, nil
	}

	now := s.now()
	expiring, err := s.repo.SumExpiring(ctx, account.ID, now, now.Add(domain.ExpiringSoonDays*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to sum expiring points: %w", err)
	}

	recent, err := s.repo.ListTransactions(ctx, account.ID, SummaryRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if recent == nil {
		recent = []domain.PointsTransaction{}
	}

	return &domain.PointsSummary{
		AvailablePoints:    account.AvailablePoints,
		TotalPoints:        account.TotalPoints,
		LifetimeEarned:     account.LifetimeEarned,
		LifetimeRedeemed:   account.LifetimeRedeemed,
		ExpiringSoon:       expiring,
		RecentTransactions: recent,
	}, nil
}

// GetTransactions lists ledger entries newest first
func (s *service) GetTransactions(ctx context.Context, userID string, limit int) ([]domain.PointsTransaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		limit = MaxTransactionLimit
	}

	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}
	if account == nil {
		return []domain.PointsTransaction{}, nil
	}

	txns, err := s.repo.ListTransactions(ctx, account.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// GetLots lists the user's lots, soonest expiry first
func (s *service) GetLots(ctx context.Context, userID string) ([]domain.PointsLot, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}
	if account == nil {
		return []domain.PointsLot{}, nil
	}
	lots, err := s.repo.ListLots(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return lots, nil
}

// FindByReference returns the user's ledger entry for a type and reference,
// or nil when none was recorded
func (s *service) FindByReference(ctx context.Context, userID string, txType domain.TransactionType, referenceID string) (*domain.PointsTransaction, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}
	if account == nil || referenceID == "" {
		return nil, nil
	}
	txn, err := s.repo.FindTransaction(ctx, account.ID, txType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return txn, nil
}
