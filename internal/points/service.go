package points

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/concurrency"
	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/event"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// Service defines the points ledger operations
type Service interface {
	EnsureAccount(ctx context.Context, userID string) (*domain.PointsAccount, error)
	GetAccount(ctx context.Context, userID string) (*domain.PointsAccount, error)
	Credit(ctx context.Context, userID string, amount int, txType domain.TransactionType, description, referenceID string) (*domain.PointsTransaction, error)
	Debit(ctx context.Context, userID string, amount int, txType domain.TransactionType, description, referenceID string) (*domain.PointsTransaction, error)
	SweepExpired(ctx context.Context, userID string) (int, error)
	SweepAllExpired(ctx context.Context) (*SweepReport, error)
	MaxRedeemable(ctx context.Context, userID string, orderAmount decimal.Decimal) (int, error)
	GetSummary(ctx context.Context, userID string) (*domain.PointsSummary, error)
	GetTransactions(ctx context.Context, userID string, limit int) ([]domain.PointsTransaction, error)
	GetLots(ctx context.Context, userID string) ([]domain.PointsLot, error)
	FindByReference(ctx context.Context, userID string, txType domain.TransactionType, referenceID string) (*domain.PointsTransaction, error)
	GetActiveRule(ctx context.Context, ruleType domain.RuleType) (*domain.PointsRule, error)
	ListRules(ctx context.Context) ([]domain.PointsRule, error)
	SyncRules(ctx context.Context, rules []domain.PointsRule) error
}

type service struct {
	repo        repository.Points
	eventBus    event.Bus
	lockManager *concurrency.LockManager
	retention   time.Duration
	rules       *ruleCache
	now         func() time.Time
}

// NewService creates a new points ledger service. A non-positive retention
// falls back to DefaultRetentionDays.
func NewService(repo repository.Points, eventBus event.Bus, lockManager *concurrency.LockManager, retention time.Duration) Service {
	if retention <= 0 {
		retention = domain.DefaultRetentionDays * 24 * time.Hour
	}
	if lockManager == nil {
		lockManager = concurrency.NewLockManager()
	}
	if eventBus == nil {
		eventBus = event.NopBus{}
	}
	return &service{
		repo:        repo,
		eventBus:    eventBus,
		lockManager: lockManager,
		retention:   retention,
		rules:       newRuleCache(RulesCacheSize, RulesCacheTTL),
		now:         time.Now,
	}
}

func lockKey(userID string) string {
	return "points:" + userID
}

func (s *service) EnsureAccount(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	account, err := tx.GetOrCreateAccountForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create points account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return account, nil
}

func (s *service) GetAccount(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// Credit adds points to the user's balance and opens a new lot that expires
// after the retention window. The account is created on first credit.
func (s *service) Credit(ctx context.Context, userID string, amount int, txType domain.TransactionType, description, referenceID string) (*domain.PointsTransaction, error) {
	log := logger.FromContext(ctx)

	if amount <= 0 {
		return nil, domain.ErrInvalidPointsAmount
	}
	switch txType {
	case domain.TransactionEarning, domain.TransactionAdjustment, domain.TransactionRefund:
	default:
		return nil, fmt.Errorf("%w: cannot credit with transaction type %q", domain.ErrInvalidInput, txType)
	}

	unlock := s.lockManager.Lock(lockKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	account, err := tx.GetOrCreateAccountForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}

	if err := s.checkReference(ctx, tx, account.ID, txType, referenceID); err != nil {
		return nil, err
	}

	now := s.now()
	account.AvailablePoints += amount
	account.TotalPoints += amount
	account.LifetimeEarned += amount

	txn := &domain.PointsTransaction{
		AccountID:    account.ID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: account.AvailablePoints,
		Description:  description,
		ReferenceID:  domain.Ref(referenceID),
		CreatedAt:    now,
	}
	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record points transaction: %w", err)
	}

	lot := &domain.PointsLot{
		AccountID:       account.ID,
		PointsAmount:    amount,
		RemainingPoints: amount,
		EarnedAt:        now,
		ExpiresAt:       now.Add(s.retention),
		TransactionID:   &txn.ID,
	}
	if err := tx.InsertLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("failed to create points lot: %w", err)
	}

	if err := tx.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update points account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info(LogMsgPointsCredited, "user_id", userID, "points", amount, "type", txType, "balance", account.AvailablePoints, "reference_id", referenceID)
	s.publish(ctx, event.NewPointsEvent(event.PointsCredited, userID, string(txType), amount, account.AvailablePoints, referenceID))
	return txn, nil
}

// Debit spends points from the oldest-expiring lots first. Lots already past
// expiry are swept in the same transaction so the balance check only counts
// points that can actually be spent.
func (s *service) Debit(ctx context.Context, userID string, amount int, txType domain.TransactionType, description, referenceID string) (*domain.PointsTransaction, error) {
	log := logger.FromContext(ctx)

	if amount <= 0 {
		return nil, domain.ErrInvalidPointsAmount
	}
	switch txType {
	case domain.TransactionRedemption, domain.TransactionAdjustment:
	default:
		return nil, fmt.Errorf("%w: cannot debit with transaction type %q", domain.ErrInvalidInput, txType)
	}

	unlock := s.lockManager.Lock(lockKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	account, err := tx.GetAccountForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: have 0, requested %d", domain.ErrInsufficientPoints, amount)
	}

	if err := s.checkReference(ctx, tx, account.ID, txType, referenceID); err != nil {
		return nil, err
	}

	now := s.now()
	expired, err := s.expireLots(ctx, tx, account, now)
	if err != nil {
		return nil, err
	}

	if amount > account.AvailablePoints {
		return nil, fmt.Errorf("%w: have %d, requested %d", domain.ErrInsufficientPoints, account.AvailablePoints, amount)
	}

	lots, err := tx.SpendableLotsForUpdate(ctx, account.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get spendable lots: %w", err)
	}

	remaining := amount
	for i := range lots {
		if remaining == 0 {
			break
		}
		lot := &lots[i]
		take := min(remaining, lot.RemainingPoints)
		lot.RemainingPoints -= take
		if lot.RemainingPoints == 0 {
			lot.IsFullyRedeemed = true
		}
		if err := tx.UpdateLot(ctx, lot); err != nil {
			return nil, fmt.Errorf("failed to update points lot: %w", err)
		}
		remaining -= take
	}
	if remaining > 0 {
		log.Warn(LogMsgLotsShort, "user_id", userID, "available", account.AvailablePoints, "uncovered", remaining)
		return nil, fmt.Errorf("%w: lots cover %d of %d", domain.ErrInsufficientPoints, amount-remaining, amount)
	}

	account.AvailablePoints -= amount
	account.LifetimeRedeemed += amount

	txn := &domain.PointsTransaction{
		AccountID:    account.ID,
		Type:         txType,
		Amount:       -amount,
		BalanceAfter: account.AvailablePoints,
		Description:  description,
		ReferenceID:  domain.Ref(referenceID),
		CreatedAt:    now,
	}
	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record points transaction: %w", err)
	}
	if err := tx.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update points account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info(LogMsgPointsDebited, "user_id", userID, "points", amount, "type", txType, "balance", account.AvailablePoints, "reference_id", referenceID)
	s.publishExpired(ctx, userID, expired)
	s.publish(ctx, event.NewPointsEvent(event.PointsDebited, userID, string(txType), -amount, account.AvailablePoints, referenceID))
	return txn, nil
}

// checkReference rejects a second ledger entry with the same type and reference
func (s *service) checkReference(ctx context.Context, tx repository.PointsTx, accountID int64, txType domain.TransactionType, referenceID string) error {
	if referenceID == "" {
		return nil
	}
	exists, err := tx.ReferenceExists(ctx, accountID, txType, referenceID)
	if err != nil {
		return fmt.Errorf("failed to check reference: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s %s", domain.ErrDuplicateReference, txType, referenceID)
	}
	return nil
}

func (s *service) MaxRedeemable(ctx context.Context, userID string, orderAmount decimal.Decimal) (int, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get points account: %w", err)
	}
	available := 0
	if account != nil {
		available = account.AvailablePoints
	}
	return MaxRedeemableFor(available, orderAmount), nil
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if err := s.eventBus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", evt.Type, "error", err)
	}
}
