package membership

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
	"github.com/osse101/MallLoyalty_Go/internal/tier"
)

// SpendingResult reports the outcome of ApplySpendingDelta
type SpendingResult struct {
	Changed      bool                     `json:"changed"`
	Upgraded     bool                     `json:"upgraded"`
	PreviousTier domain.TierName          `json:"previous_tier"`
	Tier         domain.Tier              `json:"tier"`
	Account      domain.MembershipAccount `json:"account"`
}

// Status is the membership page read model
type Status struct {
	Account      domain.MembershipAccount  `json:"account"`
	Tier         domain.Tier               `json:"tier"`
	NextTier     *domain.Tier              `json:"next_tier,omitempty"`
	AmountToNext *decimal.Decimal          `json:"amount_to_next,omitempty"`
	History      []domain.TierChangeRecord `json:"history"`
}

// Service defines membership tier operations
type Service interface {
	CreateDefault(ctx context.Context, userID string) (*domain.MembershipAccount, error)
	ApplySpendingDelta(ctx context.Context, userID string, delta decimal.Decimal) (*SpendingResult, error)
	ApplyOrderSpending(ctx context.Context, userID string, orderID int64, amount decimal.Decimal) (*SpendingResult, error)
	ManualOverride(ctx context.Context, userID string, target domain.TierName, reason string) (*domain.TierChangeRecord, error)
	Lookup(ctx context.Context, userID string) (domain.MembershipLookup, error)
	Benefits(ctx context.Context, userID string) (map[string]bool, error)
	MeetsTier(ctx context.Context, userID string, required domain.TierName) (bool, error)
	UpgradeHistory(ctx context.Context, userID string, limit int) ([]domain.TierChangeRecord, error)
	Status(ctx context.Context, userID string) (*Status, error)
	Catalog() *tier.Catalog
}

type service struct {
	repo        repository.Membership
	catalog     *tier.Catalog
	eventBus    event.Bus
	lockManager *concurrency.LockManager
	now         func() time.Time
}

// NewService creates a new membership service
func NewService(repo repository.Membership, catalog *tier.Catalog, eventBus event.Bus, lockManager *concurrency.LockManager) Service {
	if lockManager == nil {
		lockManager = concurrency.NewLockManager()
	}
	if eventBus == nil {
		eventBus = event.NopBus{}
	}
	return &service{
		repo:        repo,
		catalog:     catalog,
		eventBus:    eventBus,
		lockManager: lockManager,
		now:         time.Now,
	}
}

func lockKey(userID string) string {
	return "membership:" + userID
}

func (s *service) Catalog() *tier.Catalog {
	return s.catalog
}

// CreateDefault opens a membership at the lowest tier. An existing account is
// returned unchanged.
func (s *service) CreateDefault(ctx context.Context, userID string) (*domain.MembershipAccount, error) {
	unlock := s.lockManager.Lock(lockKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	account, created, err := s.createInTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if created {
		s.publishChange(ctx, nil, account, ReasonAccountCreated, false)
	}
	return account, nil
}

// createInTx returns the locked account, inserting a lowest-tier one if missing
func (s *service) createInTx(ctx context.Context, tx repository.MembershipTx, userID string) (*domain.MembershipAccount, bool, error) {
	log := logger.FromContext(ctx)

	existing, err := tx.GetMembershipForUpdate(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get membership: %w", err)
	}
	if existing != nil {
		log.Debug(LogMsgMembershipExists, "user_id", userID)
		return existing, false, nil
	}

	now := s.now()
	lowest := s.catalog.Lowest()
	account := &domain.MembershipAccount{
		UserID:             userID,
		Tier:               lowest.Name,
		CumulativeSpending: decimal.Zero,
		TierStartedAt:      now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	inserted, err := tx.InsertMembership(ctx, account)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create membership: %w", err)
	}
	if !inserted {
		// created concurrently by another process; re-read under lock
		existing, err = tx.GetMembershipForUpdate(ctx, userID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get membership: %w", err)
		}
		if existing == nil {
			return nil, false, domain.ErrNoMembership
		}
		return existing, false, nil
	}

	record := &domain.TierChangeRecord{
		UserID:           userID,
		ToTier:           lowest.Name,
		Reason:           ReasonAccountCreated,
		SpendingAtChange: decimal.Zero,
		CreatedAt:        now,
	}
	if err := tx.InsertTierChange(ctx, record); err != nil {
		return nil, false, fmt.Errorf("failed to record tier change: %w", err)
	}

	log.Info(LogMsgMembershipCreated, "user_id", userID, "tier", lowest.Name)
	return account, true, nil
}

// ApplySpendingDelta adds delta to the cumulative spending and moves the
// account to the tier that covers the new total, all in one transaction.
// A missing account is created at the lowest tier first. delta must be a
// non-negative amount in whole cents.
func (s *service) ApplySpendingDelta(ctx context.Context, userID string, delta decimal.Decimal) (*SpendingResult, error) {
	return s.applySpending(ctx, userID, 0, delta)
}

// ApplyOrderSpending is ApplySpendingDelta counted at most once per order.
// A repeat for the same order returns ErrSpendingRecorded and changes nothing.
func (s *service) ApplyOrderSpending(ctx context.Context, userID string, orderID int64, amount decimal.Decimal) (*SpendingResult, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrInvalidInput)
	}
	return s.applySpending(ctx, userID, orderID, amount)
}

func (s *service) applySpending(ctx context.Context, userID string, orderID int64, delta decimal.Decimal) (*SpendingResult, error) {
	log := logger.FromContext(ctx)

	if delta.IsNegative() || !delta.Equal(delta.Truncate(2)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSpendingDelta, delta.String())
	}

	unlock := s.lockManager.Lock(lockKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	account, created, err := s.createInTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if orderID != 0 {
		inserted, err := tx.InsertSpendingEvent(ctx, userID, orderID, delta, s.now())
		if err != nil {
			return nil, fmt.Errorf("failed to record order spending: %w", err)
		}
		if !inserted {
			return nil, fmt.Errorf("%w: order %d", domain.ErrSpendingRecorded, orderID)
		}
	}

	previous := account.Tier
	account.CumulativeSpending = account.CumulativeSpending.Add(delta)
	resolved := s.catalog.TierFor(account.CumulativeSpending)

	result := &SpendingResult{PreviousTier: previous, Tier: resolved}
	var reason string
	if resolved.Name != previous {
		now := s.now()
		account.Tier = resolved.Name
		account.TierStartedAt = now
		reason = fmt.Sprintf(ReasonSpendingFormat, account.CumulativeSpending.StringFixed(2))

		from := previous
		record := &domain.TierChangeRecord{
			UserID:           userID,
			FromTier:         &from,
			ToTier:           resolved.Name,
			Reason:           reason,
			SpendingAtChange: account.CumulativeSpending,
			CreatedAt:        now,
		}
		if err := tx.InsertTierChange(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to record tier change: %w", err)
		}
		result.Changed = true
		result.Upgraded = s.catalog.Rank(resolved.Name) > s.catalog.Rank(previous)
	}

	if err := tx.UpdateMembership(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	result.Account = *account

	log.Info(LogMsgSpendingApplied, "user_id", userID, "order_id", orderID, "delta", delta.String(), "total", account.CumulativeSpending.String(), "tier", account.Tier)
	if created {
		s.publishChange(ctx, nil, account, ReasonAccountCreated, false)
	}
	if result.Changed {
		log.Info(LogMsgTierChanged, "user_id", userID, "from", previous, "to", resolved.Name)
		s.publishChange(ctx, &previous, account, reason, false)
	}
	return result, nil
}

// ManualOverride sets the tier regardless of spending. Spending is untouched.
func (s *service) ManualOverride(ctx context.Context, userID string, target domain.TierName, reason string) (*domain.TierChangeRecord, error) {
	log := logger.FromContext(ctx)

	targetTier, ok := s.catalog.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTierNotFound, target)
	}
	if reason == "" {
		reason = DefaultManualOverrideReason
	}

	unlock := s.lockManager.Lock(lockKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	account, err := tx.GetMembershipForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if account == nil {
		return nil, domain.ErrNoMembership
	}

	now := s.now()
	previous := account.Tier
	account.Tier = targetTier.Name
	account.TierStartedAt = now

	record := &domain.TierChangeRecord{
		UserID:           userID,
		FromTier:         &previous,
		ToTier:           targetTier.Name,
		Reason:           reason,
		SpendingAtChange: account.CumulativeSpending,
		CreatedAt:        now,
	}
	if err := tx.InsertTierChange(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record tier change: %w", err)
	}
	if err := tx.UpdateMembership(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info(LogMsgManualOverride, "user_id", userID, "from", previous, "to", targetTier.Name, "reason", reason)
	s.publishChange(ctx, &previous, account, reason, true)
	return record, nil
}

// Lookup resolves the user's membership. A missing account is reported with
// Found=false; errors are reserved for infrastructure failures.
func (s *service) Lookup(ctx context.Context, userID string) (domain.MembershipLookup, error) {
	account, err := s.repo.GetMembership(ctx, userID)
	if err != nil {
		return domain.NoMembership(), fmt.Errorf("failed to get membership: %w", err)
	}
	if account == nil {
		return domain.NoMembership(), nil
	}

	t, ok := s.catalog.Lookup(account.Tier)
	if !ok {
		// tier removed from configuration since the account was written
		t = s.catalog.TierFor(account.CumulativeSpending)
	}
	return domain.MembershipLookup{Found: true, Account: *account, Tier: t}, nil
}

// Benefits returns a copy of the user's tier benefits, or the lowest tier's
// benefits for users without a membership
func (s *service) Benefits(ctx context.Context, userID string) (map[string]bool, error) {
	lookup, err := s.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !lookup.Found {
		return s.catalog.Lowest().CopyBenefits(), nil
	}
	return lookup.Tier.CopyBenefits(), nil
}

func (s *service) MeetsTier(ctx context.Context, userID string, required domain.TierName) (bool, error) {
	if _, ok := s.catalog.Lookup(required); !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrTierNotFound, required)
	}
	lookup, err := s.Lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	current := s.catalog.Lowest().Name
	if lookup.Found {
		current = lookup.Tier.Name
	}
	return s.catalog.Meets(current, required), nil
}

func (s *service) UpgradeHistory(ctx context.Context, userID string, limit int) ([]domain.TierChangeRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	records, err := s.repo.ListTierChanges(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tier changes: %w", err)
	}
	if records == nil {
		records = []domain.TierChangeRecord{}
	}
	return records, nil
}

func (s *service) Status(ctx context.Context, userID string) (*Status, error) {
	lookup, err := s.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !lookup.Found {
		return nil, domain.ErrNoMembership
	}

	history, err := s.UpgradeHistory(ctx, userID, DefaultHistoryLimit)
	if err != nil {
		return nil, err
	}

	status := &Status{Account: lookup.Account, Tier: lookup.Tier, History: history}
	if next, ok := s.catalog.Next(lookup.Tier.Name); ok {
		status.NextTier = &next
		remaining := next.MinSpending.Sub(lookup.Account.CumulativeSpending)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		status.AmountToNext = &remaining
	}
	return status, nil
}

func (s *service) publishChange(ctx context.Context, from *domain.TierName, account *domain.MembershipAccount, reason string, manual bool) {
	payload := event.TierChangedPayloadV1{
		UserID:   account.UserID,
		ToTier:   string(account.Tier),
		Reason:   reason,
		Manual:   manual,
		Spending: account.CumulativeSpending.StringFixed(2),
	}
	if from != nil {
		payload.FromTier = string(*from)
		payload.Upgrade = s.catalog.Rank(account.Tier) > s.catalog.Rank(*from)
	}
	if err := s.eventBus.Publish(ctx, event.NewTierChangedEvent(payload)); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "user_id", account.UserID, "error", err)
	}
}
