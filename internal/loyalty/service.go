package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// Service ties the points ledger to orders, registration and membership
type Service interface {
	HandleOrderCompletion(ctx context.Context, userID string, orderAmount decimal.Decimal, orderID int64, isFirstPurchase bool) (*Completion, error)
	HandleUserRegistration(ctx context.Context, userID string) (*Registration, error)
	ValidatePointsRedemption(ctx context.Context, userID string, pts int, orderAmount decimal.Decimal) (*RedemptionCheck, error)
	RedeemForOrder(ctx context.Context, userID string, orderID int64, pts int, orderAmount decimal.Decimal) (*Redemption, error)
	RefundRedemption(ctx context.Context, userID string, orderID int64) (*domain.PointsTransaction, error)
	AwardReview(ctx context.Context, userID string, productID int64) (*domain.PointsTransaction, error)
	AwardReferral(ctx context.Context, referrerID, referredUserID string) (*domain.PointsTransaction, error)
	AwardBirthday(ctx context.Context, userID string, year int) (*domain.PointsTransaction, error)
	Adjust(ctx context.Context, userID string, delta int, reason string) (*domain.PointsTransaction, error)
}

type service struct {
	points     points.Service
	membership membership.Service
	orders     repository.Orders
}

// NewService creates the loyalty integration service. orders may be nil, in
// which case redemptions are not written to the order.
func NewService(pointsSvc points.Service, membershipSvc membership.Service, orders repository.Orders) Service {
	return &service{
		points:     pointsSvc,
		membership: membershipSvc,
		orders:     orders,
	}
}

func orderRef(prefix string, orderID int64) string {
	return prefix + strconv.FormatInt(orderID, 10)
}

// award credits the active rule for ruleType. A missing rule or a zero award
// returns nil without error.
func (s *service) award(ctx context.Context, userID string, ruleType domain.RuleType, base, multiplier decimal.Decimal, description, referenceID string) (*domain.PointsTransaction, error) {
	rule, err := s.points.GetActiveRule(ctx, ruleType)
	if err != nil {
		return nil, err
	}
	amount := points.CalculatePoints(rule, base, multiplier)
	if amount == 0 {
		logger.FromContext(ctx).Debug(LogMsgNoRule, "rule_type", ruleType, "user_id", userID)
		return nil, nil
	}
	return s.points.Credit(ctx, userID, amount, domain.TransactionEarning, description, referenceID)
}

// HandleUserRegistration opens the membership and points account for a new
// user and credits the registration bonus. Safe to call again.
func (s *service) HandleUserRegistration(ctx context.Context, userID string) (*Registration, error) {
	log := logger.FromContext(ctx)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	account, err := s.membership.CreateDefault(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	pointsAccount, err := s.points.EnsureAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create points account: %w", err)
	}

	reg := &Registration{Membership: *account, Account: *pointsAccount}
	bonus, err := s.award(ctx, userID, domain.RuleRegistration, decimal.Zero, decimal.NewFromInt(1), DescRegistration, RefPrefixRegistration+userID)
	switch {
	case errors.Is(err, domain.ErrDuplicateReference):
		log.Info(LogMsgAlreadyAwarded, "user_id", userID, "rule_type", domain.RuleRegistration)
	case err != nil:
		return nil, fmt.Errorf("failed to award registration points: %w", err)
	case bonus != nil:
		reg.Bonus = bonus
		if refreshed, err := s.points.GetAccount(ctx, userID); err == nil {
			reg.Account = *refreshed
		}
	}

	log.Info(LogMsgUserRegistered, "user_id", userID, "tier", account.Tier, "bonus", reg.Bonus != nil)
	return reg, nil
}

// AwardReview credits the review rule once per product
func (s *service) AwardReview(ctx context.Context, userID string, productID int64) (*domain.PointsTransaction, error) {
	return s.award(ctx, userID, domain.RuleReview, decimal.Zero, decimal.NewFromInt(1), DescReview, orderRef(RefPrefixReview, productID))
}

// AwardReferral credits the referrer once per referred user
func (s *service) AwardReferral(ctx context.Context, referrerID, referredUserID string) (*domain.PointsTransaction, error) {
	if referrerID == "" || referredUserID == "" || referrerID == referredUserID {
		return nil, fmt.Errorf("%w: referrer and referred user must be distinct", domain.ErrInvalidInput)
	}
	return s.award(ctx, referrerID, domain.RuleReferral, decimal.Zero, decimal.NewFromInt(1), DescReferral, RefPrefixReferral+referredUserID)
}

// AwardBirthday credits the birthday rule once per calendar year
func (s *service) AwardBirthday(ctx context.Context, userID string, year int) (*domain.PointsTransaction, error) {
	return s.award(ctx, userID, domain.RuleBirthday, decimal.Zero, decimal.NewFromInt(1), DescBirthday, RefPrefixBirthday+strconv.Itoa(year))
}

// Adjust applies an admin correction. Positive deltas credit, negative deltas
// debit through the normal FIFO path.
func (s *service) Adjust(ctx context.Context, userID string, delta int, reason string) (*domain.PointsTransaction, error) {
	if delta == 0 {
		return nil, domain.ErrInvalidPointsAmount
	}
	if reason == "" {
		reason = DefaultAdjustReason
	}

	var (
		txn *domain.PointsTransaction
		err error
	)
	if delta > 0 {
		txn, err = s.points.Credit(ctx, userID, delta, domain.TransactionAdjustment, reason, "")
	} else {
		txn, err = s.points.Debit(ctx, userID, -delta, domain.TransactionAdjustment, reason, "")
	}
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgPointsAdjusted, "user_id", userID, "delta", delta, "reason", reason)
	return txn, nil
}
