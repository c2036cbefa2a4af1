package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
)

// StepError is a failure in one isolated completion step
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e StepError) Error() string {
	return e.Step + ": " + e.Message
}

func (e StepError) Unwrap() error {
	return e.Err
}

// Completion is the outcome of HandleOrderCompletion
type Completion struct {
	OrderID      int64                      `json:"order_id"`
	Multiplier   decimal.Decimal            `json:"multiplier"`
	Transactions []domain.PointsTransaction `json:"transactions"`
	Skipped      []string                   `json:"skipped,omitempty"`
	Errors       []StepError                `json:"errors,omitempty"`
	Spending     *membership.SpendingResult `json:"spending,omitempty"`
}

// Err joins the step errors, or returns nil when every step succeeded
func (c *Completion) Err() error {
	errs := make([]error, len(c.Errors))
	for i, e := range c.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Registration is the outcome of HandleUserRegistration
type Registration struct {
	Membership domain.MembershipAccount  `json:"membership"`
	Account    domain.PointsAccount      `json:"points_account"`
	Bonus      *domain.PointsTransaction `json:"bonus,omitempty"`
}

func (c *Completion) fail(ctx context.Context, step string, err error) {
	logger.FromContext(ctx).Warn(LogMsgStepFailed, "order_id", c.OrderID, "step", step, "error", err)
	c.Errors = append(c.Errors, StepError{Step: step, Message: err.Error(), Err: err})
}

// HandleOrderCompletion awards purchase points at the member's multiplier,
// the first purchase bonus, and then adds the order to cumulative spending.
// Each step runs on its own so one failure never blocks the others, and
// each is keyed by the order so a repeat skips what already happened. The
// amount is rounded to cents. Only invalid input returns an error.
func (s *service) HandleOrderCompletion(ctx context.Context, userID string, orderAmount decimal.Decimal, orderID int64, isFirstPurchase bool) (*Completion, error) {
	log := logger.FromContext(ctx)

	if userID == "" || orderID <= 0 {
		return nil, fmt.Errorf("%w: user id and order id are required", domain.ErrInvalidInput)
	}
	if orderAmount.IsNegative() {
		return nil, fmt.Errorf("%w: order amount must not be negative", domain.ErrInvalidInput)
	}
	orderAmount = domain.RoundMoney(orderAmount)

	c := &Completion{
		OrderID:      orderID,
		Multiplier:   decimal.NewFromInt(1),
		Transactions: []domain.PointsTransaction{},
	}

	lookup, err := s.membership.Lookup(ctx, userID)
	if err != nil {
		c.fail(ctx, StepMembershipLookup, err)
	} else if lookup.Found {
		c.Multiplier = lookup.Tier.PointsMultiplier
	}

	purchaseRef := orderRef(RefPrefixOrder, orderID)
	desc := fmt.Sprintf(DescPurchaseFormat, orderAmount.StringFixed(2), c.Multiplier.String())
	txn, err := s.award(ctx, userID, domain.RulePurchase, orderAmount, c.Multiplier, desc, purchaseRef)
	switch {
	case errors.Is(err, domain.ErrDuplicateReference):
		log.Info(LogMsgAlreadyAwarded, "user_id", userID, "reference_id", purchaseRef)
		c.Skipped = append(c.Skipped, purchaseRef)
	case err != nil:
		c.fail(ctx, StepPurchasePoints, err)
	case txn != nil:
		c.Transactions = append(c.Transactions, *txn)
	}

	if isFirstPurchase {
		firstRef := orderRef(RefPrefixFirstPurchase, orderID)
		txn, err := s.award(ctx, userID, domain.RuleFirstPurchase, orderAmount, decimal.NewFromInt(1), DescFirstPurchase, firstRef)
		switch {
		case errors.Is(err, domain.ErrDuplicateReference):
			log.Info(LogMsgAlreadyAwarded, "user_id", userID, "reference_id", firstRef)
			c.Skipped = append(c.Skipped, firstRef)
		case err != nil:
			c.fail(ctx, StepFirstPurchase, err)
		case txn != nil:
			c.Transactions = append(c.Transactions, *txn)
		}
	}

	result, err := s.membership.ApplyOrderSpending(ctx, userID, orderID, orderAmount)
	switch {
	case errors.Is(err, domain.ErrSpendingRecorded):
		spendingRef := orderRef(RefPrefixSpending, orderID)
		log.Info(LogMsgSpendingCounted, "user_id", userID, "reference_id", spendingRef)
		c.Skipped = append(c.Skipped, spendingRef)
	case err != nil:
		c.fail(ctx, StepSpendingUpdate, err)
	default:
		c.Spending = result
	}

	log.Info(LogMsgOrderCompleted,
		"user_id", userID,
		"order_id", orderID,
		"multiplier", c.Multiplier.String(),
		"transactions", len(c.Transactions),
		"skipped", len(c.Skipped),
		"errors", len(c.Errors))
	return c, nil
}
