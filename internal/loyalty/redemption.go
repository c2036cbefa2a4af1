package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// RedemptionCheck reports whether a redemption would be accepted
type RedemptionCheck struct {
	IsValid        bool            `json:"is_valid"`
	Errors         []string        `json:"errors"`
	MaxRedeemable  int             `json:"max_redeemable"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`

	causes []error
}

// Err joins the violated constraints as domain errors
func (c *RedemptionCheck) Err() error {
	return errors.Join(c.causes...)
}

// Redemption is a completed points-for-discount exchange on an order
type Redemption struct {
	OrderID     int64                    `json:"order_id"`
	Points      int                      `json:"points"`
	OrderAmount decimal.Decimal          `json:"order_amount"`
	Transaction domain.PointsTransaction `json:"transaction"`
	Discount    domain.OrderDiscount     `json:"discount"`
}

func (s *service) ValidatePointsRedemption(ctx context.Context, userID string, pts int, orderAmount decimal.Decimal) (*RedemptionCheck, error) {
	available := 0
	account, err := s.points.GetAccount(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
	case err != nil:
		return nil, err
	default:
		available = account.AvailablePoints
	}

	check := &RedemptionCheck{
		Errors:         []string{},
		MaxRedeemable:  points.MaxRedeemableFor(available, orderAmount),
		DiscountAmount: decimal.Zero,
	}
	for _, cause := range points.ValidateRedemption(pts, available, orderAmount) {
		check.causes = append(check.causes, cause)
		check.Errors = append(check.Errors, redemptionMessage(cause, available, check.MaxRedeemable))
	}
	check.IsValid = len(check.causes) == 0
	if check.IsValid {
		check.DiscountAmount = domain.PointsToCurrency(pts)
	}
	return check, nil
}

func redemptionMessage(cause error, available, maxRedeemable int) string {
	switch {
	case errors.Is(cause, domain.ErrBelowMinimumRedemption):
		return fmt.Sprintf(MsgMinimumFormat, domain.MinimumRedemptionPoints)
	case errors.Is(cause, domain.ErrInsufficientPoints):
		return fmt.Sprintf(MsgInsufficientFormat, available)
	case errors.Is(cause, domain.ErrExceedsMaxRedeemable):
		return fmt.Sprintf(MsgMaximumFormat, maxRedeemable)
	default:
		return MsgInvalidAmount
	}
}

// RedeemForOrder exchanges points for a discount on the order. With an order
// repository the locked order amount is authoritative and the discount is
// written in the same order transaction; a failed order write refunds the
// points with a compensating credit.
func (s *service) RedeemForOrder(ctx context.Context, userID string, orderID int64, pts int, orderAmount decimal.Decimal) (*Redemption, error) {
	if userID == "" || orderID <= 0 {
		return nil, fmt.Errorf("%w: user id and order id are required", domain.ErrInvalidInput)
	}
	if s.orders == nil {
		return s.redeem(ctx, userID, orderID, pts, orderAmount, nil)
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	amount, err := tx.GetOrderAmountForUpdate(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}

	red, err := s.redeem(ctx, userID, orderID, pts, amount, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		s.compensate(ctx, userID, orderID, pts)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return red, nil
}

func (s *service) redeem(ctx context.Context, userID string, orderID int64, pts int, amount decimal.Decimal, tx repository.OrderTx) (*Redemption, error) {
	check, err := s.ValidatePointsRedemption(ctx, userID, pts, amount)
	if err != nil {
		return nil, err
	}
	if !check.IsValid {
		return nil, fmt.Errorf("invalid redemption of %d points: %w", pts, check.Err())
	}

	value := domain.PointsToCurrency(pts)
	ref := orderRef(RefPrefixDiscount, orderID)
	txn, err := s.points.Debit(ctx, userID, pts, domain.TransactionRedemption, fmt.Sprintf(DescRedeemedFormat, value.StringFixed(2)), ref)
	if err != nil {
		return nil, err
	}

	discount := domain.OrderDiscount{
		OrderID:     orderID,
		Type:        domain.DiscountPointsRedemption,
		Amount:      value,
		Description: fmt.Sprintf(DescDiscountFormat, pts),
		Details: map[string]interface{}{
			"points":         pts,
			"transaction_id": txn.ID,
		},
	}
	newAmount := amount.Sub(value)

	if tx != nil {
		if err := tx.InsertDiscount(ctx, &discount); err != nil {
			s.compensate(ctx, userID, orderID, pts)
			return nil, fmt.Errorf("failed to record redemption discount: %w", err)
		}
		if err := tx.UpdateOrderAmount(ctx, orderID, newAmount); err != nil {
			s.compensate(ctx, userID, orderID, pts)
			return nil, fmt.Errorf("failed to update order amount: %w", err)
		}
	}

	logger.FromContext(ctx).Info(LogMsgPointsRedeemed, "user_id", userID, "order_id", orderID, "points", pts, "discount", value.StringFixed(2))
	return &Redemption{
		OrderID:     orderID,
		Points:      pts,
		OrderAmount: newAmount,
		Transaction: *txn,
		Discount:    discount,
	}, nil
}

func (s *service) compensate(ctx context.Context, userID string, orderID int64, pts int) {
	log := logger.FromContext(ctx)
	log.Warn(LogMsgCompensating, "user_id", userID, "order_id", orderID, "points", pts)
	ref := orderRef(RefPrefixDiscount, orderID)
	if _, err := s.points.Credit(ctx, userID, pts, domain.TransactionRefund, fmt.Sprintf(DescRefundFormat, orderID), ref); err != nil {
		log.Error(LogMsgCompensationFailed, "user_id", userID, "order_id", orderID, "points", pts, "error", err)
	}
}

// RefundRedemption returns the points redeemed on an order, for example after
// cancellation. The redemption itself stays in the ledger.
func (s *service) RefundRedemption(ctx context.Context, userID string, orderID int64) (*domain.PointsTransaction, error) {
	ref := orderRef(RefPrefixDiscount, orderID)
	redeemed, err := s.points.FindByReference(ctx, userID, domain.TransactionRedemption, ref)
	if err != nil {
		return nil, err
	}
	if redeemed == nil {
		return nil, fmt.Errorf("%w: order %d", domain.ErrRedemptionNotFound, orderID)
	}

	txn, err := s.points.Credit(ctx, userID, -redeemed.Amount, domain.TransactionRefund, fmt.Sprintf(DescRefundFormat, orderID), ref)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info(LogMsgRedemptionRefunded, "user_id", userID, "order_id", orderID, "points", txn.Amount)
	return txn, nil
}
