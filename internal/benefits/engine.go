package benefits

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/event"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
	"github.com/osse101/MallLoyalty_Go/internal/tier"
)

// MembershipResolver resolves a user's membership for checkout
type MembershipResolver interface {
	Lookup(ctx context.Context, userID string) (domain.MembershipLookup, error)
}

// Config controls shipping handling at checkout
type Config struct {
	ShippingCost    decimal.Decimal
	ShippingInTotal bool
}

// DefaultConfig returns a standard shipping cost of 10.00 that counts toward the total
func DefaultConfig() Config {
	return Config{
		ShippingCost:    decimal.RequireFromString(DefaultShippingCost),
		ShippingInTotal: DefaultShippingInTotal,
	}
}

// Result describes the benefits applied to one order
type Result struct {
	OrderID        int64                  `json:"order_id"`
	Tier           *domain.TierName       `json:"tier,omitempty"`
	OriginalAmount decimal.Decimal        `json:"original_amount"`
	FinalAmount    decimal.Decimal        `json:"final_amount"`
	TotalDiscount  decimal.Decimal        `json:"total_discount"`
	Discounts      []domain.OrderDiscount `json:"discounts"`
}

// Engine applies tier benefits to orders
type Engine struct {
	members  MembershipResolver
	catalog  *tier.Catalog
	orders   repository.Orders
	eventBus event.Bus
	cfg      Config
}

// NewEngine creates an engine. orders may be nil, in which case Apply only
// mutates the order passed in.
func NewEngine(members MembershipResolver, catalog *tier.Catalog, orders repository.Orders, eventBus event.Bus, cfg Config) *Engine {
	if eventBus == nil {
		eventBus = event.NopBus{}
	}
	return &Engine{
		members:  members,
		catalog:  catalog,
		orders:   orders,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// Apply computes the purchaser's tier discounts, appends them to the order
// and reduces order.Amount. Membership lookup failures never block checkout.
func (e *Engine) Apply(ctx context.Context, order *domain.Order) (*Result, error) {
	log := logger.FromContext(ctx)

	if order == nil || order.UserID == "" {
		return nil, fmt.Errorf("%w: order and user id are required", domain.ErrInvalidInput)
	}
	if order.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: order amount must not be negative", domain.ErrInvalidInput)
	}

	result := &Result{
		OrderID:        order.ID,
		OriginalAmount: order.Amount,
		FinalAmount:    order.Amount,
		TotalDiscount:  decimal.Zero,
		Discounts:      []domain.OrderDiscount{},
	}

	lookup, err := e.members.Lookup(ctx, order.UserID)
	if err != nil {
		log.Warn(LogMsgLookupFailed, "user_id", order.UserID, "order_id", order.ID, "error", err)
		return result, nil
	}
	if !lookup.Found {
		log.Info(LogMsgNoMembership, "user_id", order.UserID, "order_id", order.ID)
		return result, nil
	}
	tierName := lookup.Tier.Name
	result.Tier = &tierName

	if order.ID != 0 && e.orders != nil {
		if err := e.applyPersisted(ctx, order, lookup.Tier, result); err != nil {
			return nil, err
		}
	} else {
		discounts, final := e.compute(lookup.Tier, order.ID, order.Amount, order.Fulfillment)
		e.finish(order, result, discounts, final)
	}

	log.Info(LogMsgBenefitsApplied,
		"user_id", order.UserID,
		"order_id", order.ID,
		"tier", tierName,
		"discounts", len(result.Discounts),
		"total_discount", result.TotalDiscount.StringFixed(2),
		"final_amount", result.FinalAmount.StringFixed(2))

	for _, d := range result.Discounts {
		evt := event.NewDiscountAppliedEvent(order.ID, order.UserID, string(d.Type), d.Amount.StringFixed(2))
		if err := e.eventBus.Publish(ctx, evt); err != nil {
			log.Warn(LogMsgPublishFailed, "order_id", order.ID, "type", d.Type, "error", err)
		}
	}
	return result, nil
}

// applyPersisted recomputes from the locked order amount and writes the
// discounts and the new amount together
func (e *Engine) applyPersisted(ctx context.Context, order *domain.Order, t domain.Tier, result *Result) error {
	tx, err := e.orders.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	amount, err := tx.GetOrderAmountForUpdate(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to lock order %d: %w", order.ID, err)
	}

	existing, err := tx.DiscountsForOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to read order discounts: %w", err)
	}
	for _, d := range existing {
		if d.Type != domain.DiscountPointsRedemption {
			logger.FromContext(ctx).Info(LogMsgAlreadyApplied, "order_id", order.ID)
			return fmt.Errorf("%w: order %d", domain.ErrBenefitsApplied, order.ID)
		}
	}

	result.OriginalAmount = amount
	discounts, final := e.compute(t, order.ID, amount, order.Fulfillment)
	for i := range discounts {
		if err := tx.InsertDiscount(ctx, &discounts[i]); err != nil {
			return fmt.Errorf("failed to record %s discount: %w", discounts[i].Type, err)
		}
	}
	if err := tx.UpdateOrderAmount(ctx, order.ID, final); err != nil {
		return fmt.Errorf("failed to update order amount: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.finish(order, result, discounts, final)
	return nil
}

func (e *Engine) finish(order *domain.Order, result *Result, discounts []domain.OrderDiscount, final decimal.Decimal) {
	order.Amount = final
	order.Discounts = append(order.Discounts, discounts...)
	result.Discounts = discounts
	result.FinalAmount = final
	result.TotalDiscount = result.OriginalAmount.Sub(final)
}

// compute runs the benefit steps in order against a running amount
func (e *Engine) compute(t domain.Tier, orderID int64, amount decimal.Decimal, fulfillment domain.Fulfillment) ([]domain.OrderDiscount, decimal.Decimal) {
	rates := e.catalog.BenefitsFor(t.Name)
	discounts := []domain.OrderDiscount{}

	take := func(d decimal.Decimal) decimal.Decimal {
		d = domain.RoundMoney(d)
		if d.GreaterThan(amount) {
			d = amount
		}
		amount = amount.Sub(d)
		return d
	}

	if rates.DiscountRate.IsPositive() {
		d := take(amount.Mul(rates.DiscountRate))
		discounts = append(discounts, domain.OrderDiscount{
			OrderID:     orderID,
			Type:        domain.DiscountTier,
			Amount:      d,
			Description: fmt.Sprintf(DescTierDiscountFormat, t.DisplayName, percent(rates.DiscountRate)),
			Details: map[string]interface{}{
				DetailTier: string(t.Name),
				DetailRate: rates.DiscountRate.String(),
			},
		})
	}

	if t.HasBenefit(domain.BenefitFreeShipping) && fulfillment == domain.FulfillmentDelivery {
		d := domain.RoundMoney(e.cfg.ShippingCost)
		if e.cfg.ShippingInTotal {
			d = take(d)
		}
		discounts = append(discounts, domain.OrderDiscount{
			OrderID:     orderID,
			Type:        domain.DiscountFreeShipping,
			Amount:      d,
			Description: DescFreeShipping,
			Details: map[string]interface{}{
				DetailTier:            string(t.Name),
				DetailShippingInTotal: e.cfg.ShippingInTotal,
			},
		})
	}

	if t.HasBenefit(domain.BenefitEarlyAccess) {
		discounts = append(discounts, domain.OrderDiscount{
			OrderID:     orderID,
			Type:        domain.DiscountPromotion,
			Amount:      decimal.Zero,
			Description: DescEarlyAccess,
			Details: map[string]interface{}{
				DetailTier:    string(t.Name),
				DetailBenefit: domain.BenefitEarlyAccess,
			},
		})
	}

	if p := rates.Promotion; p != nil && amount.GreaterThanOrEqual(p.MinOrder) {
		d := take(amount.Mul(p.Rate))
		discounts = append(discounts, domain.OrderDiscount{
			OrderID:     orderID,
			Type:        domain.DiscountPromotion,
			Amount:      d,
			Description: p.Description,
			Details: map[string]interface{}{
				DetailTier:     string(t.Name),
				DetailRate:     p.Rate.String(),
				DetailMinOrder: p.MinOrder.StringFixed(2),
			},
		})
	}

	return discounts, amount
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String()
}
