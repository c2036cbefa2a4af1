package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType classifies an order discount line
type DiscountType string

const (
	DiscountTier             DiscountType = "tier_discount"
	DiscountPointsRedemption DiscountType = "points_redemption"
	DiscountFreeShipping     DiscountType = "free_shipping"
	DiscountPromotion        DiscountType = "promotion"
)

// Fulfillment is how an order reaches the customer
type Fulfillment string

const (
	FulfillmentPickup   Fulfillment = "pickup"
	FulfillmentDelivery Fulfillment = "delivery"
)

// Order is the slice of an order the loyalty core reads and mutates.
// Amount is mutable until payment.
type Order struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Fulfillment Fulfillment     `json:"fulfillment"`
	Lines       []OrderLine     `json:"lines,omitempty"`
	Discounts   []OrderDiscount `json:"discounts,omitempty"`
}

// OrderLine is one product line on an order
type OrderLine struct {
	ProductID       int64           `json:"product_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	MemberExclusive bool            `json:"member_exclusive"`
	MinTierRequired *TierName       `json:"min_tier_required,omitempty"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	MemberDiscount  decimal.Decimal `json:"member_discount"`
}

// Subtotal is UnitPrice times Quantity
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderDiscount is an append-only discount line attached to an order
type OrderDiscount struct {
	ID          int64                  `json:"id"`
	OrderID     int64                  `json:"order_id"`
	Type        DiscountType           `json:"discount_type"`
	Amount      decimal.Decimal        `json:"discount_amount"`
	Description string                 `json:"description"`
	Details     map[string]interface{} `json:"details,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// RoundMoney rounds to cents, half away from zero
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
