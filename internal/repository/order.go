package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

// Orders defines the order fields the loyalty core may change
type Orders interface {
	ListDiscounts(ctx context.Context, orderID int64) ([]domain.OrderDiscount, error)
	BeginTx(ctx context.Context) (OrderTx, error)
}

// OrderTx applies discounts and the resulting amount atomically
type OrderTx interface {
	Tx
	GetOrderAmountForUpdate(ctx context.Context, orderID int64) (decimal.Decimal, error)
	UpdateOrderAmount(ctx context.Context, orderID int64, amount decimal.Decimal) error
	// DiscountsForOrder reads the discounts already recorded, after the order row is locked
	DiscountsForOrder(ctx context.Context, orderID int64) ([]domain.OrderDiscount, error)
	InsertDiscount(ctx context.Context, discount *domain.OrderDiscount) error
}
