package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

const discountColumns = `id, order_id, discount_type, discount_amount::text, description, details, created_at`

type orderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates a repository over the orders the loyalty core may discount
func NewOrderRepository(db *pgxpool.Pool) repository.Orders {
	return &orderRepository{db: db}
}

func listDiscounts(ctx context.Context, q querier, orderID int64) ([]domain.OrderDiscount, error) {
	query := `SELECT ` + discountColumns + ` FROM order_discounts WHERE order_id = $1 ORDER BY id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryDiscounts, err)
	}
	defer rows.Close()

	discounts := []domain.OrderDiscount{}
	for rows.Next() {
		var d domain.OrderDiscount
		var discountType, amount string
		var details []byte
		if err := rows.Scan(&d.ID, &d.OrderID, &discountType, &amount, &d.Description, &details, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryDiscounts, err)
		}
		d.Type = domain.DiscountType(discountType)
		if d.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &d.Details); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrMsgFailedToUnmarshalDetails, err)
			}
		}
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}

func (r *orderRepository) ListDiscounts(ctx context.Context, orderID int64) ([]domain.OrderDiscount, error) {
	return listDiscounts(ctx, r.db, orderID)
}

func (r *orderRepository) BeginTx(ctx context.Context) (repository.OrderTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &orderTx{pgTx: pgTx{tx: tx}}, nil
}

type orderTx struct {
	pgTx
}

func (t *orderTx) GetOrderAmountForUpdate(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var amount string
	err := t.tx.QueryRow(ctx, `SELECT amount::text FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: %d", domain.ErrOrderNotFound, orderID)
		}
		return decimal.Zero, fmt.Errorf("%s: %w", ErrMsgFailedToGetOrder, err)
	}
	return parseDecimal(amount)
}

func (t *orderTx) UpdateOrderAmount(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET amount = $2::numeric, updated_at = NOW() WHERE id = $1`, orderID, amount.String())
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateOrderAmount, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", domain.ErrOrderNotFound, orderID)
	}
	return nil
}

func (t *orderTx) DiscountsForOrder(ctx context.Context, orderID int64) ([]domain.OrderDiscount, error) {
	return listDiscounts(ctx, t.tx, orderID)
}

func (t *orderTx) InsertDiscount(ctx context.Context, discount *domain.OrderDiscount) error {
	if discount.CreatedAt.IsZero() {
		discount.CreatedAt = time.Now()
	}
	var details []byte
	if discount.Details != nil {
		var err error
		if details, err = json.Marshal(discount.Details); err != nil {
			return fmt.Errorf("%s: %w", ErrMsgFailedToMarshalDetails, err)
		}
	}

	query := `
		INSERT INTO order_discounts (order_id, discount_type, discount_amount, description, details, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		RETURNING id`

	err := t.tx.QueryRow(ctx, query,
		discount.OrderID,
		string(discount.Type),
		discount.Amount.String(),
		discount.Description,
		details,
		discount.CreatedAt,
	).Scan(&discount.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertDiscount, err)
	}
	return nil
}
