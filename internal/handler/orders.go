package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/benefits"
	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
)

// BenefitsEngine applies tier benefits at checkout
type BenefitsEngine interface {
	Apply(ctx context.Context, order *domain.Order) (*benefits.Result, error)
	PriceLines(ctx context.Context, userID string, lines []domain.OrderLine) ([]domain.OrderLine, error)
}

// ApplyBenefitsRequest applies tier discounts to an order. With a non-zero
// order_id the stored order amount is used and the discounts are persisted.
type ApplyBenefitsRequest struct {
	OrderID     int64              `json:"order_id" validate:"gte=0"`
	UserID      string             `json:"user_id" validate:"required,max=100,excludesall=\x00\n\r\t"`
	Amount      decimal.Decimal    `json:"amount" validate:"gte=0"`
	Fulfillment domain.Fulfillment `json:"fulfillment" validate:"omitempty,oneof=pickup delivery"`
}

// CompleteOrderRequest reports a paid order
type CompleteOrderRequest struct {
	OrderID         int64           `json:"order_id" validate:"gt=0"`
	UserID          string          `json:"user_id" validate:"required,max=100,excludesall=\x00\n\r\t"`
	OrderAmount     decimal.Decimal `json:"order_amount" validate:"gte=0"`
	IsFirstPurchase bool            `json:"is_first_purchase"`
}

// PriceLineRequest is one cart line to price
type PriceLineRequest struct {
	ProductID       int64           `json:"product_id" validate:"gt=0"`
	Quantity        int             `json:"quantity" validate:"gt=0,max=10000"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"gte=0"`
	MemberExclusive bool            `json:"member_exclusive"`
	MinTierRequired string          `json:"min_tier_required" validate:"omitempty,tier"`
}

// PriceOrderRequest prices a cart for a user. user_id may be empty for guests.
type PriceOrderRequest struct {
	UserID string             `json:"user_id" validate:"max=100,excludesall=\x00\n\r\t"`
	Lines  []PriceLineRequest `json:"lines" validate:"required,min=1,max=200,dive"`
}

// PriceOrderResponse carries the priced lines and their total
type PriceOrderResponse struct {
	Lines    []domain.OrderLine `json:"lines"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

// HandleApplyBenefits applies the purchaser's tier discounts to an order
func HandleApplyBenefits(engine BenefitsEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ApplyBenefitsRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Apply benefits"); err != nil {
			return
		}

		fulfillment := req.Fulfillment
		if fulfillment == "" {
			fulfillment = domain.FulfillmentDelivery
		}
		order := &domain.Order{
			ID:          req.OrderID,
			UserID:      req.UserID,
			Amount:      req.Amount,
			Fulfillment: fulfillment,
		}

		result, err := engine.Apply(r.Context(), order)
		if err != nil {
			respondServiceError(w, r, ErrMsgApplyBenefitsFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// HandleCompleteOrder awards points and updates spending for a paid order.
// Step failures are reported in the body without failing the request.
func HandleCompleteOrder(svc loyalty.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompleteOrderRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Complete order"); err != nil {
			return
		}

		completion, err := svc.HandleOrderCompletion(r.Context(), req.UserID, req.OrderAmount, req.OrderID, req.IsFirstPurchase)
		if err != nil {
			respondServiceError(w, r, ErrMsgCompleteOrderFailed, err)
			return
		}

		msg := MsgOrderCompletedSuccess
		if err := completion.Err(); err != nil {
			logger.FromContext(r.Context()).Warn(MsgOrderCompletedPartial, "order_id", req.OrderID, "error", err)
			msg = MsgOrderCompletedPartial
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: msg, Data: completion})
	}
}

// HandlePriceOrder applies member pricing to cart lines
func HandlePriceOrder(engine BenefitsEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PriceOrderRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Price order"); err != nil {
			return
		}

		lines := make([]domain.OrderLine, len(req.Lines))
		for i, l := range req.Lines {
			lines[i] = domain.OrderLine{
				ProductID:       l.ProductID,
				Quantity:        l.Quantity,
				UnitPrice:       l.UnitPrice,
				MemberExclusive: l.MemberExclusive,
			}
			if l.MinTierRequired != "" {
				name, err := domain.ParseTierName(l.MinTierRequired)
				if err != nil {
					respondServiceError(w, r, ErrMsgPriceOrderFailed, err)
					return
				}
				lines[i].MinTierRequired = &name
			}
		}

		priced, err := engine.PriceLines(r.Context(), req.UserID, lines)
		if err != nil {
			respondServiceError(w, r, ErrMsgPriceOrderFailed, err)
			return
		}

		subtotal := decimal.Zero
		for _, l := range priced {
			subtotal = subtotal.Add(l.Subtotal())
		}
		respondJSON(w, http.StatusOK, PriceOrderResponse{Lines: priced, Subtotal: subtotal})
	}
}
