package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
	"github.com/osse101/MallLoyalty_Go/internal/points"
)

// RedemptionRequest asks to validate or perform a points redemption
type RedemptionRequest struct {
	UserID      string          `json:"user_id" validate:"required,max=100,excludesall=\x00\n\r\t"`
	OrderID     int64           `json:"order_id" validate:"omitempty,gt=0"`
	Points      int             `json:"points" validate:"gt=0"`
	OrderAmount decimal.Decimal `json:"order_amount" validate:"gt=0"`
}

// TransactionsResponse lists a user's most recent points transactions
type TransactionsResponse struct {
	UserID       string      `json:"user_id"`
	Transactions interface{} `json:"transactions"`
}

// HandleGetPointsSummary returns balances, points expiring soon and recent activity
func HandleGetPointsSummary(svc points.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetQueryParam(r, w, "user_id")
		if !ok {
			return
		}

		summary, err := svc.GetSummary(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetSummaryFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, summary)
	}
}

// HandleGetPointsTransactions returns up to limit transactions, newest first
func HandleGetPointsTransactions(svc points.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetQueryParam(r, w, "user_id")
		if !ok {
			return
		}
		limit, ok := GetLimitParam(r, w)
		if !ok {
			return
		}

		txns, err := svc.GetTransactions(r.Context(), userID, limit)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetTransactionsFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, TransactionsResponse{UserID: userID, Transactions: txns})
	}
}

// HandleValidateRedemption reports whether a redemption would be accepted.
// A rejected redemption is still a 200 with is_valid=false.
func HandleValidateRedemption(svc loyalty.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RedemptionRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Validate redemption"); err != nil {
			return
		}

		check, err := svc.ValidatePointsRedemption(r.Context(), req.UserID, req.Points, req.OrderAmount)
		if err != nil {
			respondServiceError(w, r, ErrMsgValidateRedeemFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, check)
	}
}

// HandleRedeemPoints exchanges points for a discount on an order
func HandleRedeemPoints(svc loyalty.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RedemptionRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Redeem points"); err != nil {
			return
		}
		if req.OrderID == 0 {
			respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:  ErrMsgInvalidRequestSummary,
				Fields: map[string]string{"order_id": "This field is required"},
			})
			return
		}

		log := logger.FromContext(r.Context())
		log.Debug("Redeem points request", "user_id", req.UserID, "order_id", req.OrderID, "points", req.Points)

		redemption, err := svc.RedeemForOrder(r.Context(), req.UserID, req.OrderID, req.Points, req.OrderAmount)
		if err != nil {
			respondServiceError(w, r, ErrMsgRedeemFailed, err)
			return
		}

		log.Info("Points redeemed", "user_id", req.UserID, "order_id", req.OrderID, "points", req.Points)
		respondJSON(w, http.StatusCreated, redemption)
	}
}
