package handler

import (
	"net/http"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/points"
)

// OverrideTierRequest sets a member's tier by hand
type OverrideTierRequest struct {
	UserID string `json:"user_id" validate:"required,max=100,excludesall=\x00\n\r\t"`
	Tier   string `json:"tier" validate:"required,tier"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// AdjustPointsRequest credits (positive) or debits (negative) points
type AdjustPointsRequest struct {
	UserID string `json:"user_id" validate:"required,max=100,excludesall=\x00\n\r\t"`
	Delta  int    `json:"delta" validate:"ne=0,min=-1000000,max=1000000"`
	Reason string `json:"reason" validate:"required,max=255"`
}

// ExpirePointsRequest sweeps overdue lots for one user, or for everyone
// when user_id is empty
type ExpirePointsRequest struct {
	UserID string `json:"user_id" validate:"max=100,excludesall=\x00\n\r\t"`
}

// ExpirePointsResponse reports a single-user sweep
type ExpirePointsResponse struct {
	UserID        string `json:"user_id"`
	PointsExpired int    `json:"points_expired"`
}

// HandleAdminOverrideTier applies a manual tier change
func HandleAdminOverrideTier(svc membership.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OverrideTierRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Override tier"); err != nil {
			return
		}

		target, err := domain.ParseTierName(req.Tier)
		if err != nil {
			respondServiceError(w, r, ErrMsgOverrideFailed, err)
			return
		}

		record, err := svc.ManualOverride(r.Context(), req.UserID, target, req.Reason)
		if err != nil {
			respondServiceError(w, r, ErrMsgOverrideFailed, err)
			return
		}

		logger.FromContext(r.Context()).Info(MsgTierOverriddenSuccess, "user_id", req.UserID, "tier", target)
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgTierOverriddenSuccess, Data: record})
	}
}

// HandleAdminAdjustPoints records a manual points adjustment
func HandleAdminAdjustPoints(svc loyalty.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdjustPointsRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Adjust points"); err != nil {
			return
		}

		txn, err := svc.Adjust(r.Context(), req.UserID, req.Delta, req.Reason)
		if err != nil {
			respondServiceError(w, r, ErrMsgAdjustPointsFailed, err)
			return
		}

		logger.FromContext(r.Context()).Info(MsgPointsAdjustedSuccess, "user_id", req.UserID, "delta", req.Delta)
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgPointsAdjustedSuccess, Data: txn})
	}
}

// HandleAdminExpirePoints runs the expiry sweep on demand
func HandleAdminExpirePoints(svc points.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExpirePointsRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Expire points"); err != nil {
			return
		}

		if req.UserID != "" {
			expired, err := svc.SweepExpired(r.Context(), req.UserID)
			if err != nil {
				respondServiceError(w, r, ErrMsgExpirePointsFailed, err)
				return
			}
			respondJSON(w, http.StatusOK, DataResponse{
				Message: MsgPointsExpiredSuccess,
				Data:    ExpirePointsResponse{UserID: req.UserID, PointsExpired: expired},
			})
			return
		}

		report, err := svc.SweepAllExpired(r.Context())
		if err != nil {
			respondServiceError(w, r, ErrMsgExpirePointsFailed, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgPointsExpiredSuccess, Data: report})
	}
}
