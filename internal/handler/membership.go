package handler

import (
	"net/http"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/tier"
)

// HistoryResponse lists tier changes, newest first
type HistoryResponse struct {
	UserID  string                    `json:"user_id"`
	History []domain.TierChangeRecord `json:"history"`
}

// TierView is one catalog tier with its checkout benefits
type TierView struct {
	domain.Tier
	CheckoutBenefits tier.Benefits `json:"checkout_benefits"`
}

// HandleGetMembershipStatus returns the current tier, progress to the next
// tier and recent history
func HandleGetMembershipStatus(svc membership.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetQueryParam(r, w, "user_id")
		if !ok {
			return
		}

		status, err := svc.Status(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetStatusFailed, err)
			return
		}

		respondJSON(w, http.StatusOK, status)
	}
}

// HandleGetMembershipHistory returns a user's tier changes
func HandleGetMembershipHistory(svc membership.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetQueryParam(r, w, "user_id")
		if !ok {
			return
		}
		limit, ok := GetLimitParam(r, w)
		if !ok {
			return
		}

		history, err := svc.UpgradeHistory(r.Context(), userID, limit)
		if err != nil {
			respondServiceError(w, r, ErrMsgGetHistoryFailed, err)
			return
		}
		if history == nil {
			history = []domain.TierChangeRecord{}
		}

		respondJSON(w, http.StatusOK, HistoryResponse{UserID: userID, History: history})
	}
}

// HandleListTiers returns the tier ladder, lowest first
func HandleListTiers(catalog *tier.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tiers := catalog.Tiers()
		views := make([]TierView, len(tiers))
		for i, t := range tiers {
			views[i] = TierView{Tier: t, CheckoutBenefits: catalog.BenefitsFor(t.Name)}
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: views})
	}
}
