package handler

import (
	"net/http"

	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
)

// RegisterUserRequest enrolls a new user
type RegisterUserRequest struct {
	UserID string `json:"user_id" validate:"required,max=100,excludesall=\x00\n\r\t"`
}

// HandleRegisterUser creates the membership and points account and credits
// the registration bonus. Registering twice is safe.
func HandleRegisterUser(svc loyalty.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterUserRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Register user"); err != nil {
			return
		}

		reg, err := svc.HandleUserRegistration(r.Context(), req.UserID)
		if err != nil {
			respondServiceError(w, r, ErrMsgRegisterUserFailed, err)
			return
		}

		logger.FromContext(r.Context()).Info(MsgUserRegisteredSuccess, "user_id", req.UserID, "bonus", reg.Bonus != nil)
		respondJSON(w, http.StatusCreated, DataResponse{Message: MsgUserRegisteredSuccess, Data: reg})
	}
}
