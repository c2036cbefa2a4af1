package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// maxPooledBuffer keeps unusually large responses from pinning memory in the pool
const maxPooledBuffer = 64 << 10

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// respondJSON encodes payload into a pooled buffer and writes it with status.
// An encoding failure becomes a 500 since nothing has been sent yet.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		if buf.Cap() <= maxPooledBuffer {
			buf.Reset()
			bufferPool.Put(buf)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + ErrMsgGenericServerError + `"}` + "\n"))
		return
	}

	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError logs a service failure and writes the mapped user message
func respondServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, msg := mapServiceErrorToUserMessage(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(action, "error", err)
	} else {
		log.Warn(action, "error", err, "status", status)
	}
	respondError(w, status, msg)
}

// User-facing error messages for service errors
const (
	// Generic messages
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"
	ErrMsgInvalidInputError  = "Invalid request. Please check your inputs."

	// Points messages
	ErrMsgInvalidPointsError    = "Points amount must be positive"
	ErrMsgInsufficientPointsErr = "Not enough points"
	ErrMsgBelowMinimumError     = "Redemption is below the minimum of 500 points"
	ErrMsgExceedsMaxRedeemErr   = "Redemption exceeds 50% of the order amount"
	ErrMsgAlreadyRecordedError  = "This points transaction was already recorded"
	ErrMsgAccountNotFoundError  = "Points account not found"
	ErrMsgRuleNotFoundError     = "Points rule not found"
	ErrMsgRedemptionNotFoundErr = "No points were redeemed on this order"
	ErrMsgInvalidSpendingErr    = "Spending change must not be negative"

	// Membership messages
	ErrMsgNoMembershipError = "User has no membership"
	ErrMsgTierNotFoundError = "Unknown membership tier"
	ErrMsgTierRequiredError = "Membership tier too low"

	// Order messages
	ErrMsgOrderNotFoundError   = "Order not found"
	ErrMsgBenefitsAppliedError = "Membership benefits were already applied to this order"
)

// mapServiceErrorToUserMessage maps domain errors to HTTP status codes and
// messages users can act upon. Unrecognized errors never leak their text.
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidInputError
	case errors.Is(err, domain.ErrInvalidPointsAmount):
		return http.StatusBadRequest, ErrMsgInvalidPointsError
	case errors.Is(err, domain.ErrInsufficientPoints):
		return http.StatusBadRequest, ErrMsgInsufficientPointsErr
	case errors.Is(err, domain.ErrBelowMinimumRedemption):
		return http.StatusBadRequest, ErrMsgBelowMinimumError
	case errors.Is(err, domain.ErrExceedsMaxRedeemable):
		return http.StatusBadRequest, ErrMsgExceedsMaxRedeemErr
	case errors.Is(err, domain.ErrInvalidSpendingDelta):
		return http.StatusBadRequest, ErrMsgInvalidSpendingErr
	case errors.Is(err, domain.ErrTierNotFound):
		return http.StatusBadRequest, ErrMsgTierNotFoundError
	case errors.Is(err, domain.ErrDuplicateReference), errors.Is(err, domain.ErrSpendingRecorded):
		return http.StatusConflict, ErrMsgAlreadyRecordedError
	case errors.Is(err, domain.ErrBenefitsApplied):
		return http.StatusConflict, ErrMsgBenefitsAppliedError
	case errors.Is(err, domain.ErrTierRequired):
		return http.StatusForbidden, ErrMsgTierRequiredError
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, ErrMsgAccountNotFoundError
	case errors.Is(err, domain.ErrNoMembership):
		return http.StatusNotFound, ErrMsgNoMembershipError
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, ErrMsgOrderNotFoundError
	case errors.Is(err, domain.ErrRedemptionNotFound):
		return http.StatusNotFound, ErrMsgRedemptionNotFoundErr
	case errors.Is(err, domain.ErrRuleNotFound):
		return http.StatusNotFound, ErrMsgRuleNotFoundError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
