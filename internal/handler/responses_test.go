package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

func TestMapServiceErrorToUserMessage(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{domain.ErrInsufficientPoints, http.StatusBadRequest, ErrMsgInsufficientPointsErr},
		{fmt.Errorf("debit: %w", domain.ErrBelowMinimumRedemption), http.StatusBadRequest, ErrMsgBelowMinimumError},
		{fmt.Errorf("%w: 42", domain.ErrOrderNotFound), http.StatusNotFound, ErrMsgOrderNotFoundError},
		{fmt.Errorf("%w: discount_1", domain.ErrDuplicateReference), http.StatusConflict, ErrMsgAlreadyRecordedError},
		{errors.Join(domain.ErrInsufficientPoints, domain.ErrExceedsMaxRedeemable), http.StatusBadRequest, ErrMsgInsufficientPointsErr},
		{domain.ErrTierRequired, http.StatusForbidden, ErrMsgTierRequiredError},
		{domain.ErrDatabaseError, http.StatusInternalServerError, ErrMsgGenericServerError},
		{errors.New("dial tcp 10.0.0.5:5432: i/o timeout"), http.StatusInternalServerError, ErrMsgGenericServerError},
		{nil, http.StatusInternalServerError, ErrMsgUnknownError},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			status, msg := mapServiceErrorToUserMessage(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestRespondJSON_ReusesBuffers(t *testing.T) {
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		respondJSON(w, http.StatusAccepted, SuccessResponse{Message: fmt.Sprintf("msg-%d", i)})

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, fmt.Sprintf(`{"message":"msg-%d"}`+"\n", i), w.Body.String())
	}
}
