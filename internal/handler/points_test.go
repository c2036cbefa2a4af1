package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
)

func decEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestHandleGetPointsSummary(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &MockPointsService{}
		svc.On("GetSummary", mock.Anything, "u-1").Return(&domain.PointsSummary{
			AvailablePoints: 450,
			TotalPoints:     450,
			ExpiringSoon:    50,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/points/summary?user_id=u-1", nil)
		w := httptest.NewRecorder()
		HandleGetPointsSummary(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var got domain.PointsSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 450, got.AvailablePoints)
		assert.Equal(t, 50, got.ExpiringSoon)
		svc.AssertExpectations(t)
	})

	t.Run("Missing user_id", func(t *testing.T) {
		svc := &MockPointsService{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/points/summary", nil)
		w := httptest.NewRecorder()
		HandleGetPointsSummary(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), fmt.Sprintf(ErrMsgMissingQueryParam, "user_id"))
		svc.AssertNotCalled(t, "GetSummary", mock.Anything, mock.Anything)
	})

	t.Run("Service error is not leaked", func(t *testing.T) {
		svc := &MockPointsService{}
		svc.On("GetSummary", mock.Anything, "u-1").Return(nil, errors.New("pq: connection reset"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/points/summary?user_id=u-1", nil)
		w := httptest.NewRecorder()
		HandleGetPointsSummary(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), ErrMsgGenericServerError)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestHandleGetPointsTransactions(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		expectedLimit int
		expectedCode  int
	}{
		{"default limit", "user_id=u-1", DefaultListLimit, http.StatusOK},
		{"explicit limit", "user_id=u-1&limit=5", 5, http.StatusOK},
		{"limit capped", "user_id=u-1&limit=5000", MaxListLimit, http.StatusOK},
		{"bad limit", "user_id=u-1&limit=abc", 0, http.StatusBadRequest},
		{"zero limit", "user_id=u-1&limit=0", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockPointsService{}
			if tt.expectedCode == http.StatusOK {
				svc.On("GetTransactions", mock.Anything, "u-1", tt.expectedLimit).
					Return([]domain.PointsTransaction{{ID: 1, Type: domain.TransactionEarning, Amount: 100}}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/points/transactions?"+tt.query, nil)
			w := httptest.NewRecorder()
			HandleGetPointsTransactions(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"transaction_type":"earning"`)
			} else {
				assert.Contains(t, w.Body.String(), ErrMsgInvalidLimit)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleValidateRedemption(t *testing.T) {
	InitValidator()

	t.Run("Rejected redemption is still 200", func(t *testing.T) {
		svc := &MockLoyaltyService{}
		svc.On("ValidatePointsRedemption", mock.Anything, "u-1", 50, decEq("100.00")).Return(&loyalty.RedemptionCheck{
			IsValid:        false,
			Errors:         []string{"below minimum redemption"},
			MaxRedeemable:  500,
			DiscountAmount: decimal.RequireFromString("0.50"),
		}, nil)

		body := jsonBody(t, RedemptionRequest{UserID: "u-1", Points: 50, OrderAmount: decimal.RequireFromString("100.00")})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/points/redemption/validate", body)
		w := httptest.NewRecorder()
		HandleValidateRedemption(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_valid":false`)
		assert.Contains(t, w.Body.String(), `"max_redeemable":500`)
		svc.AssertExpectations(t)
	})

	t.Run("Invalid request", func(t *testing.T) {
		svc := &MockLoyaltyService{}
		body := jsonBody(t, RedemptionRequest{UserID: "u-1", Points: 0, OrderAmount: decimal.RequireFromString("100")})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/points/redemption/validate", body)
		w := httptest.NewRecorder()
		HandleValidateRedemption(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"points"`)
	})
}

func TestHandleRedeemPoints(t *testing.T) {
	InitValidator()

	tests := []struct {
		name           string
		request        interface{}
		setupMock      func(*MockLoyaltyService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "Success",
			request: RedemptionRequest{UserID: "u-1", OrderID: 42, Points: 200, OrderAmount: decimal.RequireFromString("100.00")},
			setupMock: func(m *MockLoyaltyService) {
				m.On("RedeemForOrder", mock.Anything, "u-1", int64(42), 200, decEq("100")).Return(&loyalty.Redemption{
					OrderID:     42,
					Points:      200,
					OrderAmount: decimal.RequireFromString("98.00"),
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"order_amount":"98"`,
		},
		{
			name:           "Missing order id",
			request:        RedemptionRequest{UserID: "u-1", Points: 200, OrderAmount: decimal.RequireFromString("100.00")},
			setupMock:      func(m *MockLoyaltyService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"order_id"`,
		},
		{
			name:    "Insufficient points",
			request: RedemptionRequest{UserID: "u-1", OrderID: 42, Points: 200, OrderAmount: decimal.RequireFromString("100.00")},
			setupMock: func(m *MockLoyaltyService) {
				m.On("RedeemForOrder", mock.Anything, "u-1", int64(42), 200, mock.Anything).
					Return(nil, fmt.Errorf("%w: have 50, need 200", domain.ErrInsufficientPoints))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInsufficientPointsErr,
		},
		{
			name:    "Exceeds half the order",
			request: RedemptionRequest{UserID: "u-1", OrderID: 42, Points: 6000, OrderAmount: decimal.RequireFromString("100.00")},
			setupMock: func(m *MockLoyaltyService) {
				m.On("RedeemForOrder", mock.Anything, "u-1", int64(42), 6000, mock.Anything).
					Return(nil, domain.ErrExceedsMaxRedeemable)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgExceedsMaxRedeemErr,
		},
		{
			name:    "Already redeemed",
			request: RedemptionRequest{UserID: "u-1", OrderID: 42, Points: 200, OrderAmount: decimal.RequireFromString("100.00")},
			setupMock: func(m *MockLoyaltyService) {
				m.On("RedeemForOrder", mock.Anything, "u-1", int64(42), 200, mock.Anything).
					Return(nil, fmt.Errorf("%w: discount_42", domain.ErrDuplicateReference))
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   ErrMsgAlreadyRecordedError,
		},
		{
			name:           "Malformed JSON",
			request:        "{not json",
			setupMock:      func(m *MockLoyaltyService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   ErrMsgInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockLoyaltyService{}
			tt.setupMock(svc)

			var body *bytes.Reader
			if s, ok := tt.request.(string); ok {
				body = bytes.NewReader([]byte(s))
			} else {
				body = jsonBody(t, tt.request)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/points/redeem", body)
			w := httptest.NewRecorder()
			HandleRedeemPoints(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
