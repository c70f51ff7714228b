package webhook

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/discount-club/internal/provider"
	"github.com/magabrotheeeer/discount-club/internal/services/reconciler"
)

// MockService реализует интерфейс webhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Process(ctx context.Context, ev *provider.Event) (*reconciler.Outcome, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconciler.Outcome), args.Error(1)
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	accID := "acc-1"

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная обработка подтверждённой покупки",
			body: `{"Event":"Purchase_Order_Confirmed","Buyer":{"Email":"buyer@example.com"},"Purchase":{"PaymentId":"order-1"}}`,
			setupMock: func(m *MockService) {
				m.On("Process", mock.Anything, mock.MatchedBy(func(ev *provider.Event) bool {
					return ev.Type == provider.EventPurchaseConfirmed
				})).Return(&reconciler.Outcome{
					Message:        "event processed",
					AccountID:      &accID,
					AccountCreated: true,
					TransactionID:  "tx-1",
					SubscriptionID: "sub-1",
					EventType:      provider.EventPurchaseConfirmed,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"userId":"acc-1","userCreated":true,"transactionId":"tx-1","subscriptionId":"sub-1"`,
		},
		{
			name: "транзакция без аккаунта отвечает 200 с null userId",
			body: `{"Event":"Purchase_Refund_Period_Over","Purchase":{"PaymentId":"order-2"}}`,
			setupMock: func(m *MockService) {
				m.On("Process", mock.Anything, mock.Anything).Return(&reconciler.Outcome{
					Message:       "transaction recorded without account",
					TransactionID: "tx-2",
					EventType:     provider.EventRefundPeriodOver,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"userId":null`,
		},
		{
			name:           "невалидный JSON",
			body:           `not a json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "отсутствует блок покупателя для события с аккаунтом",
			body:           `{"Event":"Purchase_Order_Confirmed","Purchase":{"PaymentId":"order-3"}}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"missing buyer data"}`,
		},
		{
			name: "событие без типа проходит без покупателя",
			body: `{"Purchase":{"PaymentId":"order-4"}}`,
			setupMock: func(m *MockService) {
				m.On("Process", mock.Anything, mock.MatchedBy(func(ev *provider.Event) bool {
					return ev.Type == provider.EventUnknown
				})).Return(&reconciler.Outcome{
					Message:       "transaction recorded without account",
					TransactionID: "tx-4",
					EventType:     provider.EventUnknown,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"eventType":"Unknown"`,
		},
		{
			name: "сбой первичного пути",
			body: `{"Event":"Purchase_Order_Confirmed","Buyer":{"Email":"buyer@example.com"},"Purchase":{"PaymentId":"order-5"}}`,
			setupMock: func(m *MockService) {
				m.On("Process", mock.Anything, mock.Anything).
					Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not process event"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, "X-Provider-Token")

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-id"))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}

func TestWebhookPreflight(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := New(logger, new(MockService), "X-Provider-Token")

	req := httptest.NewRequest(http.MethodOptions, "/payments/webhook", nil)
	w := httptest.NewRecorder()

	handler.Preflight(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Provider-Token")
}
