package report

import (
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

	"github.com/magabrotheeeer/discount-club/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discount-club/internal/models"
)

// MockService реализует интерфейс report.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, req models.DummyReportFilter) ([]*models.MembershipReportRow, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MembershipReportRow), args.Error(1)
}

func TestReportHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		url            string
		username       string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "успешный отчёт",
			url:      "/memberships/report?partner_id=partner-42&limit=10&offset=0",
			username: "partneradmin",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, models.DummyReportFilter{
					PartnerID: "partner-42", Limit: 10, Offset: 0,
				}).Return([]*models.MembershipReportRow{
					{AccountID: "acc-1", Email: "member@example.com", Status: "active"},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"account_id":"acc-1"`,
		},
		{
			name:           "отсутствует авторизация",
			url:            "/memberships/report?partner_id=partner-42",
			username:       "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "ошибка валидации",
			url:            "/memberships/report",
			username:       "partneradmin",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field PartnerID is a required field`,
		},
		{
			name:     "ошибка сервиса",
			url:      "/memberships/report?partner_id=partner-42",
			username: "partneradmin",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, mock.AnythingOfType("models.DummyReportFilter")).
					Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not build report"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			ctx := context.WithValue(req.Context(), middlewarectx.User, tt.username)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
