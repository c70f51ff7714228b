package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libjwt "github.com/magabrotheeeer/discount-club/internal/lib/jwt"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	maker := libjwt.NewMaker("test_secret", time.Hour)
	validToken, err := maker.GenerateToken("partneradmin", "admin")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectNext     bool
	}{
		{
			name:           "валидный токен пропускается дальше",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:           "заголовок отсутствует",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "заголовок без схемы Bearer",
			authHeader:     validToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "повреждённый токен",
			authHeader:     "Bearer not.a.token",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				username, _ := r.Context().Value(User).(string)
				role, _ := r.Context().Value(Role).(string)
				assert.Equal(t, "partneradmin", username)
				assert.Equal(t, "admin", role)
				w.WriteHeader(http.StatusOK)
			})

			handler := JWTMiddleware(maker, newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/memberships/report", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
		})
	}
}
