// Package discountclub предоставляет маршруты и сборку основного приложения.
package discountclub

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/discount-club/internal/http/handlers/account/activate"
	"github.com/magabrotheeeer/discount-club/internal/http/handlers/health"
	membershipreport "github.com/magabrotheeeer/discount-club/internal/http/handlers/membership/report"
	"github.com/magabrotheeeer/discount-club/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/discount-club/internal/http/middlewarectx"
	libjwt "github.com/magabrotheeeer/discount-club/internal/lib/jwt"
	reconcilerservice "github.com/magabrotheeeer/discount-club/internal/services/reconciler"
	reportservice "github.com/magabrotheeeer/discount-club/internal/services/report"
	"github.com/magabrotheeeer/discount-club/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	reconcilerService *reconcilerservice.Service,
	reportService *reportservice.Service,
	storage *repository.Storage,
	jwtMaker libjwt.Maker,
	providerTokenName string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Вебхук провайдера (без аутентификации)
		webhookHandler := webhook.New(logger, reconcilerService, providerTokenName)
		r.Post("/payments/webhook", webhookHandler.ServeHTTP)
		r.Options("/payments/webhook", webhookHandler.Preflight)

		// Открытые конечные точки
		r.Get("/accounts/activate", activate.New(logger, storage).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/memberships/report", membershipreport.New(logger, reportService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
