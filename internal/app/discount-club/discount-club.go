package discountclub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/discount-club/internal/cache"
	"github.com/magabrotheeeer/discount-club/internal/config"
	libjwt "github.com/magabrotheeeer/discount-club/internal/lib/jwt"
	"github.com/magabrotheeeer/discount-club/internal/lib/token"
	"github.com/magabrotheeeer/discount-club/internal/migrations"
	"github.com/magabrotheeeer/discount-club/internal/rabbitmq"
	reconcilerservice "github.com/magabrotheeeer/discount-club/internal/services/reconciler"
	reportservice "github.com/magabrotheeeer/discount-club/internal/services/report"
	"github.com/magabrotheeeer/discount-club/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и ресурсы основного сервиса.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New собирает приложение: хранилище, миграции, кэш, очередь и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(rabbitConn)
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	reconcilerService := reconcilerservice.New(db, publisher, token.NewMaker(),
		cacheRedis, cfg.Membership, logger)
	reportService := reportservice.New(db, cacheRedis, logger)
	jwtMaker := libjwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, reconcilerService, reportService, db, jwtMaker,
		cfg.Membership.ProviderTokenName)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		return err
	}
}
