// Package activate реализует HTTP-обработчик активации аккаунта по токену
// из письма. Токен одноразовый, срок действия ограничен.
package activate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/discount-club/internal/http/response"
	"github.com/magabrotheeeer/discount-club/internal/lib/sl"
	"github.com/magabrotheeeer/discount-club/internal/models"
)

// Service описывает операции хранилища, нужные активации.
type Service interface {
	FindAccountByActivationToken(ctx context.Context, token string) (*models.Account, error)
	MarkEmailVerified(ctx context.Context, id string) error
}

// Handler управляет HTTP-запросами активации аккаунта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Активировать аккаунт
// @Description Подтверждает email аккаунта по одноразовому токену из письма активации.
// @Tags Accounts
// @Produce  json
// @Param token query string true "Токен активации"
// @Success 200 {object} response.Response "Email подтверждён"
// @Failure 400 {object} response.ErrorResponse "Токен не передан"
// @Failure 404 {object} response.ErrorResponse "Токен никому не принадлежит"
// @Failure 410 {object} response.ErrorResponse "Срок действия токена истёк"
// @Router /accounts/activate [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.activate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		log.Error("missing activation token")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing activation token"))
		return
	}

	acc, err := h.service.FindAccountByActivationToken(r.Context(), tokenStr)
	if err != nil {
		log.Error("failed to look up activation token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not activate account"))
		return
	}
	if acc == nil {
		log.Info("unknown activation token")
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown activation token"))
		return
	}
	if acc.ActivationExpires == nil || acc.ActivationExpires.Before(time.Now().UTC()) {
		log.Info("expired activation token", slog.String("account_id", acc.ID))
		w.WriteHeader(http.StatusGone)
		render.JSON(w, r, response.Error("activation token expired"))
		return
	}

	if err := h.service.MarkEmailVerified(r.Context(), acc.ID); err != nil {
		log.Error("failed to mark email verified", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not activate account"))
		return
	}

	log.Info("account activated", slog.String("account_id", acc.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"account_id": acc.ID,
	}))
}
