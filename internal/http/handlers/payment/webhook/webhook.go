// Package webhook реализует HTTP-обработчик входящих вебхуков платёжного
// провайдера — единственную точку входа движка реконсиляции.
//
// Невалидный JSON — единственный случай, когда запрос отклоняется до
// каких-либо записей. Сбой первичного пути отвечает 500, всё остальное —
// 200 с теми идентификаторами, которые удалось получить: провайдер
// повторяет доставку только по не-2xx ответам.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/discount-club/internal/http/response"
	"github.com/magabrotheeeer/discount-club/internal/lib/sl"
	"github.com/magabrotheeeer/discount-club/internal/provider"
	"github.com/magabrotheeeer/discount-club/internal/services/reconciler"
)

// Service описывает интерфейс движка реконсиляции.
type Service interface {
	Process(ctx context.Context, ev *provider.Event) (*reconciler.Outcome, error)
}

// Handler управляет HTTP-запросами вебхуков провайдера.
type Handler struct {
	log               *slog.Logger // Логгер для записи информации и ошибок
	service           Service      // Движок реконсиляции
	providerTokenName string       // Имя заголовка токена провайдера для CORS
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, providerTokenName string) *Handler {
	return &Handler{
		log:               log,
		service:           service,
		providerTokenName: providerTokenName,
	}
}

// WebhookResponse — контракт ответа вебхука.
type WebhookResponse struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	UserID         *string `json:"userId"`
	UserCreated    bool    `json:"userCreated"`
	TransactionID  string  `json:"transactionId,omitempty"`
	SubscriptionID string  `json:"subscriptionId,omitempty"`
	EventType      string  `json:"eventType,omitempty"`
}

// ServeHTTP godoc
// @Summary Принять вебхук платёжного провайдера
// @Description Сворачивает уведомление провайдера в состояние аккаунта, транзакции, подписки и атрибуции.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Success 200 {object} WebhookResponse "Событие обработано"
// @Failure 400 {object} response.ErrorResponse "Невалидный JSON или отсутствует блок покупателя"
// @Failure 500 {object} response.ErrorResponse "Сбой первичного пути записи"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer func() { _ = r.Body.Close() }()

	ev, err := provider.Normalize(body)
	if err != nil {
		log.Error("failed to parse webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("webhook payload normalized", slog.String("event_type", ev.Type))

	if provider.RequiresBuyer(ev.Type) && provider.NormalizeEmail(ev.Buyer.Email) == "" {
		log.Error("missing buyer data for account-dependent event",
			slog.String("event_type", ev.Type))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing buyer data"))
		return
	}

	outcome, err := h.service.Process(r.Context(), ev)
	if err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process event"))
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event_type", outcome.EventType),
		slog.String("transaction_id", outcome.TransactionID))
	render.JSON(w, r, WebhookResponse{
		Status:         response.StatusOK,
		Message:        outcome.Message,
		UserID:         outcome.AccountID,
		UserCreated:    outcome.AccountCreated,
		TransactionID:  outcome.TransactionID,
		SubscriptionID: outcome.SubscriptionID,
		EventType:      outcome.EventType,
	})
}

// Preflight отвечает на OPTIONS-запрос провайдера разрешающими CORS-заголовками.
func (h *Handler) Preflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+h.providerTokenName)
	w.WriteHeader(http.StatusNoContent)
}
