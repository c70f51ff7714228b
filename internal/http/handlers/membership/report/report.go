// Package report реализует HTTP-обработчик отчёта по членствам партнёра.
package report

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/discount-club/internal/http/middlewarectx"
	"github.com/magabrotheeeer/discount-club/internal/http/response"
	"github.com/magabrotheeeer/discount-club/internal/lib/sl"
	"github.com/magabrotheeeer/discount-club/internal/models"
)

// Service описывает интерфейс бизнес-логики отчёта.
type Service interface {
	List(ctx context.Context, req models.DummyReportFilter) ([]*models.MembershipReportRow, error)
}

// Handler управляет HTTP-запросами отчёта по членствам.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики отчёта
	validate *validator.Validate // Валидатор структуры входящих данных
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отчёт по членствам партнёра
// @Description Возвращает строки отчёта по членствам с выверкой статуса по дате окончания.
// @Tags Memberships
// @Produce  json
// @Param partner_id query string true "Идентификатор партнёра"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response "Строки отчёта"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /memberships/report [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.membership.report"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	req := models.DummyReportFilter{
		PartnerID: r.URL.Query().Get("partner_id"),
		Limit:     limit,
		Offset:    offset,
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	rows, err := h.service.List(r.Context(), req)
	if err != nil {
		log.Error("failed to build membership report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build report"))
		return
	}

	log.Info("membership report built", slog.Int("rows", len(rows)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"rows": rows,
	}))
}
