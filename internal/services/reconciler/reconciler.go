// Package reconciler реализует движок реконсиляции платёжных событий:
// каждое уведомление провайдера сворачивается в согласованное состояние
// четырёх сущностей — аккаунта, журнала транзакций, подписки и записей
// партнёрской атрибуции.
//
// Этапы выполняются строго последовательно, каждый следующий зависит от
// идентификаторов предыдущего. Сбой на первичном пути (аккаунт,
// транзакция) прерывает запрос; сбои вторичных этапов (подписка,
// атрибуция, уведомление) фиксируются в результате этапа, логируются
// одной строкой и на ответ не влияют — сходимость обеспечивает
// повторная доставка вебхуков провайдером.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/discount-club/internal/config"
	"github.com/magabrotheeeer/discount-club/internal/models"
	"github.com/magabrotheeeer/discount-club/internal/provider"
)

// Repository определяет операции хранилища, которыми пользуется движок.
// Все операции узкие: поиск по полю, создание с генерируемым
// идентификатором, частичное обновление, атомарный инкремент.
type Repository interface {
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	CreateAccount(ctx context.Context, acc models.Account) (string, error)
	UpdateAccountAttribution(ctx context.Context, id, partnerID, eventType string,
		eventDate time.Time, renewalPendingDate *time.Time) error
	SetActivationToken(ctx context.Context, id, token string, expires time.Time) error

	FindTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, tr models.Transaction) (string, error)
	UpdateTransaction(ctx context.Context, id string, tr models.Transaction) error

	FindSubscriptionByAccountAndPartner(ctx context.Context, accountID, partnerID string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub models.Subscription) (string, error)
	UpdateSubscription(ctx context.Context, id string, sub models.Subscription) error

	FindMemberPartnerLink(ctx context.Context, accountID, partnerID string) (*models.MemberPartnerLink, error)
	CreateMemberPartnerLink(ctx context.Context, link models.MemberPartnerLink) (string, error)
	UpdateMemberPartnerLink(ctx context.Context, id string, link models.MemberPartnerLink) error
	IncrementPartnerLinkConversions(ctx context.Context, linkID string) error
}

// Publisher публикует сообщения для сервиса отправки писем.
type Publisher interface {
	PublishActivationEmail(msg models.ActivationEmail) error
}

// TokenGenerator выдаёт криптостойкие одноразовые токены активации.
type TokenGenerator interface {
	Generate() (string, error)
}

// Cache нужен движку только для инвалидации кэша отчётов после записи.
type Cache interface {
	Invalidate(key string) error
}

// StageResult — явный исход одного вторичного этапа конвейера.
// Вторичные сбои не превращаются в ошибки запроса, но и не глотаются
// молча: агрегируются в одну строку лога и метрику.
type StageResult struct {
	Name   string
	OK     bool
	Reason string
}

// Outcome — итог обработки одного события.
type Outcome struct {
	Message        string
	AccountID      *string
	AccountCreated bool
	TransactionID  string
	SubscriptionID string
	EventType      string
	Stages         []StageResult
}

var webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "webhook_events_total",
	Help: "Processed provider webhook events by type and result.",
}, []string{"event_type", "result"})

// Service — движок реконсиляции.
type Service struct {
	repo      Repository
	publisher Publisher
	tokens    TokenGenerator
	cache     Cache
	cfg       config.Membership
	log       *slog.Logger
}

// New создает новый Service с переданными зависимостями.
func New(repo Repository, publisher Publisher, tokens TokenGenerator, cache Cache,
	cfg config.Membership, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		tokens:    tokens,
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

// Process сворачивает одно каноническое событие в состояние хранилища.
//
// Ошибка возвращается только при сбое первичного пути; в этом случае
// ни один последующий этап не выполняется, а уже выполненные записи
// не откатываются.
func (s *Service) Process(ctx context.Context, ev *provider.Event) (*Outcome, error) {
	const op = "reconciler.Process"
	log := s.log.With(slog.String("op", op), slog.String("event_type", ev.Type))

	if ev.Test {
		log.Info("test event ignored")
		webhookEvents.WithLabelValues(ev.Type, "test").Inc()
		return &Outcome{Message: "test event ignored", EventType: ev.Type}, nil
	}

	email := provider.NormalizeEmail(ev.Buyer.Email)

	acc, created, err := s.resolveAccount(ctx, ev, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	txID, err := s.upsertTransaction(ctx, ev, acc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	partnerID := s.partnerFor(ev, acc)

	outcome := &Outcome{
		AccountCreated: created,
		TransactionID:  txID,
		EventType:      ev.Type,
	}
	if acc != nil {
		outcome.AccountID = &acc.ID
	}

	subID, subStage := s.applySubscription(ctx, ev, acc, partnerID, txID)
	outcome.SubscriptionID = subID
	outcome.Stages = append(outcome.Stages, subStage)

	outcome.Stages = append(outcome.Stages, s.updateAttribution(ctx, ev, acc, partnerID, txID))
	outcome.Stages = append(outcome.Stages, s.dispatchActivation(ctx, ev, acc, created))

	if acc != nil {
		if err := s.cache.Invalidate("membership_report:" + partnerID); err != nil {
			log.Warn("failed to invalidate report cache", slog.String("partner_id", partnerID), slog.Any("err", err))
		}
	}

	result := "ok"
	attrs := []any{slog.String("transaction_id", txID)}
	for _, st := range outcome.Stages {
		if !st.OK {
			result = "partial"
		}
		attrs = append(attrs, slog.Group(st.Name,
			slog.Bool("ok", st.OK), slog.String("reason", st.Reason)))
	}
	log.Info("event reconciled", attrs...)
	webhookEvents.WithLabelValues(ev.Type, result).Inc()

	if acc == nil {
		outcome.Message = "transaction recorded without account"
	} else {
		outcome.Message = "event processed"
	}
	return outcome, nil
}

// partnerFor определяет партнёра события: атрибуция из UTM, иначе текущий
// партнёр аккаунта, иначе партнёр по умолчанию из конфигурации.
func (s *Service) partnerFor(ev *provider.Event, acc *models.Account) string {
	if ev.UTM.PartnerID != "" {
		return ev.UTM.PartnerID
	}
	if acc != nil && acc.PartnerID != "" {
		return acc.PartnerID
	}
	return s.cfg.DefaultPartnerID
}

func okStage(name, reason string) StageResult {
	return StageResult{Name: name, OK: true, Reason: reason}
}

func failStage(name string, err error) StageResult {
	return StageResult{Name: name, OK: false, Reason: err.Error()}
}
