package models

import "time"

// Статусы подписки.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPending  = "pending"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

// Причины отмены подписки.
const (
	CancelReasonChargeback   = "chargeback"
	CancelReasonUserCanceled = "user_canceled"
)

// Subscription — текущее членство одного аккаунта у одного партнёра.
// Инвариант: не более одной записи на пару (AccountID, PartnerID).
type Subscription struct {
	ID              string     // Уникальный идентификатор (uuid)
	AccountID       string     // Аккаунт-владелец
	PartnerID       string     // Партнёр
	TransactionID   string     // Последняя связанная транзакция
	PlanName        string     // Название плана
	PlanInterval    string     // Интервал плана
	PlanCount       int        // Количество периодов
	Price           float64    // Цена
	PaymentMethod   string     // Способ оплаты
	Status          string     // Текущий статус
	ProviderSubIDs  []string   // Идентификаторы подписки у провайдера
	LastEventType   string     // Тип последнего события
	LastEventDate   *time.Time // Дата последнего события
	StartDate       *time.Time // Начало членства
	ExpirationDate  *time.Time // Окончание членства
	CanceledAt      *time.Time // Когда отменена
	CancelReason    string     // chargeback или user_canceled
	ExpiredAt       *time.Time // Когда истекла
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MemberPartnerLink — денормализованная связка участник-партнёр для отчётов.
// Логически выводима из Subscription, но ведётся отдельно; её отсутствие
// не влияет на корректность подписки. Тот же инвариант уникальности пары.
type MemberPartnerLink struct {
	ID             string     // Уникальный идентификатор (uuid)
	AccountID      string     // Аккаунт
	PartnerID      string     // Партнёр
	TransactionID  string     // Последняя связанная транзакция
	Status         string     // Статус членства
	PlanName       string     // Снимок названия плана на момент создания
	Price          float64    // Снимок цены на момент создания
	ExpirationDate *time.Time // Окончание членства
	LastEventType  string     // Тип последнего события
	LastEventDate  *time.Time // Дата последнего события
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
