package models

import "time"

// Статусы транзакции, вычисляются из типа события вебхука.
const (
	TransactionStatusActive         = "active"
	TransactionStatusPending        = "pending"
	TransactionStatusAbandoned      = "abandoned"
	TransactionStatusRefunded       = "refunded"
	TransactionStatusCanceled       = "canceled"
	TransactionStatusExpired        = "expired"
	TransactionStatusRenewalPending = "renewal_pending"
)

// Transaction — запись одного заказа платёжного провайдера.
// OrderID — внешний идентификатор заказа и ключ дедупликации:
// не более одной транзакции на заказ, повторные события по тому же
// заказу перезаписывают изменяемые поля.
type Transaction struct {
	ID              string     // Уникальный идентификатор (uuid)
	OrderID         string     // Идентификатор заказа у провайдера, ключ дедупликации
	Amount          float64    // Сумма заказа
	PaymentMethod   string     // Способ оплаты
	Installments    int        // Количество платежей в рассрочке
	PaidAt          *time.Time // Дата оплаты
	PlanName        string     // Название тарифного плана
	PlanInterval    string     // Интервал плана (month, year и т.п.)
	PlanCount       int        // Количество периодов плана
	Status          string     // Статус по таблице соответствия событий
	AccountID       *string    // Аккаунт, может отсутствовать
	BuyerID         string     // Идентификатор покупателя у провайдера
	AffiliateID     string     // Идентификатор аффилиата
	SubscriptionIDs []string   // Идентификаторы подписок провайдера
	EventType       string     // Исходный тип события
	RawPayload      string     // Исходное тело вебхука для аудита
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
