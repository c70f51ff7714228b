// Package provider описывает формат вебхуков платёжного провайдера
// и нормализацию их в каноническое событие.
//
// Провайдер присылает поля либо на верхнем уровне тела, либо вложенными
// в объект-обёртку Data, а ключ типа события встречается в разных
// регистрах. Нормализация выполняется в два этапа: слияние обёртки
// с верхним уровнем (поля обёртки побеждают) и декодирование в одну
// каноническую запись. Дальше по конвейеру ветвлений по форме
// сырого JSON больше нет.
package provider

// Типы событий провайдера. Сопоставление входящих значений
// выполняется без учёта регистра.
const (
	// EventPurchaseConfirmed — покупка подтверждена, терминальное событие оплаты.
	EventPurchaseConfirmed = "Purchase_Order_Confirmed"
	// EventRecurringPaymentConfirmed — подтверждён повторный платёж подписки.
	EventRecurringPaymentConfirmed = "Recurring_Payment_Confirmed"
	// EventPurchaseRequestConfirmed — заказ создан, ожидает оплаты.
	EventPurchaseRequestConfirmed = "Purchase_Request_Confirmed"
	// EventAbandonedCart — покупатель бросил корзину.
	EventAbandonedCart = "Abandoned_Cart"
	// EventPurchaseRequestExpired — заказ ожидал оплату и истёк.
	EventPurchaseRequestExpired = "Purchase_Request_Expired"
	// EventPaymentRefunded — платёж возвращён покупателю.
	EventPaymentRefunded = "Payment_Refunded"
	// EventChargeback — платёж опротестован через банк.
	EventChargeback = "Payment_Chargeback"
	// EventSubscriptionCanceled — подписка отменена пользователем.
	EventSubscriptionCanceled = "Subscription_Canceled"
	// EventSubscriptionExpired — подписка истекла.
	EventSubscriptionExpired = "Subscription_Expired"
	// EventRenewalPending — провайдер ожидает продления подписки.
	EventRenewalPending = "Subscription_Renewal_Pending"
	// EventAccessStarted — открыт доступ к продукту.
	EventAccessStarted = "Product_Access_Started"
	// EventAccessEnded — закрыт доступ к продукту.
	EventAccessEnded = "Product_Access_Ended"
	// EventRefundPeriodOver — информационное: период возврата закончился.
	EventRefundPeriodOver = "Purchase_Refund_Period_Over"
	// EventUnknown — сентинел для отсутствующего типа события.
	// Не является ошибкой, событие уходит в обработку по умолчанию.
	EventUnknown = "Unknown"
)

// Buyer блок данных покупателя.
type Buyer struct {
	Email    string `json:"Email"`
	Name     string `json:"Name"`
	Phone    string `json:"Phone"`
	Document string `json:"Document"`
	Address  string `json:"Address"`
	BuyerID  string `json:"BuyerId"`
}

// Price сумма заказа.
type Price struct {
	Value    float64 `json:"Value"`
	Currency string  `json:"Currency"`
}

// Plan тарифный план подписки.
type Plan struct {
	Name     string `json:"Name"`
	Interval string `json:"Interval"`
	Count    int    `json:"Count"`
}

// Affiliate блок аффилиата внутри покупки.
type Affiliate struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Purchase блок данных покупки.
type Purchase struct {
	PaymentID     string            `json:"PaymentId"` // идентификатор заказа, ключ дедупликации
	Price         Price             `json:"Price"`
	PaymentMethod string            `json:"PaymentMethod"`
	Installments  int               `json:"Installments"`
	ApprovedDate  int64             `json:"ApprovedDate"` // unix-время в миллисекундах
	Plan          Plan              `json:"Plan"`
	Affiliate     Affiliate         `json:"Affiliate"`
	Metadata      map[string]string `json:"Metadata"`
}

// Product элемент списка продуктов заказа.
type Product struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// UTM необязательный блок атрибуции.
type UTM struct {
	PartnerID    string `json:"PartnerId"`
	SourceLinkID string `json:"SourceLinkId"` // реферальная ссылка для счётчика конверсий
	Source       string `json:"Source"`
	Medium       string `json:"Medium"`
	Campaign     string `json:"Campaign"`
}

// Payload структурная форма тела вебхука после слияния обёртки.
type Payload struct {
	Event         string    `json:"Event"`
	Test          bool      `json:"Test"`
	Buyer         Buyer     `json:"Buyer"`
	Purchase      Purchase  `json:"Purchase"`
	Products      []Product `json:"Products"`
	Subscriptions []string  `json:"Subscriptions"`
	UTM           UTM       `json:"Utm"`
}
