package provider

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event каноническая запись одного вебхука.
type Event struct {
	Type            string    // Канонический тип события, EventUnknown если не прислан
	Test            bool      // Тестовое/песочное событие
	Buyer           Buyer     // Данные покупателя
	Purchase        Purchase  // Данные покупки
	Products        []Product // Продукты заказа
	SubscriptionIDs []string  // Идентификаторы подписок провайдера
	UTM             UTM       // Атрибуция
	Raw             []byte    // Исходное тело для аудита
}

var knownEvents = []string{
	EventPurchaseConfirmed,
	EventRecurringPaymentConfirmed,
	EventPurchaseRequestConfirmed,
	EventAbandonedCart,
	EventPurchaseRequestExpired,
	EventPaymentRefunded,
	EventChargeback,
	EventSubscriptionCanceled,
	EventSubscriptionExpired,
	EventRenewalPending,
	EventAccessStarted,
	EventAccessEnded,
	EventRefundPeriodOver,
}

// Normalize разбирает сырое тело вебхука в каноническое событие.
//
// Если в теле присутствует объект-обёртка Data, его поля накладываются
// поверх одноимённых полей верхнего уровня (побеждает вложенное,
// слияние неглубокое). Невалидный JSON — единственная ошибка,
// отсутствующий тип события ошибкой не считается.
func Normalize(body []byte) (*Event, error) {
	const op = "provider.Normalize"

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	merged := top
	if wrapper, ok := lookupFold(top, "data"); ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(wrapper, &inner); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		merged = make(map[string]json.RawMessage, len(top)+len(inner))
		for k, v := range top {
			merged[k] = v
		}
		for k, v := range inner {
			merged[k] = v
		}
	}

	// encoding/json сопоставляет ключи с полями без учёта регистра,
	// поэтому варианты написания Event/event/EVENT сходятся сами.
	flat, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var p Payload
	if err := json.Unmarshal(flat, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Event{
		Type:            CanonicalEventType(p.Event),
		Test:            p.Test,
		Buyer:           p.Buyer,
		Purchase:        p.Purchase,
		Products:        p.Products,
		SubscriptionIDs: p.Subscriptions,
		UTM:             p.UTM,
		Raw:             body,
	}, nil
}

// CanonicalEventType приводит тип события к канонической константе.
// Неизвестные непустые значения возвращаются как есть: они уходят
// в обработку по умолчанию, но в журнале транзакций сохраняется
// исходный тип.
func CanonicalEventType(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return EventUnknown
	}
	for _, known := range knownEvents {
		if strings.EqualFold(t, known) {
			return known
		}
	}
	return t
}

// NormalizeEmail приводит email к виду ключа поиска аккаунта.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequiresBuyer сообщает, обязателен ли блок покупателя для события.
// Список фиксированный: все известные типы, кроме информационных,
// которым контекст аккаунта не нужен. Неизвестные типы в список
// не входят и без покупателя не отклоняются.
func RequiresBuyer(eventType string) bool {
	switch eventType {
	case EventRefundPeriodOver, EventUnknown:
		return false
	}
	for _, known := range knownEvents {
		if eventType == known {
			return true
		}
	}
	return false
}

// ResolvesAccount сообщает, выполняется ли для события поиск аккаунта.
// Информационные события из фиксированного списка пропускают
// резолвер целиком, их аккаунт всегда null.
func ResolvesAccount(eventType string) bool {
	return eventType != EventRefundPeriodOver
}

// PaidAt возвращает время оплаты покупки, nil если провайдер его не прислал.
func (e *Event) PaidAt() *time.Time {
	if e.Purchase.ApprovedDate == 0 {
		return nil
	}
	t := time.UnixMilli(e.Purchase.ApprovedDate).UTC()
	return &t
}

func lookupFold(m map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
