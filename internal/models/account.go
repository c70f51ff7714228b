// Package models содержит доменные структуры дисконт-клуба: аккаунты,
// транзакции, подписки и записи партнёрской атрибуции.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Статусы аккаунта. Отдельного состояния "pending" нет:
// аккаунт создаётся сразу активным, только по подтверждённой покупке.
const (
	AccountStatusActive = "active"
)

// Account представляет покупателя членства клуба.
// Email — ключ поиска, хранится в нижнем регистре, не более одного
// аккаунта на адрес. Аккаунты создаются только резолвером идентичности
// и никогда не удаляются этой подсистемой.
type Account struct {
	ID                 string     // Уникальный идентификатор (uuid)
	Email              string     // Электронная почта (нижний регистр)
	Name               string     // Отображаемое имя
	Phone              string     // Телефон
	Document           string     // Номер документа
	Address            string     // Почтовый адрес
	BuyerProviderID    string     // Идентификатор покупателя у платёжного провайдера
	PartnerID          string     // Текущий партнёр
	Status             string     // Статус аккаунта
	EmailVerified      bool       // Подтверждён ли email
	ActivationToken    string     // Одноразовый токен активации
	ActivationExpires  *time.Time // Срок действия токена
	RenewalPending     bool       // Ожидается ли продление подписки
	RenewalPendingDate *time.Time // Когда пришло уведомление об ожидании продления
	LastEventType      string     // Тип последнего обработанного события
	LastEventDate      *time.Time // Дата последнего обработанного события
	CreatedAt          time.Time
}
