package models

import "time"

// PartnerLink — реферальная ссылка партнёра со счётчиком конверсий.
// Счётчик меняется только атомарным инкрементом и только в момент
// создания связки участник-партнёр.
type PartnerLink struct {
	ID          string    // Уникальный идентификатор ссылки
	PartnerID   string    // Партнёр-владелец
	Conversions int       // Монотонный счётчик конверсий
	CreatedAt   time.Time
}
