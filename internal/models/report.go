package models

import "time"

// MembershipReportRow — строка отчёта по членствам партнёра.
// Статус в строке может отличаться от сохранённого: активная подписка
// с истёкшей датой окончания показывается как expired (сверка на чтении,
// хранилище при этом не изменяется).
type MembershipReportRow struct {
	AccountID      string     `json:"account_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	PartnerID      string     `json:"partner_id"`
	PlanName       string     `json:"plan_name"`
	Price          float64    `json:"price"`
	Status         string     `json:"status"`
	StoredStatus   string     `json:"stored_status"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	LastEventType  string     `json:"last_event_type"`
}

// DummyReportFilter используется для приёма параметров отчёта из запроса.
type DummyReportFilter struct {
	PartnerID string `json:"partner_id" validate:"required"`
	Limit     int    `json:"limit" validate:"gte=0"`
	Offset    int    `json:"offset" validate:"gte=0"`
}
