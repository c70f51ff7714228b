package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/discount-club/internal/models"
	"github.com/magabrotheeeer/discount-club/internal/provider"
)

// TransactionStatusForEvent вычисляет статус транзакции по типу события.
// Второе значение false означает, что тип в таблицу не входит и статус
// взят по умолчанию.
func TransactionStatusForEvent(eventType string) (string, bool) {
	switch eventType {
	case provider.EventPurchaseConfirmed, provider.EventRecurringPaymentConfirmed:
		return models.TransactionStatusActive, true
	case provider.EventPurchaseRequestConfirmed:
		return models.TransactionStatusPending, true
	case provider.EventAbandonedCart, provider.EventPurchaseRequestExpired:
		return models.TransactionStatusAbandoned, true
	case provider.EventPaymentRefunded, provider.EventChargeback:
		return models.TransactionStatusRefunded, true
	case provider.EventSubscriptionCanceled:
		return models.TransactionStatusCanceled, true
	case provider.EventSubscriptionExpired:
		return models.TransactionStatusExpired, true
	case provider.EventRenewalPending:
		return models.TransactionStatusRenewalPending, true
	}
	return models.TransactionStatusActive, false
}

// upsertTransaction идемпотентно записывает транзакцию заказа.
//
// Ключ дедупликации — идентификатор заказа провайдера: повторное событие
// по тому же заказу перезаписывает изменяемые поля существующей записи.
// Запись выполняется безусловно, даже без аккаунта — каждый вебхук
// оставляет след в журнале. Дедупликация выполняется по схеме
// "прочитал-записал": одновременные доставки одного заказа могут дать
// дубликат, сходимость обеспечивают повторы провайдера.
func (s *Service) upsertTransaction(ctx context.Context, ev *provider.Event, acc *models.Account) (string, error) {
	const op = "reconciler.upsertTransaction"
	log := s.log.With(slog.String("op", op), slog.String("event_type", ev.Type))

	status, mapped := TransactionStatusForEvent(ev.Type)
	if !mapped {
		log.Warn("unmapped event type, transaction status defaulted",
			slog.String("status", status))
		webhookEvents.WithLabelValues(ev.Type, "unmapped").Inc()
	}

	tr := models.Transaction{
		OrderID:         ev.Purchase.PaymentID,
		Amount:          ev.Purchase.Price.Value,
		PaymentMethod:   ev.Purchase.PaymentMethod,
		Installments:    ev.Purchase.Installments,
		PaidAt:          ev.PaidAt(),
		PlanName:        ev.Purchase.Plan.Name,
		PlanInterval:    ev.Purchase.Plan.Interval,
		PlanCount:       ev.Purchase.Plan.Count,
		Status:          status,
		BuyerID:         ev.Buyer.BuyerID,
		AffiliateID:     ev.Purchase.Affiliate.ID,
		SubscriptionIDs: ev.SubscriptionIDs,
		EventType:       ev.Type,
		RawPayload:      string(ev.Raw),
	}
	if acc != nil {
		tr.AccountID = &acc.ID
	}

	existing, err := s.repo.FindTransactionByOrderID(ctx, tr.OrderID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		if err := s.repo.UpdateTransaction(ctx, existing.ID, tr); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		log.Info("transaction updated", slog.String("transaction_id", existing.ID),
			slog.String("order_id", tr.OrderID), slog.String("status", status))
		return existing.ID, nil
	}

	id, err := s.repo.CreateTransaction(ctx, tr)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	log.Info("transaction created", slog.String("transaction_id", id),
		slog.String("order_id", tr.OrderID), slog.String("status", status))
	return id, nil
}
