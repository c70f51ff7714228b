package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/discount-club/internal/models"
	"github.com/magabrotheeeer/discount-club/internal/provider"
)

// SubscriptionStatusForEvent вычисляет целевой статус подписки по типу
// события. Второе значение false означает, что тип не входит в таблицу:
// существующая подписка сохраняет текущий статус.
func SubscriptionStatusForEvent(eventType string) (string, bool) {
	switch eventType {
	case provider.EventPurchaseConfirmed, provider.EventRecurringPaymentConfirmed,
		provider.EventAccessStarted:
		return models.SubscriptionStatusActive, true
	case provider.EventSubscriptionCanceled, provider.EventChargeback:
		return models.SubscriptionStatusCanceled, true
	case provider.EventSubscriptionExpired, provider.EventAccessEnded:
		return models.SubscriptionStatusExpired, true
	case provider.EventRenewalPending:
		return models.SubscriptionStatusPending, true
	}
	return "", false
}

func isPaymentConfirming(eventType string) bool {
	return eventType == provider.EventPurchaseConfirmed ||
		eventType == provider.EventRecurringPaymentConfirmed
}

// applySubscription приводит подписку пары (аккаунт, партнёр) к целевому
// состоянию. На пару существует не более одной подписки.
//
// Новая подписка материализуется только по подтверждённой покупке или
// открытию доступа: отмена или ожидание продления без существующей
// записи — осознанный no-op, не ошибка. Этап вторичный, его сбой
// не прерывает запрос.
func (s *Service) applySubscription(ctx context.Context, ev *provider.Event,
	acc *models.Account, partnerID, txID string) (string, StageResult) {
	const stage = "subscription"
	log := s.log.With(slog.String("op", "reconciler.applySubscription"), slog.String("event_type", ev.Type))

	if acc == nil {
		return "", okStage(stage, "skipped: no account")
	}

	existing, err := s.repo.FindSubscriptionByAccountAndPartner(ctx, acc.ID, partnerID)
	if err != nil {
		log.Error("failed to read subscription", slog.Any("err", err))
		return "", failStage(stage, err)
	}

	now := time.Now().UTC()

	if existing == nil {
		if ev.Type != provider.EventPurchaseConfirmed && ev.Type != provider.EventAccessStarted {
			log.Info("no subscription to update, event does not create one",
				slog.String("account_id", acc.ID), slog.String("partner_id", partnerID))
			return "", okStage(stage, "skipped: no subscription to update")
		}

		expiration := now.Add(s.cfg.MembershipTTL)
		sub := models.Subscription{
			AccountID:      acc.ID,
			PartnerID:      partnerID,
			TransactionID:  txID,
			PlanName:       ev.Purchase.Plan.Name,
			PlanInterval:   ev.Purchase.Plan.Interval,
			PlanCount:      ev.Purchase.Plan.Count,
			Price:          ev.Purchase.Price.Value,
			PaymentMethod:  ev.Purchase.PaymentMethod,
			Status:         models.SubscriptionStatusActive,
			ProviderSubIDs: ev.SubscriptionIDs,
			LastEventType:  ev.Type,
			LastEventDate:  &now,
			StartDate:      &now,
			ExpirationDate: &expiration,
		}
		id, err := s.repo.CreateSubscription(ctx, sub)
		if err != nil {
			log.Error("failed to create subscription", slog.Any("err", err))
			return "", failStage(stage, err)
		}
		log.Info("subscription created", slog.String("subscription_id", id),
			slog.String("partner_id", partnerID))
		return id, okStage(stage, "created")
	}

	upd := *existing
	if status, mapped := SubscriptionStatusForEvent(ev.Type); mapped {
		upd.Status = status
	}
	upd.TransactionID = txID
	upd.LastEventType = ev.Type
	upd.LastEventDate = &now
	if len(ev.SubscriptionIDs) > 0 {
		upd.ProviderSubIDs = ev.SubscriptionIDs
	}

	if isPaymentConfirming(ev.Type) {
		upd.PlanName = ev.Purchase.Plan.Name
		upd.PlanInterval = ev.Purchase.Plan.Interval
		upd.PlanCount = ev.Purchase.Plan.Count
		upd.Price = ev.Purchase.Price.Value
		upd.PaymentMethod = ev.Purchase.PaymentMethod
		expiration := now.Add(s.cfg.MembershipTTL)
		upd.ExpirationDate = &expiration
	}

	switch ev.Type {
	case provider.EventSubscriptionCanceled:
		upd.CanceledAt = &now
		upd.CancelReason = models.CancelReasonUserCanceled
	case provider.EventChargeback:
		upd.CanceledAt = &now
		upd.CancelReason = models.CancelReasonChargeback
	case provider.EventSubscriptionExpired, provider.EventAccessEnded:
		upd.ExpiredAt = &now
	}

	if err := s.repo.UpdateSubscription(ctx, existing.ID, upd); err != nil {
		log.Error("failed to update subscription", slog.Any("err", err))
		return "", failStage(stage, err)
	}
	log.Info("subscription updated", slog.String("subscription_id", existing.ID),
		slog.String("status", upd.Status))
	return existing.ID, okStage(stage, "updated")
}
