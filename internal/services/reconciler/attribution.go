package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/discount-club/internal/models"
	"github.com/magabrotheeeer/discount-club/internal/provider"
)

// updateAttribution поддерживает партнёрскую привязку аккаунта и
// денормализованную связку участник-партнёр, а также счётчик конверсий
// реферальной ссылки.
//
// События брошенной корзины и истёкшего заказа атрибуцию не трогают
// вообще. Счётчик конверсий увеличивается ровно один раз — в момент
// создания связки, не при обновлениях. Этап вторичный.
func (s *Service) updateAttribution(ctx context.Context, ev *provider.Event,
	acc *models.Account, partnerID, txID string) StageResult {
	const stage = "attribution"
	log := s.log.With(slog.String("op", "reconciler.updateAttribution"), slog.String("event_type", ev.Type))

	if ev.Type == provider.EventAbandonedCart || ev.Type == provider.EventPurchaseRequestExpired {
		return okStage(stage, "skipped: event does not touch attribution")
	}
	if acc == nil {
		return okStage(stage, "skipped: no account")
	}

	now := time.Now().UTC()

	var renewalPendingDate *time.Time
	if ev.Type == provider.EventRenewalPending {
		renewalPendingDate = &now
	}
	if err := s.repo.UpdateAccountAttribution(ctx, acc.ID, partnerID, ev.Type, now, renewalPendingDate); err != nil {
		log.Error("failed to update account attribution", slog.Any("err", err))
		return failStage(stage, err)
	}

	link, err := s.repo.FindMemberPartnerLink(ctx, acc.ID, partnerID)
	if err != nil {
		log.Error("failed to read member-partner link", slog.Any("err", err))
		return failStage(stage, err)
	}

	if link == nil {
		if ev.Type != provider.EventPurchaseConfirmed && ev.Type != provider.EventAccessStarted {
			return okStage(stage, "account attribution updated, no link to maintain")
		}

		expiration := now.Add(s.cfg.MembershipTTL)
		newLink := models.MemberPartnerLink{
			AccountID:      acc.ID,
			PartnerID:      partnerID,
			TransactionID:  txID,
			Status:         models.SubscriptionStatusActive,
			PlanName:       ev.Purchase.Plan.Name,
			Price:          ev.Purchase.Price.Value,
			ExpirationDate: &expiration,
			LastEventType:  ev.Type,
			LastEventDate:  &now,
		}
		id, err := s.repo.CreateMemberPartnerLink(ctx, newLink)
		if err != nil {
			log.Error("failed to create member-partner link", slog.Any("err", err))
			return failStage(stage, err)
		}
		log.Info("member-partner link created", slog.String("link_id", id),
			slog.String("partner_id", partnerID))

		if ev.UTM.SourceLinkID != "" {
			if err := s.repo.IncrementPartnerLinkConversions(ctx, ev.UTM.SourceLinkID); err != nil {
				log.Error("failed to increment referral conversions",
					slog.String("source_link_id", ev.UTM.SourceLinkID), slog.Any("err", err))
				return failStage(stage, err)
			}
		}
		return okStage(stage, "link created")
	}

	upd := *link
	if status, mapped := SubscriptionStatusForEvent(ev.Type); mapped {
		upd.Status = status
	}
	upd.TransactionID = txID
	upd.LastEventType = ev.Type
	upd.LastEventDate = &now
	if isPaymentConfirming(ev.Type) {
		expiration := now.Add(s.cfg.MembershipTTL)
		upd.ExpirationDate = &expiration
	}

	if err := s.repo.UpdateMemberPartnerLink(ctx, link.ID, upd); err != nil {
		log.Error("failed to update member-partner link", slog.Any("err", err))
		return failStage(stage, err)
	}
	return okStage(stage, "link updated")
}
