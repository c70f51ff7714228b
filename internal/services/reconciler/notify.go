package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/discount-club/internal/models"
	"github.com/magabrotheeeer/discount-club/internal/provider"
)

// dispatchActivation отправляет письмо активации новому аккаунту.
//
// Срабатывает только для подтверждённой покупки, только если аккаунт
// был создан этим же запросом и у него есть email — существующий
// аккаунт повторного письма не получает. Токен сохраняется на аккаунте
// со сроком действия из конфигурации, письмо уходит через очередь.
// Любой сбой логируется и на ответ не влияет.
func (s *Service) dispatchActivation(ctx context.Context, ev *provider.Event,
	acc *models.Account, created bool) StageResult {
	const stage = "notification"
	log := s.log.With(slog.String("op", "reconciler.dispatchActivation"))

	if ev.Type != provider.EventPurchaseConfirmed || !created || acc == nil || acc.Email == "" {
		return okStage(stage, "skipped: not a first-time confirmed purchase")
	}

	token, err := s.tokens.Generate()
	if err != nil {
		log.Error("failed to generate activation token", slog.Any("err", err))
		return failStage(stage, err)
	}

	expires := time.Now().UTC().Add(s.cfg.ActivationTokenTTL)
	if err := s.repo.SetActivationToken(ctx, acc.ID, token, expires); err != nil {
		log.Error("failed to persist activation token", slog.Any("err", err))
		return failStage(stage, err)
	}

	msg := models.ActivationEmail{
		Email:         acc.Email,
		Name:          acc.Name,
		ActivationURL: s.cfg.ActivationBaseURL + "?token=" + token,
	}
	if err := s.publisher.PublishActivationEmail(msg); err != nil {
		log.Error("failed to publish activation email", slog.Any("err", err))
		return failStage(stage, err)
	}

	log.Info("activation email queued", slog.String("account_id", acc.ID))
	return okStage(stage, "activation email queued")
}
