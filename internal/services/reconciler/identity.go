package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/discount-club/internal/models"
	"github.com/magabrotheeeer/discount-club/internal/provider"
)

// resolveAccount определяет действующий аккаунт события.
//
// Аккаунты заводятся лениво и только по подтверждённой покупке:
// для любого другого типа события незнакомый email не приводит
// к созданию аккаунта, событие остаётся в журнале без привязки.
// Ошибки чтения и записи здесь фатальны для всего запроса —
// от аккаунта зависят все последующие этапы.
func (s *Service) resolveAccount(ctx context.Context, ev *provider.Event, email string) (*models.Account, bool, error) {
	const op = "reconciler.resolveAccount"
	log := s.log.With(slog.String("op", op), slog.String("event_type", ev.Type))

	if !provider.ResolvesAccount(ev.Type) {
		log.Info("event does not require account context")
		return nil, false, nil
	}
	if email == "" {
		return nil, false, nil
	}

	acc, err := s.repo.FindAccountByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if acc != nil {
		return acc, false, nil
	}

	if ev.Type != provider.EventPurchaseConfirmed {
		log.Info("no account for email, event will be ledgered without one",
			slog.String("email", email))
		return nil, false, nil
	}

	now := time.Now().UTC()
	newAcc := models.Account{
		Email:           email,
		Name:            ev.Buyer.Name,
		Phone:           ev.Buyer.Phone,
		Document:        ev.Buyer.Document,
		Address:         ev.Buyer.Address,
		BuyerProviderID: ev.Buyer.BuyerID,
		PartnerID:       s.cfg.DefaultPartnerID,
		Status:          models.AccountStatusActive,
		EmailVerified:   false,
		LastEventType:   ev.Type,
		LastEventDate:   &now,
	}
	id, err := s.repo.CreateAccount(ctx, newAcc)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	newAcc.ID = id
	log.Info("created new account", slog.String("account_id", id))
	return &newAcc, true, nil
}
