package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/discount-club/internal/models"
)

// FindAccountByEmail ищет аккаунт по нормализованному email.
// Возвращает nil без ошибки, если аккаунт не найден.
func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.FindAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, name, phone, document, address, buyer_provider_id,
			      partner_id, status, email_verified, activation_token, activation_expires,
			      renewal_pending, renewal_pending_date, last_event_type, last_event_date, created_at
			  FROM accounts WHERE email = $1`
	row := s.DB.QueryRowContext(ctx, query, email)

	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// CreateAccount вставляет новый аккаунт и возвращает сгенерированный идентификатор.
func (s *Storage) CreateAccount(ctx context.Context, acc models.Account) (string, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	newID := uuid.New().String()
	query := `INSERT INTO accounts (id, email, name, phone, document, address, buyer_provider_id,
			      partner_id, status, email_verified, last_event_type, last_event_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.DB.ExecContext(ctx, query,
		newID, acc.Email, acc.Name, acc.Phone, acc.Document, acc.Address, acc.BuyerProviderID,
		acc.PartnerID, acc.Status, acc.EmailVerified, acc.LastEventType, acc.LastEventDate)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateAccountAttribution обновляет партнёрскую привязку аккаунта и отметки
// последнего события. Если renewalPendingDate задана, дополнительно
// выставляется флаг ожидания продления.
func (s *Storage) UpdateAccountAttribution(ctx context.Context, id, partnerID, eventType string,
	eventDate time.Time, renewalPendingDate *time.Time) error {
	const op = "storage.UpdateAccountAttribution"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET partner_id = $1, last_event_type = $2, last_event_date = $3,
			      renewal_pending = CASE WHEN $4::timestamptz IS NOT NULL THEN true ELSE renewal_pending END,
			      renewal_pending_date = COALESCE($4, renewal_pending_date)
			  WHERE id = $5`
	_, err := s.DB.ExecContext(ctx, query, partnerID, eventType, eventDate, renewalPendingDate, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetActivationToken сохраняет токен активации и срок его действия.
func (s *Storage) SetActivationToken(ctx context.Context, id, token string, expires time.Time) error {
	const op = "storage.SetActivationToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts SET activation_token = $1, activation_expires = $2 WHERE id = $3`
	_, err := s.DB.ExecContext(ctx, query, token, expires, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindAccountByActivationToken ищет аккаунт по токену активации.
// Возвращает nil без ошибки, если токен никому не принадлежит.
func (s *Storage) FindAccountByActivationToken(ctx context.Context, token string) (*models.Account, error) {
	const op = "storage.FindAccountByActivationToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, name, phone, document, address, buyer_provider_id,
			      partner_id, status, email_verified, activation_token, activation_expires,
			      renewal_pending, renewal_pending_date, last_event_type, last_event_date, created_at
			  FROM accounts WHERE activation_token = $1`
	row := s.DB.QueryRowContext(ctx, query, token)

	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// MarkEmailVerified помечает email подтверждённым и сбрасывает токен активации.
func (s *Storage) MarkEmailVerified(ctx context.Context, id string) error {
	const op = "storage.MarkEmailVerified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET email_verified = true, activation_token = '', activation_expires = NULL
			  WHERE id = $1`
	_, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var acc models.Account
	var activationToken sql.NullString
	var activationExpires, renewalPendingDate, lastEventDate sql.NullTime
	var lastEventType sql.NullString

	err := row.Scan(&acc.ID, &acc.Email, &acc.Name, &acc.Phone, &acc.Document, &acc.Address,
		&acc.BuyerProviderID, &acc.PartnerID, &acc.Status, &acc.EmailVerified,
		&activationToken, &activationExpires, &acc.RenewalPending, &renewalPendingDate,
		&lastEventType, &lastEventDate, &acc.CreatedAt)
	if err != nil {
		return nil, err
	}
	acc.ActivationToken = activationToken.String
	acc.LastEventType = lastEventType.String
	if activationExpires.Valid {
		acc.ActivationExpires = &activationExpires.Time
	}
	if renewalPendingDate.Valid {
		acc.RenewalPendingDate = &renewalPendingDate.Time
	}
	if lastEventDate.Valid {
		acc.LastEventDate = &lastEventDate.Time
	}
	return &acc, nil
}
