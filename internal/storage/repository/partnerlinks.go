package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/discount-club/internal/models"
)

// FindMemberPartnerLink ищет связку участник-партнёр по паре идентификаторов.
// Возвращает nil без ошибки, если связки нет.
func (s *Storage) FindMemberPartnerLink(ctx context.Context, accountID, partnerID string) (*models.MemberPartnerLink, error) {
	const op = "storage.FindMemberPartnerLink"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_id, partner_id, transaction_id, status, plan_name, price,
			      expiration_date, last_event_type, last_event_date, created_at, updated_at
			  FROM member_partner_links WHERE account_id = $1 AND partner_id = $2`
	row := s.DB.QueryRowContext(ctx, query, accountID, partnerID)

	var link models.MemberPartnerLink
	var expirationDate, lastEventDate sql.NullTime
	var lastEventType sql.NullString
	err := row.Scan(&link.ID, &link.AccountID, &link.PartnerID, &link.TransactionID, &link.Status,
		&link.PlanName, &link.Price, &expirationDate, &lastEventType, &lastEventDate,
		&link.CreatedAt, &link.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if expirationDate.Valid {
		link.ExpirationDate = &expirationDate.Time
	}
	if lastEventDate.Valid {
		link.LastEventDate = &lastEventDate.Time
	}
	link.LastEventType = lastEventType.String
	return &link, nil
}

// CreateMemberPartnerLink вставляет новую связку и возвращает сгенерированный идентификатор.
func (s *Storage) CreateMemberPartnerLink(ctx context.Context, link models.MemberPartnerLink) (string, error) {
	const op = "storage.CreateMemberPartnerLink"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	newID := uuid.New().String()
	query := `INSERT INTO member_partner_links (id, account_id, partner_id, transaction_id,
			      status, plan_name, price, expiration_date, last_event_type, last_event_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.DB.ExecContext(ctx, query,
		newID, link.AccountID, link.PartnerID, link.TransactionID,
		link.Status, link.PlanName, link.Price, link.ExpirationDate,
		link.LastEventType, link.LastEventDate)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateMemberPartnerLink перезаписывает изменяемые поля связки по её идентификатору.
func (s *Storage) UpdateMemberPartnerLink(ctx context.Context, id string, link models.MemberPartnerLink) error {
	const op = "storage.UpdateMemberPartnerLink"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE member_partner_links
			  SET transaction_id = $1, status = $2, expiration_date = $3,
			      last_event_type = $4, last_event_date = $5, updated_at = now()
			  WHERE id = $6`
	_, err := s.DB.ExecContext(ctx, query,
		link.TransactionID, link.Status, link.ExpirationDate,
		link.LastEventType, link.LastEventDate, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IncrementPartnerLinkConversions атомарно увеличивает счётчик конверсий
// реферальной ссылки на единицу.
func (s *Storage) IncrementPartnerLinkConversions(ctx context.Context, linkID string) error {
	const op = "storage.IncrementPartnerLinkConversions"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE partner_links SET conversions = conversions + 1 WHERE id = $1`
	_, err := s.DB.ExecContext(ctx, query, linkID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
