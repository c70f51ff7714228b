package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/discount-club/internal/models"
)

// FindSubscriptionByAccountAndPartner ищет подписку по паре (аккаунт, партнёр).
// Возвращает nil без ошибки, если подписки нет.
func (s *Storage) FindSubscriptionByAccountAndPartner(ctx context.Context, accountID, partnerID string) (*models.Subscription, error) {
	const op = "storage.FindSubscriptionByAccountAndPartner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_id, partner_id, transaction_id, plan_name, plan_interval,
			      plan_count, price, payment_method, status, provider_sub_ids,
			      last_event_type, last_event_date, start_date, expiration_date,
			      canceled_at, cancel_reason, expired_at, created_at, updated_at
			  FROM subscriptions WHERE account_id = $1 AND partner_id = $2`
	row := s.DB.QueryRowContext(ctx, query, accountID, partnerID)

	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CreateSubscription вставляет новую подписку и возвращает сгенерированный идентификатор.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	providerIDs, err := json.Marshal(sub.ProviderSubIDs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	newID := uuid.New().String()
	query := `INSERT INTO subscriptions (id, account_id, partner_id, transaction_id, plan_name,
			      plan_interval, plan_count, price, payment_method, status, provider_sub_ids,
			      last_event_type, last_event_date, start_date, expiration_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = s.DB.ExecContext(ctx, query,
		newID, sub.AccountID, sub.PartnerID, sub.TransactionID, sub.PlanName,
		sub.PlanInterval, sub.PlanCount, sub.Price, sub.PaymentMethod, sub.Status, providerIDs,
		sub.LastEventType, sub.LastEventDate, sub.StartDate, sub.ExpirationDate)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateSubscription перезаписывает изменяемые поля подписки по её идентификатору.
func (s *Storage) UpdateSubscription(ctx context.Context, id string, sub models.Subscription) error {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	providerIDs, err := json.Marshal(sub.ProviderSubIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE subscriptions
			  SET transaction_id = $1, plan_name = $2, plan_interval = $3, plan_count = $4,
			      price = $5, payment_method = $6, status = $7, provider_sub_ids = $8,
			      last_event_type = $9, last_event_date = $10, expiration_date = $11,
			      canceled_at = $12, cancel_reason = $13, expired_at = $14, updated_at = now()
			  WHERE id = $15`
	_, err = s.DB.ExecContext(ctx, query,
		sub.TransactionID, sub.PlanName, sub.PlanInterval, sub.PlanCount,
		sub.Price, sub.PaymentMethod, sub.Status, providerIDs,
		sub.LastEventType, sub.LastEventDate, sub.ExpirationDate,
		sub.CanceledAt, sub.CancelReason, sub.ExpiredAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListMembershipsByPartner возвращает строки отчёта по членствам партнёра
// с пагинацией. Статус отдаётся как сохранён, сверка с датой окончания
// выполняется на уровне сервиса отчёта.
func (s *Storage) ListMembershipsByPartner(ctx context.Context, partnerID string, limit, offset int) ([]*models.MembershipReportRow, error) {
	const op = "storage.ListMembershipsByPartner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.account_id, a.email, a.name, s.partner_id, s.plan_name, s.price,
			      s.status, s.start_date, s.expiration_date, s.last_event_type
			  FROM subscriptions s
			  JOIN accounts a ON a.id = s.account_id
			  WHERE s.partner_id = $1
			  ORDER BY s.created_at
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, partnerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.MembershipReportRow
	for rows.Next() {
		var row models.MembershipReportRow
		var startDate, expirationDate sql.NullTime
		var lastEventType sql.NullString
		if err := rows.Scan(&row.AccountID, &row.Email, &row.Name, &row.PartnerID, &row.PlanName,
			&row.Price, &row.StoredStatus, &startDate, &expirationDate, &lastEventType); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if startDate.Valid {
			row.StartDate = &startDate.Time
		}
		if expirationDate.Valid {
			row.ExpirationDate = &expirationDate.Time
		}
		row.LastEventType = lastEventType.String
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var providerIDs []byte
	var lastEventDate, startDate, expirationDate, canceledAt, expiredAt sql.NullTime
	var cancelReason, lastEventType sql.NullString

	err := row.Scan(&sub.ID, &sub.AccountID, &sub.PartnerID, &sub.TransactionID, &sub.PlanName,
		&sub.PlanInterval, &sub.PlanCount, &sub.Price, &sub.PaymentMethod, &sub.Status, &providerIDs,
		&lastEventType, &lastEventDate, &startDate, &expirationDate,
		&canceledAt, &cancelReason, &expiredAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(providerIDs) > 0 {
		if err := json.Unmarshal(providerIDs, &sub.ProviderSubIDs); err != nil {
			return nil, err
		}
	}
	sub.LastEventType = lastEventType.String
	sub.CancelReason = cancelReason.String
	if lastEventDate.Valid {
		sub.LastEventDate = &lastEventDate.Time
	}
	if startDate.Valid {
		sub.StartDate = &startDate.Time
	}
	if expirationDate.Valid {
		sub.ExpirationDate = &expirationDate.Time
	}
	if canceledAt.Valid {
		sub.CanceledAt = &canceledAt.Time
	}
	if expiredAt.Valid {
		sub.ExpiredAt = &expiredAt.Time
	}
	return &sub, nil
}
