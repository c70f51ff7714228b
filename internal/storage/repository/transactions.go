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

// FindTransactionByOrderID ищет транзакцию по идентификатору заказа провайдера.
// Возвращает nil без ошибки, если транзакции нет.
func (s *Storage) FindTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	const op = "storage.FindTransactionByOrderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, order_id, amount, payment_method, installments, paid_at,
			      plan_name, plan_interval, plan_count, status, account_id, buyer_id,
			      affiliate_id, subscription_ids, event_type, raw_payload, created_at, updated_at
			  FROM transactions WHERE order_id = $1`
	row := s.DB.QueryRowContext(ctx, query, orderID)

	var tr models.Transaction
	var paidAt sql.NullTime
	var accountID sql.NullString
	var subIDs []byte
	err := row.Scan(&tr.ID, &tr.OrderID, &tr.Amount, &tr.PaymentMethod, &tr.Installments, &paidAt,
		&tr.PlanName, &tr.PlanInterval, &tr.PlanCount, &tr.Status, &accountID, &tr.BuyerID,
		&tr.AffiliateID, &subIDs, &tr.EventType, &tr.RawPayload, &tr.CreatedAt, &tr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if paidAt.Valid {
		tr.PaidAt = &paidAt.Time
	}
	if accountID.Valid {
		tr.AccountID = &accountID.String
	}
	if len(subIDs) > 0 {
		if err := json.Unmarshal(subIDs, &tr.SubscriptionIDs); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &tr, nil
}

// CreateTransaction вставляет новую транзакцию и возвращает сгенерированный идентификатор.
func (s *Storage) CreateTransaction(ctx context.Context, tr models.Transaction) (string, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	subIDs, err := json.Marshal(tr.SubscriptionIDs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	newID := uuid.New().String()
	query := `INSERT INTO transactions (id, order_id, amount, payment_method, installments, paid_at,
			      plan_name, plan_interval, plan_count, status, account_id, buyer_id,
			      affiliate_id, subscription_ids, event_type, raw_payload)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err = s.DB.ExecContext(ctx, query,
		newID, tr.OrderID, tr.Amount, tr.PaymentMethod, tr.Installments, tr.PaidAt,
		tr.PlanName, tr.PlanInterval, tr.PlanCount, tr.Status, tr.AccountID, tr.BuyerID,
		tr.AffiliateID, subIDs, tr.EventType, tr.RawPayload)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// UpdateTransaction перезаписывает изменяемые поля транзакции по её идентификатору.
// Поля перезаписываются, а не накапливаются: повторное событие по заказу
// полностью заменяет прошлые значения.
func (s *Storage) UpdateTransaction(ctx context.Context, id string, tr models.Transaction) error {
	const op = "storage.UpdateTransaction"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	subIDs, err := json.Marshal(tr.SubscriptionIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE transactions
			  SET amount = $1, payment_method = $2, installments = $3, paid_at = $4,
			      plan_name = $5, plan_interval = $6, plan_count = $7, status = $8,
			      account_id = $9, buyer_id = $10, affiliate_id = $11, subscription_ids = $12,
			      event_type = $13, raw_payload = $14, updated_at = now()
			  WHERE id = $15`
	_, err = s.DB.ExecContext(ctx, query,
		tr.Amount, tr.PaymentMethod, tr.Installments, tr.PaidAt,
		tr.PlanName, tr.PlanInterval, tr.PlanCount, tr.Status,
		tr.AccountID, tr.BuyerID, tr.AffiliateID, subIDs,
		tr.EventType, tr.RawPayload, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
