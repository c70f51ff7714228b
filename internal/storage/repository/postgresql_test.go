package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/discount-club/internal/models"
)

func TestAccountLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	// Поиск по незнакомому email возвращает nil без ошибки
	acc, err := storage.FindAccountByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, acc)

	now := time.Now().UTC()
	id, err := storage.CreateAccount(ctx, models.Account{
		Email:         "member@example.com",
		Name:          "Иван",
		PartnerID:     "partner-42",
		Status:        models.AccountStatusActive,
		LastEventType: "Purchase_Order_Confirmed",
		LastEventDate: &now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	acc, err = storage.FindAccountByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, "partner-42", acc.PartnerID)
	assert.False(t, acc.EmailVerified)

	// Токен активации: сохранение, поиск, подтверждение email
	expires := time.Now().UTC().Add(24 * time.Hour)
	require.NoError(t, storage.SetActivationToken(ctx, id, "token-abc", expires))

	acc, err = storage.FindAccountByActivationToken(ctx, "token-abc")
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, id, acc.ID)
	require.NotNil(t, acc.ActivationExpires)

	require.NoError(t, storage.MarkEmailVerified(ctx, id))

	acc, err = storage.FindAccountByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	assert.True(t, acc.EmailVerified)
	assert.Empty(t, acc.ActivationToken)

	missing, err := storage.FindAccountByActivationToken(ctx, "token-gone")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateAccountAttribution(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	id := factory.CreateAccount(t, "member@example.com", "Иван", "partner-old")

	now := time.Now().UTC()

	// Обычное событие: партнёр и отметки меняются, флаг продления — нет
	require.NoError(t, storage.UpdateAccountAttribution(ctx, id, "partner-new",
		"Recurring_Payment_Confirmed", now, nil))

	acc, err := storage.FindAccountByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	assert.Equal(t, "partner-new", acc.PartnerID)
	assert.Equal(t, "Recurring_Payment_Confirmed", acc.LastEventType)
	assert.False(t, acc.RenewalPending)

	// Ожидание продления выставляет флаг и дату
	require.NoError(t, storage.UpdateAccountAttribution(ctx, id, "partner-new",
		"Subscription_Renewal_Pending", now, &now))

	acc, err = storage.FindAccountByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	assert.True(t, acc.RenewalPending)
	require.NotNil(t, acc.RenewalPendingDate)
}

func TestTransactionUpsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	verification := NewTestVerification(storage)

	missing, err := storage.FindTransactionByOrderID(ctx, "order-404")
	require.NoError(t, err)
	assert.Nil(t, missing)

	paidAt := time.Now().UTC().Truncate(time.Second)
	id, err := storage.CreateTransaction(ctx, models.Transaction{
		OrderID:         "order-1",
		Amount:          199.90,
		PaymentMethod:   "credit_card",
		PaidAt:          &paidAt,
		Status:          models.TransactionStatusPending,
		SubscriptionIDs: []string{"sub-a", "sub-b"},
		EventType:       "Purchase_Request_Confirmed",
		RawPayload:      `{"Event":"Purchase_Request_Confirmed"}`,
	})
	require.NoError(t, err)

	tr, err := storage.FindTransactionByOrderID(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, id, tr.ID)
	assert.Equal(t, models.TransactionStatusPending, tr.Status)
	assert.Equal(t, []string{"sub-a", "sub-b"}, tr.SubscriptionIDs)
	assert.Nil(t, tr.AccountID)

	// Повторное событие по тому же заказу перезаписывает изменяемые поля
	accID := "acc-1"
	err = storage.UpdateTransaction(ctx, id, models.Transaction{
		Amount:        199.90,
		PaymentMethod: "credit_card",
		Status:        models.TransactionStatusActive,
		AccountID:     &accID,
		EventType:     "Purchase_Order_Confirmed",
		RawPayload:    `{"Event":"Purchase_Order_Confirmed"}`,
	})
	require.NoError(t, err)

	tr, err = storage.FindTransactionByOrderID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusActive, tr.Status)
	assert.Equal(t, "Purchase_Order_Confirmed", tr.EventType)
	require.NotNil(t, tr.AccountID)
	assert.Equal(t, "acc-1", *tr.AccountID)

	verification.VerifyTransactionCount(t, "order-1", 1)
}

func TestSubscriptionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	missing, err := storage.FindSubscriptionByAccountAndPartner(ctx, "acc-1", "partner-42")
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Now().UTC().Truncate(time.Second)
	expiration := now.AddDate(1, 0, 0)
	id, err := storage.CreateSubscription(ctx, models.Subscription{
		AccountID:      "acc-1",
		PartnerID:      "partner-42",
		TransactionID:  "tx-1",
		PlanName:       "annual",
		Price:          199.90,
		Status:         models.SubscriptionStatusActive,
		ProviderSubIDs: []string{"sub-a"},
		LastEventType:  "Purchase_Order_Confirmed",
		LastEventDate:  &now,
		StartDate:      &now,
		ExpirationDate: &expiration,
	})
	require.NoError(t, err)

	sub, err := storage.FindSubscriptionByAccountAndPartner(ctx, "acc-1", "partner-42")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, id, sub.ID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, []string{"sub-a"}, sub.ProviderSubIDs)

	// Отмена: статус, отметка и причина
	canceled := *sub
	canceled.Status = models.SubscriptionStatusCanceled
	canceled.CanceledAt = &now
	canceled.CancelReason = models.CancelReasonUserCanceled
	canceled.LastEventType = "Subscription_Canceled"
	require.NoError(t, storage.UpdateSubscription(ctx, id, canceled))

	sub, err = storage.FindSubscriptionByAccountAndPartner(ctx, "acc-1", "partner-42")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
	assert.Equal(t, models.CancelReasonUserCanceled, sub.CancelReason)
	require.NotNil(t, sub.CanceledAt)
}

func TestListMembershipsByPartner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)

	expiration := time.Now().UTC().AddDate(1, 0, 0)
	accA := factory.CreateAccount(t, "a@example.com", "A", "partner-42")
	accB := factory.CreateAccount(t, "b@example.com", "B", "partner-42")
	accC := factory.CreateAccount(t, "c@example.com", "C", "partner-7")
	factory.CreateSubscription(t, accA, "partner-42", models.SubscriptionStatusActive, &expiration)
	factory.CreateSubscription(t, accB, "partner-42", models.SubscriptionStatusCanceled, nil)
	factory.CreateSubscription(t, accC, "partner-7", models.SubscriptionStatusActive, &expiration)

	rows, err := storage.ListMembershipsByPartner(ctx, "partner-42", 50, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "partner-42", row.PartnerID)
		assert.NotEmpty(t, row.Email)
		assert.NotEmpty(t, row.StoredStatus)
	}

	// Пагинация
	page, err := storage.ListMembershipsByPartner(ctx, "partner-42", 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestMemberPartnerLinkAndConversions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)

	missing, err := storage.FindMemberPartnerLink(ctx, "acc-1", "partner-42")
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.Now().UTC().Truncate(time.Second)
	id, err := storage.CreateMemberPartnerLink(ctx, models.MemberPartnerLink{
		AccountID:     "acc-1",
		PartnerID:     "partner-42",
		TransactionID: "tx-1",
		Status:        models.SubscriptionStatusActive,
		PlanName:      "annual",
		Price:         199.90,
		LastEventType: "Purchase_Order_Confirmed",
		LastEventDate: &now,
	})
	require.NoError(t, err)

	link, err := storage.FindMemberPartnerLink(ctx, "acc-1", "partner-42")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, id, link.ID)
	assert.Equal(t, "annual", link.PlanName)

	upd := *link
	upd.Status = models.SubscriptionStatusExpired
	upd.LastEventType = "Subscription_Expired"
	require.NoError(t, storage.UpdateMemberPartnerLink(ctx, id, upd))

	link, err = storage.FindMemberPartnerLink(ctx, "acc-1", "partner-42")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, link.Status)

	// Счётчик конверсий: два инкремента дают ровно два
	factory.CreatePartnerLink(t, "link-9", "partner-42", 0)
	require.NoError(t, storage.IncrementPartnerLinkConversions(ctx, "link-9"))
	require.NoError(t, storage.IncrementPartnerLinkConversions(ctx, "link-9"))
	verification.VerifyConversions(t, "link-9", 2)
}
