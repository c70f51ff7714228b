package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/discount-club/internal/models"
)

// MockRepository реализует интерфейс report.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListMembershipsByPartner(ctx context.Context, partnerID string, limit, offset int) ([]*models.MembershipReportRow, error) {
	args := m.Called(ctx, partnerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MembershipReportRow), args.Error(1)
}

// MockCache реализует интерфейс report.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestList_ReconcilesExpiredStatusOnRead(t *testing.T) {
	// Активная подписка с прошедшей датой окончания показывается
	// как expired, сохранённый статус не меняется.
	repo := new(MockRepository)
	cacheMock := new(MockCache)
	service := New(repo, cacheMock, newNoopLogger())

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	rows := []*models.MembershipReportRow{
		{AccountID: "acc-1", StoredStatus: models.SubscriptionStatusActive, ExpirationDate: &past},
		{AccountID: "acc-2", StoredStatus: models.SubscriptionStatusActive, ExpirationDate: &future},
		{AccountID: "acc-3", StoredStatus: models.SubscriptionStatusCanceled, ExpirationDate: &past},
		{AccountID: "acc-4", StoredStatus: models.SubscriptionStatusActive},
	}

	cacheMock.On("Get", "membership_report:partner-42", mock.Anything).Return(false, nil).Once()
	repo.On("ListMembershipsByPartner", mock.Anything, "partner-42", defaultLimit, 0).
		Return(rows, nil).Once()
	cacheMock.On("Set", "membership_report:partner-42", mock.Anything, cacheTTL).Return(nil).Once()

	result, err := service.List(context.Background(), models.DummyReportFilter{PartnerID: "partner-42"})

	assert.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusExpired, result[0].Status)
	assert.Equal(t, models.SubscriptionStatusActive, result[0].StoredStatus)
	assert.Equal(t, models.SubscriptionStatusActive, result[1].Status)
	assert.Equal(t, models.SubscriptionStatusCanceled, result[2].Status)
	assert.Equal(t, models.SubscriptionStatusActive, result[3].Status)

	repo.AssertExpectations(t)
	cacheMock.AssertExpectations(t)
}

func TestList_CacheHitSkipsRepository(t *testing.T) {
	repo := new(MockRepository)
	cacheMock := new(MockCache)
	service := New(repo, cacheMock, newNoopLogger())

	cacheMock.On("Get", "membership_report:partner-42", mock.Anything).Return(true, nil).Once()

	_, err := service.List(context.Background(), models.DummyReportFilter{PartnerID: "partner-42"})

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "ListMembershipsByPartner",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cacheMock.AssertExpectations(t)
}

func TestList_NonDefaultPageBypassesCache(t *testing.T) {
	repo := new(MockRepository)
	cacheMock := new(MockCache)
	service := New(repo, cacheMock, newNoopLogger())

	repo.On("ListMembershipsByPartner", mock.Anything, "partner-42", 10, 20).
		Return([]*models.MembershipReportRow{}, nil).Once()

	_, err := service.List(context.Background(), models.DummyReportFilter{
		PartnerID: "partner-42", Limit: 10, Offset: 20,
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	cacheMock.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	cacheMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_CacheErrorFallsThroughToRepository(t *testing.T) {
	repo := new(MockRepository)
	cacheMock := new(MockCache)
	service := New(repo, cacheMock, newNoopLogger())

	cacheMock.On("Get", "membership_report:partner-42", mock.Anything).
		Return(false, errors.New("redis down")).Once()
	repo.On("ListMembershipsByPartner", mock.Anything, "partner-42", defaultLimit, 0).
		Return([]*models.MembershipReportRow{}, nil).Once()
	cacheMock.On("Set", "membership_report:partner-42", mock.Anything, cacheTTL).Return(nil).Once()

	_, err := service.List(context.Background(), models.DummyReportFilter{PartnerID: "partner-42"})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestList_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	cacheMock := new(MockCache)
	service := New(repo, cacheMock, newNoopLogger())

	cacheMock.On("Get", "membership_report:partner-42", mock.Anything).Return(false, nil).Once()
	repo.On("ListMembershipsByPartner", mock.Anything, "partner-42", defaultLimit, 0).
		Return(nil, errors.New("db down")).Once()

	_, err := service.List(context.Background(), models.DummyReportFilter{PartnerID: "partner-42"})

	assert.Error(t, err)
	cacheMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}
