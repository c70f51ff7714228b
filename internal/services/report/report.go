// Package report реализует отчёт по членствам партнёра с кэшированием.
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/discount-club/internal/models"
)

const (
	defaultLimit = 50
	cacheTTL     = 5 * time.Minute
)

// Repository определяет чтение строк отчёта из хранилища.
type Repository interface {
	ListMembershipsByPartner(ctx context.Context, partnerID string, limit, offset int) ([]*models.MembershipReportRow, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует бизнес-логику отчёта по членствам.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// List возвращает строки отчёта по членствам партнёра.
//
// Статус каждой строки сверяется с датой окончания на чтении: активная
// подписка с прошедшей датой окончания показывается как expired,
// хранилище при этом не изменяется. Первая страница с параметрами
// по умолчанию кэшируется; кэш инвалидируется движком реконсиляции
// после записей по партнёру.
func (s *Service) List(ctx context.Context, req models.DummyReportFilter) ([]*models.MembershipReportRow, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	cacheKey := ""
	if limit == defaultLimit && req.Offset == 0 {
		cacheKey = "membership_report:" + req.PartnerID
		var cached []*models.MembershipReportRow
		found, err := s.cache.Get(cacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read report cache", slog.String("key", cacheKey), slog.Any("err", err))
		}
		if found {
			return cached, nil
		}
	}

	rows, err := s.repo.ListMembershipsByPartner(ctx, req.PartnerID, limit, req.Offset)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, row := range rows {
		row.Status = reconcileStatus(row, now)
	}

	if cacheKey != "" {
		if err := s.cache.Set(cacheKey, rows, cacheTTL); err != nil {
			s.log.Warn("failed to cache report", slog.String("key", cacheKey), slog.Any("err", err))
		}
	}
	return rows, nil
}

func reconcileStatus(row *models.MembershipReportRow, now time.Time) string {
	if row.StoredStatus == models.SubscriptionStatusActive &&
		row.ExpirationDate != nil && row.ExpirationDate.Before(now) {
		return models.SubscriptionStatusExpired
	}
	return row.StoredStatus
}
