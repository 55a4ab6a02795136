// Package plan содержит бизнес-логику каталога тарифных планов.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// ErrPlanNotFound тарифный план не существует.
var ErrPlanNotFound = errors.New("plan not found")

// Repository описывает методы хранилища для работы с тарифными планами.
type Repository interface {
	CreatePlan(ctx context.Context, plan models.PricingPlan) (int, error)
	ReadPlan(ctx context.Context, id int) (*models.PricingPlan, error)
	ListPlans(ctx context.Context) ([]*models.PricingPlan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует бизнес-логику тарифных планов.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

const listCacheKey = "plans:active"

// Create добавляет тарифный план. Доступно администратору.
// План с безлимитом не расходует слоты по недугам.
func (s *Service) Create(ctx context.Context, req models.DummyPlan) (int, error) {
	const op = "services.plan.Create"

	id, err := s.repo.CreatePlan(ctx, models.PricingPlan{
		Name:                req.Name,
		Price:               req.Price,
		Currency:            req.Currency,
		IsUnlimitedRemedies: req.IsUnlimitedRemedies,
		RemediesPerAilment:  req.RemediesPerAilment,
		DurationMonths:      req.DurationMonths,
		Features:            req.Features,
		IsActive:            true,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, listCacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", listCacheKey), slog.Any("err", err))
	}
	s.log.Info("created new plan", slog.Int("id", id))
	return id, nil
}

// Read возвращает тарифный план по ID.
func (s *Service) Read(ctx context.Context, id int) (*models.PricingPlan, error) {
	plan, err := s.repo.ReadPlan(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// List возвращает активные тарифные планы, используя кеш или репозиторий.
func (s *Service) List(ctx context.Context) ([]*models.PricingPlan, error) {
	var result []*models.PricingPlan
	found, err := s.cache.Get(ctx, listCacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, listCacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", listCacheKey), slog.Any("err", err))
	}
	return result, nil
}
