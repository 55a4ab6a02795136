// Package ailment содержит бизнес-логику справочника недугов.
package ailment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/remedyhub/remedy-api/internal/lib/slug"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// ErrAilmentExists недуг с таким названием уже есть в справочнике.
var ErrAilmentExists = errors.New("ailment already exists")

// Repository описывает методы хранилища для работы с недугами.
type Repository interface {
	CreateAilment(ctx context.Context, ailment models.Ailment) (int, error)
	ListAilments(ctx context.Context) ([]*models.Ailment, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует бизнес-логику справочника недугов.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

const listCacheKey = "ailments:all"

// Create добавляет недуг в справочник. Доступно администратору.
func (s *Service) Create(ctx context.Context, req models.DummyAilment) (int, error) {
	const op = "services.ailment.Create"

	id, err := s.repo.CreateAilment(ctx, models.Ailment{
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, ErrAilmentExists
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, listCacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", listCacheKey), slog.Any("err", err))
	}
	s.log.Info("created new ailment", slog.Int("id", id))
	return id, nil
}

// List возвращает весь справочник недугов, используя кеш или репозиторий.
func (s *Service) List(ctx context.Context) ([]*models.Ailment, error) {
	var result []*models.Ailment
	found, err := s.cache.Get(ctx, listCacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListAilments(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, listCacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", listCacheKey), slog.Any("err", err))
	}
	return result, nil
}
