// Package remedy содержит бизнес-логику каталога средств.
package remedy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/remedyhub/remedy-api/internal/lib/slug"
	"github.com/remedyhub/remedy-api/internal/models"
)

// Ошибки бизнес-уровня каталога средств.
var (
	ErrUnknownAilment = errors.New("unknown ailment id")
	ErrNotOwner       = errors.New("not an owner of the remedy")
)

// Repository описывает методы хранилища для работы со средствами.
type Repository interface {
	CreateRemedy(ctx context.Context, remedy models.Remedy) (int, error)
	ReadRemedy(ctx context.Context, id int) (*models.Remedy, error)
	ListRemedies(ctx context.Context, limit, offset int) ([]*models.Remedy, error)
	UpdateRemedy(ctx context.Context, remedy models.Remedy, id int) (int, error)
	RemoveRemedy(ctx context.Context, id int) (int, error)
	RemedySlugExists(ctx context.Context, slug string) (bool, error)
	CountAilmentsByIDs(ctx context.Context, ids []int) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует бизнес-логику работы со средствами, включая кеширование.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Create сохраняет новое средство со статусом модерации pending.
// Все указанные недуги должны существовать.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyRemedy) (int, error) {
	const op = "services.remedy.Create"

	known, err := s.repo.CountAilmentsByIDs(ctx, req.AilmentIDs)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if known != len(req.AilmentIDs) {
		return 0, ErrUnknownAilment
	}

	remedySlug, err := s.uniqueSlug(ctx, req.Name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.CreateRemedy(ctx, models.Remedy{
		Name:             req.Name,
		Slug:             remedySlug,
		Category:         req.Category,
		Summary:          req.Summary,
		Content:          req.Content,
		AilmentIDs:       req.AilmentIDs,
		CreatedBy:        userUID,
		ModerationStatus: models.ModerationPending,
		IsActive:         true,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new remedy", slog.Int("id", id), slog.String("slug", remedySlug))
	return id, nil
}

// Read возвращает средство по ID, используя кеш или репозиторий.
func (s *Service) Read(ctx context.Context, id int) (*models.Remedy, error) {
	var result *models.Remedy
	cacheKey := fmt.Sprintf("remedy:%d", id)
	found, err := s.cache.Get(ctx, cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}
	result, err = s.repo.ReadRemedy(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// List возвращает активные средства с пагинацией.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Remedy, error) {
	return s.repo.ListRemedies(ctx, limit, offset)
}

// Update обновляет средство. Разрешено автору и администратору,
// после изменения средство возвращается на модерацию.
func (s *Service) Update(ctx context.Context, id int, userUID, role string, req models.DummyRemedy) (int, error) {
	const op = "services.remedy.Update"

	current, err := s.repo.ReadRemedy(ctx, id)
	if err != nil {
		return 0, err
	}
	if current.CreatedBy != userUID && role != models.RoleAdmin {
		return 0, ErrNotOwner
	}

	known, err := s.repo.CountAilmentsByIDs(ctx, req.AilmentIDs)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if known != len(req.AilmentIDs) {
		return 0, ErrUnknownAilment
	}

	res, err := s.repo.UpdateRemedy(ctx, models.Remedy{
		Name:             req.Name,
		Category:         req.Category,
		Summary:          req.Summary,
		Content:          req.Content,
		AilmentIDs:       req.AilmentIDs,
		ModerationStatus: models.ModerationPending,
	}, id)
	if err != nil {
		return 0, err
	}

	cacheKey := fmt.Sprintf("remedy:%d", id)
	if err := s.cache.Invalidate(ctx, cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	s.log.Info("updated remedy", slog.Int("id", id))
	return res, nil
}

// Remove удаляет средство. Разрешено автору и администратору.
func (s *Service) Remove(ctx context.Context, id int, userUID, role string) (int, error) {
	current, err := s.repo.ReadRemedy(ctx, id)
	if err != nil {
		return 0, err
	}
	if current.CreatedBy != userUID && role != models.RoleAdmin {
		return 0, ErrNotOwner
	}

	cacheKey := fmt.Sprintf("remedy:%d", id)
	if err := s.cache.Invalidate(ctx, cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return s.repo.RemoveRemedy(ctx, id)
}

// uniqueSlug строит слаг из названия и разрешает коллизии числовым суффиксом.
func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for attempt := 1; ; attempt++ {
		exists, err := s.repo.RemedySlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = slug.MakeUnique(base, attempt)
	}
}
