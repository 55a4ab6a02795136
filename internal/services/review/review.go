// Package review содержит бизнес-логику отзывов о средствах.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// ErrRemedyNotFound средство, к которому относится отзыв, не существует.
var ErrRemedyNotFound = errors.New("remedy not found")

// Repository описывает методы хранилища для работы с отзывами.
type Repository interface {
	CreateReview(ctx context.Context, review models.Review) (int, error)
	ListReviewsByRemedy(ctx context.Context, remedyID, limit, offset int) ([]*models.Review, error)
	ReadRemedy(ctx context.Context, id int) (*models.Remedy, error)
}

// Service реализует бизнес-логику отзывов.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create сохраняет отзыв о существующем средстве.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyReview) (int, error) {
	const op = "services.review.Create"

	remedy, err := s.repo.ReadRemedy(ctx, req.RemedyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrRemedyNotFound
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !remedy.IsActive {
		return 0, ErrRemedyNotFound
	}

	id, err := s.repo.CreateReview(ctx, models.Review{
		RemedyID:  req.RemedyID,
		Rating:    req.Rating,
		Text:      req.Text,
		CreatedBy: userUID,
		IsActive:  true,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new review",
		slog.Int("id", id), slog.Int("remedy_id", req.RemedyID))
	return id, nil
}

// ListByRemedy возвращает активные отзывы о средстве с пагинацией.
func (s *Service) ListByRemedy(ctx context.Context, remedyID, limit, offset int) ([]*models.Review, error) {
	return s.repo.ListReviewsByRemedy(ctx, remedyID, limit, offset)
}
