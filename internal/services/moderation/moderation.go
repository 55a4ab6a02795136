// Package moderation реализует приём жалоб на контент, накопление счётчика
// жалоб с автоматической деактивацией по порогу и решения модераторов.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/metrics"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// Ошибки бизнес-уровня модерации.
var (
	ErrAlreadyFlagged  = errors.New("content already flagged by this user")
	ErrContentNotFound = errors.New("content not found")
	ErrFlagNotOpen     = errors.New("flag is not open")
)

// Repository описывает методы хранилища для работы с жалобами и модерацией.
type Repository interface {
	CreateFlag(ctx context.Context, flag models.Flag) (int, error)
	GetFlag(ctx context.Context, id int) (*models.Flag, error)
	SetFlagStatus(ctx context.Context, id int, status, resolvedBy string) (int, error)
	BumpFlagCount(ctx context.Context, contentType string, contentID int) (int, error)
	DeactivateContent(ctx context.Context, contentType string, contentID int, reason string) error
	SetContentModeration(ctx context.Context, contentType string, contentID int, status string, active bool) error
	GetModerationStatus(ctx context.Context, contentType string, contentID int) (*models.ModerationStatus, error)
	ListUnderReview(ctx context.Context, limit, offset int) ([]*models.ModerationStatus, error)
	ReadRemedy(ctx context.Context, id int) (*models.Remedy, error)
	ReadReview(ctx context.Context, id int) (*models.Review, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// EmailPublisher публикует задания на отправку писем.
type EmailPublisher interface {
	Publish(job models.EmailJob) error
}

// Service реализует бизнес-логику модерации.
type Service struct {
	repo      Repository
	emails    EmailPublisher
	log       *slog.Logger
	threshold int
}

// New создает новый экземпляр Service. threshold задаёт число жалоб,
// после которого контент деактивируется автоматически.
func New(repo Repository, emails EmailPublisher, threshold int, log *slog.Logger) *Service {
	return &Service{repo: repo, emails: emails, threshold: threshold, log: log}
}

// FileFlag регистрирует жалобу пользователя на контент. Повторная жалоба
// того же пользователя отклоняется. При достижении порога контент
// деактивируется, автор получает уведомление.
func (s *Service) FileFlag(ctx context.Context, contentType string, contentID int, userUID string, req models.DummyFlag) (int, error) {
	const op = "services.moderation.FileFlag"

	authorUID, err := s.contentAuthor(ctx, contentType, contentID)
	if err != nil {
		return 0, err
	}

	flagID, err := s.repo.CreateFlag(ctx, models.Flag{
		ContentType: contentType,
		ContentID:   contentID,
		FlaggedBy:   userUID,
		Reason:      req.Reason,
		Note:        req.Note,
		Status:      models.FlagOpen,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, ErrAlreadyFlagged
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.FlagsFiled.WithLabelValues(contentType).Inc()

	count, err := s.repo.BumpFlagCount(ctx, contentType, contentID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("flag filed",
		slog.String("content_type", contentType), slog.Int("content_id", contentID),
		slog.Int("flag_count", count))

	if count >= s.threshold {
		reason := fmt.Sprintf("flag threshold reached: %d of %d", count, s.threshold)
		if err := s.repo.DeactivateContent(ctx, contentType, contentID, reason); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		metrics.ContentDeactivations.WithLabelValues(contentType).Inc()
		s.log.Warn("content deactivated by flag threshold",
			slog.String("content_type", contentType), slog.Int("content_id", contentID))
		s.notifyAuthor(ctx, authorUID, contentType)
	}

	return flagID, nil
}

// ResolveFlag фиксирует решение модератора по жалобе. Решение resolved
// переводит контент в rejected и деактивирует его, dismissed возвращает
// контент в approved и активирует.
func (s *Service) ResolveFlag(ctx context.Context, flagID int, moderatorUID string, req models.DummyResolveFlag) error {
	const op = "services.moderation.ResolveFlag"

	flag, err := s.repo.GetFlag(ctx, flagID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.SetFlagStatus(ctx, flagID, req.Resolution, moderatorUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if updated == 0 {
		return ErrFlagNotOpen
	}

	status, err := s.repo.GetModerationStatus(ctx, flag.ContentType, flag.ContentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	target := models.ModerationApproved
	active := true
	if req.Resolution == models.FlagResolved {
		target = models.ModerationRejected
		active = false
	}
	if !models.CanTransitionModeration(status.Status, target) {
		return fmt.Errorf("%s: invalid moderation transition %s -> %s", op, status.Status, target)
	}
	if err := s.repo.SetContentModeration(ctx, flag.ContentType, flag.ContentID, target, active); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("flag resolved",
		slog.Int("flag_id", flagID), slog.String("resolution", req.Resolution),
		slog.String("moderator", moderatorUID))
	return nil
}

// Queue возвращает контент, ожидающий решения модератора.
func (s *Service) Queue(ctx context.Context, limit, offset int) ([]*models.ModerationStatus, error) {
	const op = "services.moderation.Queue"

	items, err := s.repo.ListUnderReview(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// contentAuthor возвращает UID автора контента или ErrContentNotFound.
func (s *Service) contentAuthor(ctx context.Context, contentType string, contentID int) (string, error) {
	const op = "services.moderation.contentAuthor"

	switch contentType {
	case models.ContentTypeRemedy:
		remedy, err := s.repo.ReadRemedy(ctx, contentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrContentNotFound
			}
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return remedy.CreatedBy, nil
	case models.ContentTypeReview:
		review, err := s.repo.ReadReview(ctx, contentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrContentNotFound
			}
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return review.CreatedBy, nil
	default:
		return "", ErrContentNotFound
	}
}

// notifyAuthor публикует письмо автору о деактивации его контента.
// Сбой публикации не прерывает обработку жалобы.
func (s *Service) notifyAuthor(ctx context.Context, authorUID, contentType string) {
	user, err := s.repo.GetUserByUID(ctx, authorUID)
	if err != nil {
		s.log.Warn("failed to find content author", sl.Err(err))
		return
	}
	job := models.EmailJob{
		Kind:     models.EmailKindContentDisabled,
		Email:    user.Email,
		Username: user.Username,
		Subject:  "Your content was hidden after community reports",
		Body:     fmt.Sprintf("Your %s was hidden after multiple community reports and is awaiting moderator review.", contentType),
	}
	if err := s.emails.Publish(job); err != nil {
		s.log.Warn("failed to publish content disabled email", sl.Err(err))
	}
}
