// Package user содержит бизнес-логику профилей и администрирования
// учётных записей.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// ErrUserNotFound пользователь не существует или удалён.
var ErrUserNotFound = errors.New("user not found")

// Repository описывает методы хранилища для работы с пользователями.
type Repository interface {
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUserStatus(ctx context.Context, uid, status string) (int, error)
}

// Profile публичное представление учётной записи без хэша пароля.
type Profile struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"email_verified"`
}

// Service реализует бизнес-логику учётных записей.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetProfile возвращает профиль пользователя по UID.
func (s *Service) GetProfile(ctx context.Context, uid string) (*Profile, error) {
	const op = "services.user.GetProfile"

	user, err := s.repo.GetUserByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Profile{
		UID:           user.UID,
		Email:         user.Email,
		Username:      user.Username,
		Role:          user.Role,
		Status:        user.Status,
		EmailVerified: user.EmailVerified,
	}, nil
}

// List возвращает учётные записи с пагинацией. Доступно администратору.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	const op = "services.user.List"

	users, err := s.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	profiles := make([]*Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, &Profile{
			UID:           u.UID,
			Email:         u.Email,
			Username:      u.Username,
			Role:          u.Role,
			Status:        u.Status,
			EmailVerified: u.EmailVerified,
		})
	}
	return profiles, nil
}

// SetStatus меняет статус учётной записи. Доступно администратору.
// Приостановленный пользователь не может войти в систему.
func (s *Service) SetStatus(ctx context.Context, uid string, req models.DummyUserStatus) error {
	const op = "services.user.SetStatus"

	updated, err := s.repo.UpdateUserStatus(ctx, uid, req.Status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if updated == 0 {
		return ErrUserNotFound
	}
	s.log.Info("user status updated", slog.String("uid", uid), slog.String("status", req.Status))
	return nil
}
