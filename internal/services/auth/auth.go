// Package auth содержит логику бизнес-уровня для регистрации, входа,
// подтверждения почты и сброса пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/remedyhub/remedy-api/internal/config"
	"github.com/remedyhub/remedy-api/internal/lib/jwt"
	"github.com/remedyhub/remedy-api/internal/lib/password"
	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// Ошибки бизнес-уровня аутентификации.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserSuspended      = errors.New("user is suspended")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Токены подтверждения и сброса живут в Redis ограниченное время.
const (
	verifyTokenTTL = 48 * time.Hour
	resetTokenTTL  = time.Hour
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	SetEmailVerified(ctx context.Context, uid string) error
	UpdatePasswordHash(ctx context.Context, uid, hash string) error
}

// TokenStore описывает методы кеша для одноразовых токенов и троттлинга.
type TokenStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// EmailPublisher публикует задания на отправку писем.
type EmailPublisher interface {
	Publish(job models.EmailJob) error
}

// Service отвечает за регистрацию, авторизацию и восстановление доступа.
type Service struct {
	users    UserRepository
	tokens   TokenStore
	emails   EmailPublisher
	jwtMaker jwt.Maker
	log      *slog.Logger

	publicURL   string
	resetLimit  int
	resetWindow time.Duration
}

// New создает новый экземпляр Service.
func New(users UserRepository, tokens TokenStore, emails EmailPublisher,
	jwtMaker jwt.Maker, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		emails:      emails,
		jwtMaker:    jwtMaker,
		log:         log,
		publicURL:   cfg.PublicURL,
		resetLimit:  cfg.PasswordReset.RequestLimit,
		resetWindow: cfg.PasswordReset.RequestWindow,
	}
}

// Register создает пользователя с ролью user, отправляет письмо с
// подтверждением почты и возвращает UID.
func (s *Service) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	const op = "services.auth.Register"

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.users.RegisterUser(ctx, models.User{
		UID:          uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Status:       models.UserStatusActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("registered new user", slog.String("uid", uid))

	token := uuid.NewString()
	if err := s.tokens.Set(ctx, verifyKey(token), uid, verifyTokenTTL); err != nil {
		s.log.Warn("failed to store verification token", sl.Err(err))
		return uid, nil
	}
	s.sendEmail(models.EmailJob{
		Kind:     models.EmailKindVerification,
		Email:    req.Email,
		Username: req.Username,
		Link:     s.publicURL + "/api/v1/auth/verify?token=" + token,
	})
	return uid, nil
}

// Login проверяет учетные данные и возвращает JWT.
// Приостановленным пользователям вход запрещен.
func (s *Service) Login(ctx context.Context, req models.DummyLogin) (string, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", ErrInvalidCredentials
	}
	if user.Status == models.UserStatusSuspended {
		return "", ErrUserSuspended
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Username, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user logged in", slog.String("uid", user.UID))
	return token, nil
}

// VerifyEmail помечает почту подтвержденной по одноразовому токену из письма.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	const op = "services.auth.VerifyEmail"

	var uid string
	found, err := s.tokens.Get(ctx, verifyKey(token), &uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return ErrInvalidToken
	}
	if err := s.users.SetEmailVerified(ctx, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.tokens.Invalidate(ctx, verifyKey(token)); err != nil {
		s.log.Warn("failed to invalidate verification token", sl.Err(err))
	}
	s.log.Info("email verified", slog.String("uid", uid))
	return nil
}

// RequestPasswordReset отправляет письмо со ссылкой для сброса пароля.
// Запросы по одному адресу ограничены лимитом в окне троттлинга.
// Для незарегистрированного адреса возвращается nil без отправки письма.
func (s *Service) RequestPasswordReset(ctx context.Context, req models.DummyResetRequest) error {
	const op = "services.auth.RequestPasswordReset"

	count, err := s.tokens.IncrWithTTL(ctx, "reset-throttle:"+req.Email, s.resetWindow)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > int64(s.resetLimit) {
		return ErrTooManyRequests
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token := uuid.NewString()
	if err := s.tokens.Set(ctx, resetKey(token), user.UID, resetTokenTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.sendEmail(models.EmailJob{
		Kind:     models.EmailKindPasswordReset,
		Email:    user.Email,
		Username: user.Username,
		Link:     s.publicURL + "/reset-password?token=" + token,
	})
	s.log.Info("password reset requested", slog.String("uid", user.UID))
	return nil
}

// ConfirmPasswordReset устанавливает новый пароль по одноразовому токену.
func (s *Service) ConfirmPasswordReset(ctx context.Context, req models.DummyResetConfirm) error {
	const op = "services.auth.ConfirmPasswordReset"

	var uid string
	found, err := s.tokens.Get(ctx, resetKey(req.Token), &uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return ErrInvalidToken
	}

	hash, err := password.GetHash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePasswordHash(ctx, uid, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.tokens.Invalidate(ctx, resetKey(req.Token)); err != nil {
		s.log.Warn("failed to invalidate reset token", sl.Err(err))
	}
	s.log.Info("password reset completed", slog.String("uid", uid))
	return nil
}

func (s *Service) sendEmail(job models.EmailJob) {
	if err := s.emails.Publish(job); err != nil {
		s.log.Warn("failed to publish email job", sl.Err(err))
	}
}

func verifyKey(token string) string { return "verify-email:" + token }
func resetKey(token string) string  { return "reset-password:" + token }
