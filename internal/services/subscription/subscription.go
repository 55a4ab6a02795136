// Package subscription содержит бизнес-логику оформления и отмены
// подписок на тарифные планы.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/paymentprovider"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

// Ошибки бизнес-уровня подписок.
var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrAlreadyActive   = errors.New("active subscription already exists")
	ErrNoSubscription  = errors.New("no active subscription")
	ErrNotOwner        = errors.New("not an owner of the subscription")
	ErrAlreadyCanceled = errors.New("subscription already canceled")
	ErrSubNotFound     = errors.New("subscription not found")
)

// Repository описывает методы хранилища для работы с подписками.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.UserSubscription) (int, error)
	GetActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.UserSubscription, error)
	GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error)
	CancelSubscription(ctx context.Context, id int, canceledAt time.Time) (int, error)
	ReadPlan(ctx context.Context, id int) (*models.PricingPlan, error)
}

// PaymentClient описывает создание платёжного намерения у провайдера.
type PaymentClient interface {
	CreatePaymentIntent(ctx context.Context, params paymentprovider.CreateIntentParams) (*paymentprovider.PaymentIntent, error)
}

// Checkout результат оформления подписки: подписка создана в статусе
// pending, оплату подтверждает клиент по client_secret.
type Checkout struct {
	SubscriptionID int    `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
}

// Service реализует бизнес-логику подписок.
type Service struct {
	repo     Repository
	payments PaymentClient
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, payments PaymentClient, log *slog.Logger) *Service {
	return &Service{repo: repo, payments: payments, log: log}
}

// Subscribe оформляет подписку на план: создаёт запись в статусе pending
// и платёжное намерение у провайдера. У пользователя может быть не более
// одной активной подписки.
func (s *Service) Subscribe(ctx context.Context, userUID string, req models.DummySubscribe) (*Checkout, error) {
	const op = "services.subscription.Subscribe"

	now := time.Now()
	if _, err := s.repo.GetActiveSubscription(ctx, userUID, now); err == nil {
		return nil, ErrAlreadyActive
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, err := s.repo.ReadPlan(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !plan.IsActive {
		return nil, ErrPlanNotFound
	}

	subID, err := s.repo.CreateSubscription(ctx, models.UserSubscription{
		UserUID:       userUID,
		PlanID:        plan.ID,
		PaymentStatus: models.PaymentStatusPending,
		StartDate:     now,
		EndDate:       now.AddDate(0, plan.DurationMonths, 0),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, paymentprovider.CreateIntentParams{
		Amount:   int64(plan.Price),
		Currency: plan.Currency,
		Metadata: map[string]string{
			"subscription_id": strconv.Itoa(subID),
			"user_uid":        userUID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription checkout started",
		slog.Int("subscription_id", subID), slog.String("user_uid", userUID),
		slog.Int("plan_id", plan.ID))
	return &Checkout{SubscriptionID: subID, ClientSecret: intent.ClientSecret}, nil
}

// Current возвращает активную подписку пользователя.
func (s *Service) Current(ctx context.Context, userUID string) (*models.UserSubscription, error) {
	const op = "services.subscription.Current"

	sub, err := s.repo.GetActiveSubscription(ctx, userUID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSubscription
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Cancel мягко отменяет подписку пользователя. Уже открытые средства
// остаются доступными, новые слоты не занимаются.
func (s *Service) Cancel(ctx context.Context, userUID string, subscriptionID int) error {
	const op = "services.subscription.Cancel"

	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.UserUID != userUID {
		return ErrNotOwner
	}
	if sub.CanceledAt != nil {
		return ErrAlreadyCanceled
	}

	updated, err := s.repo.CancelSubscription(ctx, subscriptionID, time.Now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if updated == 0 {
		return ErrAlreadyCanceled
	}
	s.log.Info("subscription canceled", slog.Int("subscription_id", subscriptionID))
	return nil
}
