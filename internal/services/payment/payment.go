// Package payment обрабатывает вебхуки платёжного провайдера и
// переводит подписки между статусами оплаты.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/paymentprovider"
)

// Ошибки обработки вебхука.
var (
	ErrBadSignature = errors.New("bad webhook signature")
	ErrBadMetadata  = errors.New("webhook metadata is missing subscription_id")
)

// Repository описывает методы хранилища для смены статуса оплаты.
type Repository interface {
	UpdatePaymentStatus(ctx context.Context, id int, status string) (int, error)
}

// Provider описывает клиента платёжного провайдера: проверку подписи
// вебхука и чтение текущего состояния платёжного намерения.
type Provider interface {
	VerifyWebhook(body []byte, signatureHeader string) (*paymentprovider.WebhookEvent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*paymentprovider.PaymentIntent, error)
}

// Service реализует обработку платёжных событий.
type Service struct {
	repo     Repository
	provider Provider
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, provider Provider, log *slog.Logger) *Service {
	return &Service{repo: repo, provider: provider, log: log}
}

// HandleWebhook проверяет подпись, сопоставляет тип события со статусом
// оплаты и обновляет подписку. Неизвестные типы событий игнорируются.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signatureHeader string) error {
	const op = "services.payment.HandleWebhook"

	event, err := s.provider.VerifyWebhook(body, signatureHeader)
	if err != nil {
		if errors.Is(err, paymentprovider.ErrInvalidSignature) {
			return ErrBadSignature
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var status string
	switch event.Type {
	case paymentprovider.EventPaymentSucceeded:
		status = models.PaymentStatusPaid
	case paymentprovider.EventPaymentFailed:
		status = models.PaymentStatusFailed
	case paymentprovider.EventPaymentCanceled:
		status = models.PaymentStatusCanceled
	default:
		s.log.Info("ignoring webhook event", slog.String("type", event.Type))
		return nil
	}

	rawID, ok := event.Data.Object.Metadata["subscription_id"]
	if !ok {
		return ErrBadMetadata
	}
	subscriptionID, err := strconv.Atoi(rawID)
	if err != nil {
		return ErrBadMetadata
	}

	// Перед выдачей доступа текущее состояние намерения перечитывается
	// у провайдера: событие могло устареть к моменту доставки.
	if status == models.PaymentStatusPaid {
		intent, err := s.provider.GetPaymentIntent(ctx, event.Data.Object.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if intent.Status != paymentprovider.IntentStatusSucceeded {
			s.log.Warn("stale succeeded event, intent is not succeeded",
				slog.String("intent_id", intent.ID), slog.String("status", intent.Status))
			return nil
		}
	}

	updated, err := s.repo.UpdatePaymentStatus(ctx, subscriptionID, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if updated == 0 {
		s.log.Warn("webhook for unknown subscription", slog.Int("subscription_id", subscriptionID))
		return nil
	}

	s.log.Info("payment status updated",
		slog.Int("subscription_id", subscriptionID), slog.String("status", status),
		slog.String("event_id", event.ID))
	return nil
}
