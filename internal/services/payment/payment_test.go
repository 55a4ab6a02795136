package payment

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/remedyhub/remedy-api/internal/paymentprovider"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) UpdatePaymentStatus(ctx context.Context, id int, status string) (int, error) {
	args := m.Called(ctx, id, status)
	return args.Int(0), args.Error(1)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) VerifyWebhook(body []byte, signatureHeader string) (*paymentprovider.WebhookEvent, error) {
	args := m.Called(body, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.WebhookEvent), args.Error(1)
}

func (m *ProviderMock) GetPaymentIntent(ctx context.Context, intentID string) (*paymentprovider.PaymentIntent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PaymentIntent), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func webhookEvent(eventType string, metadata map[string]string) *paymentprovider.WebhookEvent {
	event := &paymentprovider.WebhookEvent{ID: "evt_1", Type: eventType}
	event.Data.Object = paymentprovider.PaymentIntent{ID: "pi_1", Metadata: metadata}
	return event
}

func TestService_HandleWebhook(t *testing.T) {
	body := []byte(`{}`)
	meta := map[string]string{"subscription_id": "42", "user_uid": "uid-1"}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, p *ProviderMock)
		wantErr    error
	}{
		{
			name: "успешная оплата переводит подписку в paid",
			setupMocks: func(r *RepoMock, p *ProviderMock) {
				p.On("VerifyWebhook", body, "sig").
					Return(webhookEvent(paymentprovider.EventPaymentSucceeded, meta), nil).Once()
				p.On("GetPaymentIntent", mock.Anything, "pi_1").
					Return(&paymentprovider.PaymentIntent{ID: "pi_1", Status: paymentprovider.IntentStatusSucceeded}, nil).Once()
				r.On("UpdatePaymentStatus", mock.Anything, 42, "paid").Return(1, nil).Once()
			},
		},
		{
			name: "устаревшее событие об успехе не выдает доступ",
			setupMocks: func(r *RepoMock, p *ProviderMock) {
				p.On("VerifyWebhook", body, "sig").
					Return(webhookEvent(paymentprovider.EventPaymentSucceeded, meta), nil).Once()
				p.On("GetPaymentIntent", mock.Anything, "pi_1").
					Return(&paymentprovider.PaymentIntent{ID: "pi_1", Status: paymentprovider.IntentStatusCanceled}, nil).Once()
			},
		},
		{
			name: "неуспешная оплата переводит подписку в failed",
			setupMocks: func(r *RepoMock, p *ProviderMock) {
				p.On("VerifyWebhook", body, "sig").
					Return(webhookEvent(paymentprovider.EventPaymentFailed, meta), nil).Once()
				r.On("UpdatePaymentStatus", mock.Anything, 42, "failed").Return(1, nil).Once()
			},
		},
		{
			name: "неизвестный тип события игнорируется",
			setupMocks: func(_ *RepoMock, p *ProviderMock) {
				p.On("VerifyWebhook", body, "sig").
					Return(webhookEvent("charge.refunded", meta), nil).Once()
			},
		},
		{
			name: "неверная подпись",
			setupMocks: func(_ *RepoMock, p *ProviderMock) {
				p.On("VerifyWebhook", body, "sig").
					Return(nil, paymentprovider.ErrInvalidSignature).Once()
			},
			wantErr: ErrBadSignature,
		},
		{
			name: "событие без subscription_id в метаданных",
			setupMocks: func(_ *RepoMock, p *ProviderMock) {
				p.On("VerifyWebhook", body, "sig").
					Return(webhookEvent(paymentprovider.EventPaymentSucceeded, map[string]string{}), nil).Once()
			},
			wantErr: ErrBadMetadata,
		},
		{
			name: "вебхук по неизвестной подписке не считается ошибкой",
			setupMocks: func(r *RepoMock, p *ProviderMock) {
				p.On("VerifyWebhook", body, "sig").
					Return(webhookEvent(paymentprovider.EventPaymentCanceled, meta), nil).Once()
				r.On("UpdatePaymentStatus", mock.Anything, 42, "canceled").Return(0, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			provider := new(ProviderMock)
			tt.setupMocks(repo, provider)
			svc := New(repo, provider, newNoopLogger())

			err := svc.HandleWebhook(context.Background(), body, "sig")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}
