package subscription

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/paymentprovider"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.UserSubscription) (int, error) {
	args := m.Called(ctx, sub)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.UserSubscription, error) {
	args := m.Called(ctx, userUID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSubscription), args.Error(1)
}
func (m *RepoMock) GetSubscription(ctx context.Context, id int) (*models.UserSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSubscription), args.Error(1)
}
func (m *RepoMock) CancelSubscription(ctx context.Context, id int, canceledAt time.Time) (int, error) {
	args := m.Called(ctx, id, canceledAt)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ReadPlan(ctx context.Context, id int) (*models.PricingPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingPlan), args.Error(1)
}

type PaymentsMock struct{ mock.Mock }

func (m *PaymentsMock) CreatePaymentIntent(ctx context.Context, params paymentprovider.CreateIntentParams) (*paymentprovider.PaymentIntent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PaymentIntent), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Subscribe(t *testing.T) {
	plan := &models.PricingPlan{
		ID: 3, Name: "Basic", Price: 999, Currency: "usd",
		RemediesPerAilment: 2, DurationMonths: 1, IsActive: true,
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, p *PaymentsMock)
		wantErr    error
	}{
		{
			name: "оформление создает pending подписку и платёж",
			setupMocks: func(r *RepoMock, p *PaymentsMock) {
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).
					Return(nil, repository.ErrNotFound).Once()
				r.On("ReadPlan", mock.Anything, 3).Return(plan, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.UserSubscription) bool {
					return s.UserUID == "uid-1" &&
						s.PlanID == 3 &&
						s.PaymentStatus == models.PaymentStatusPending &&
						s.EndDate.After(s.StartDate)
				})).Return(42, nil).Once()
				p.On("CreatePaymentIntent", mock.Anything, mock.MatchedBy(func(params paymentprovider.CreateIntentParams) bool {
					return params.Amount == 999 &&
						params.Currency == "usd" &&
						params.Metadata["subscription_id"] == "42" &&
						params.Metadata["user_uid"] == "uid-1"
				})).Return(&paymentprovider.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Once()
			},
		},
		{
			name: "вторая активная подписка запрещена",
			setupMocks: func(r *RepoMock, _ *PaymentsMock) {
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).
					Return(&models.UserSubscription{ID: 1}, nil).Once()
			},
			wantErr: ErrAlreadyActive,
		},
		{
			name: "неактивный план недоступен для оформления",
			setupMocks: func(r *RepoMock, _ *PaymentsMock) {
				inactive := *plan
				inactive.IsActive = false
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).
					Return(nil, repository.ErrNotFound).Once()
				r.On("ReadPlan", mock.Anything, 3).Return(&inactive, nil).Once()
			},
			wantErr: ErrPlanNotFound,
		},
		{
			name: "несуществующий план",
			setupMocks: func(r *RepoMock, _ *PaymentsMock) {
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).
					Return(nil, repository.ErrNotFound).Once()
				r.On("ReadPlan", mock.Anything, 3).Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrPlanNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			payments := new(PaymentsMock)
			tt.setupMocks(repo, payments)
			svc := New(repo, payments, newNoopLogger())

			got, err := svc.Subscribe(context.Background(), "uid-1", models.DummySubscribe{PlanID: 3})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 42, got.SubscriptionID)
				assert.Equal(t, "pi_1_secret", got.ClientSecret)
			}

			repo.AssertExpectations(t)
			payments.AssertExpectations(t)
		})
	}
}

func TestService_Cancel(t *testing.T) {
	canceledAt := time.Now().Add(-time.Hour)

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "успешная отмена",
			setupMocks: func(r *RepoMock) {
				r.On("GetSubscription", mock.Anything, 42).
					Return(&models.UserSubscription{ID: 42, UserUID: "uid-1"}, nil).Once()
				r.On("CancelSubscription", mock.Anything, 42, mock.Anything).Return(1, nil).Once()
			},
		},
		{
			name: "чужая подписка",
			setupMocks: func(r *RepoMock) {
				r.On("GetSubscription", mock.Anything, 42).
					Return(&models.UserSubscription{ID: 42, UserUID: "other"}, nil).Once()
			},
			wantErr: ErrNotOwner,
		},
		{
			name: "повторная отмена",
			setupMocks: func(r *RepoMock) {
				r.On("GetSubscription", mock.Anything, 42).
					Return(&models.UserSubscription{ID: 42, UserUID: "uid-1", CanceledAt: &canceledAt}, nil).Once()
			},
			wantErr: ErrAlreadyCanceled,
		},
		{
			name: "подписка не найдена",
			setupMocks: func(r *RepoMock) {
				r.On("GetSubscription", mock.Anything, 42).Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrSubNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := New(repo, new(PaymentsMock), newNoopLogger())

			err := svc.Cancel(context.Background(), "uid-1", 42)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Current_NoSubscription(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).
		Return(nil, repository.ErrNotFound).Once()
	svc := New(repo, new(PaymentsMock), newNoopLogger())

	_, err := svc.Current(context.Background(), "uid-1")
	assert.ErrorIs(t, err, ErrNoSubscription)
	repo.AssertExpectations(t)
}
