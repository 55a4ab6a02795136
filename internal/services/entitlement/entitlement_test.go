package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ReadRemedy(ctx context.Context, id int) (*models.Remedy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Remedy), args.Error(1)
}
func (m *RepoMock) HasUnlockedRemedy(ctx context.Context, userUID string, remedyID int) (bool, error) {
	args := m.Called(ctx, userUID, remedyID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) GetActiveSubscription(ctx context.Context, userUID string, now time.Time) (*models.UserSubscription, error) {
	args := m.Called(ctx, userUID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSubscription), args.Error(1)
}
func (m *RepoMock) ReadPlan(ctx context.Context, id int) (*models.PricingPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingPlan), args.Error(1)
}
func (m *RepoMock) GrantRemedyUnlimited(ctx context.Context, subscriptionID int, userUID string, remedyID int, ailmentIDs []int) error {
	args := m.Called(ctx, subscriptionID, userUID, remedyID, ailmentIDs)
	return args.Error(0)
}
func (m *RepoMock) GrantRemedyCapped(ctx context.Context, subscriptionID int, userUID string, remedyID int, ailmentIDs []int, cap int) (bool, error) {
	args := m.Called(ctx, subscriptionID, userUID, remedyID, ailmentIDs, cap)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) ListEntitlements(ctx context.Context, subscriptionID int) ([]models.AilmentEntitlement, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AilmentEntitlement), args.Error(1)
}
func (m *RepoMock) ListUnlockedRemedies(ctx context.Context, userUID string) ([]int, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func activeRemedy() *models.Remedy {
	return &models.Remedy{
		ID:         10,
		Name:       "Chamomile Tea",
		Slug:       "chamomile-tea",
		AilmentIDs: []int{1, 2},
		IsActive:   true,
	}
}

func TestService_Resolve(t *testing.T) {
	sub := &models.UserSubscription{ID: 5, UserUID: "uid-1", PlanID: 3, PaymentStatus: models.PaymentStatusPaid}

	tests := []struct {
		name        string
		setupMocks  func(r *RepoMock)
		wantAllowed bool
		wantReason  string
		wantErr     error
	}{
		{
			name: "уже открытое средство доступно без подписки",
			setupMocks: func(r *RepoMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
				r.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(true, nil).Once()
			},
			wantAllowed: true,
		},
		{
			name: "без активной подписки доступ закрыт",
			setupMocks: func(r *RepoMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
				r.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(false, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).
					Return(nil, repository.ErrNotFound).Once()
			},
			wantAllowed: false,
			wantReason:  ReasonNoSubscription,
		},
		{
			name: "безлимитный план открывает средство сразу",
			setupMocks: func(r *RepoMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
				r.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(false, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).Return(sub, nil).Once()
				r.On("ReadPlan", mock.Anything, 3).
					Return(&models.PricingPlan{ID: 3, IsUnlimitedRemedies: true}, nil).Once()
				r.On("GrantRemedyUnlimited", mock.Anything, 5, "uid-1", 10, []int{1, 2}).Return(nil).Once()
			},
			wantAllowed: true,
		},
		{
			name: "лимитированный план занимает слоты по всем недугам",
			setupMocks: func(r *RepoMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
				r.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(false, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).Return(sub, nil).Once()
				r.On("ReadPlan", mock.Anything, 3).
					Return(&models.PricingPlan{ID: 3, RemediesPerAilment: 2}, nil).Once()
				r.On("GrantRemedyCapped", mock.Anything, 5, "uid-1", 10, []int{1, 2}, 2).Return(true, nil).Once()
			},
			wantAllowed: true,
		},
		{
			name: "исчерпанный лимит по одному из недугов закрывает доступ",
			setupMocks: func(r *RepoMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
				r.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(false, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).Return(sub, nil).Once()
				r.On("ReadPlan", mock.Anything, 3).
					Return(&models.PricingPlan{ID: 3, RemediesPerAilment: 1}, nil).Once()
				r.On("GrantRemedyCapped", mock.Anything, 5, "uid-1", 10, []int{1, 2}, 1).Return(false, nil).Once()
			},
			wantAllowed: false,
			wantReason:  ReasonPlanLimit,
		},
		{
			name: "подписка со ссылкой на несуществующий план",
			setupMocks: func(r *RepoMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
				r.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(false, nil).Once()
				r.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).Return(sub, nil).Once()
				r.On("ReadPlan", mock.Anything, 3).Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrPlanNotFound,
		},
		{
			name: "деактивированное средство не найдено",
			setupMocks: func(r *RepoMock) {
				inactive := activeRemedy()
				inactive.IsActive = false
				r.On("ReadRemedy", mock.Anything, 10).Return(inactive, nil).Once()
			},
			wantErr: ErrRemedyNotFound,
		},
		{
			name: "несуществующее средство не найдено",
			setupMocks: func(r *RepoMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrRemedyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := New(repo, newNoopLogger())

			got, err := svc.Resolve(context.Background(), "uid-1", 10, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantAllowed, got.Allowed)
				assert.Equal(t, tt.wantReason, got.Reason)
				if tt.wantAllowed {
					assert.NotNil(t, got.Remedy)
				}
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_Resolve_AilmentScoped(t *testing.T) {
	sub := &models.UserSubscription{ID: 5, UserUID: "uid-1", PlanID: 3, PaymentStatus: models.PaymentStatusPaid}

	t.Run("слот занимается только по указанному недугу", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
		repo.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(false, nil).Once()
		repo.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).Return(sub, nil).Once()
		repo.On("ReadPlan", mock.Anything, 3).
			Return(&models.PricingPlan{ID: 3, RemediesPerAilment: 1}, nil).Once()
		repo.On("GrantRemedyCapped", mock.Anything, 5, "uid-1", 10, []int{2}, 1).Return(true, nil).Once()
		svc := New(repo, newNoopLogger())

		ailmentID := 2
		got, err := svc.Resolve(context.Background(), "uid-1", 10, &ailmentID)
		assert.NoError(t, err)
		assert.True(t, got.Allowed)
		repo.AssertExpectations(t)
	})

	t.Run("недуг не связан со средством", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
		svc := New(repo, newNoopLogger())

		ailmentID := 99
		_, err := svc.Resolve(context.Background(), "uid-1", 10, &ailmentID)
		assert.ErrorIs(t, err, ErrAilmentNotLinked)
		repo.AssertNotCalled(t, "GrantRemedyCapped",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("безлимитный план записывает все недуги средства", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Once()
		repo.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(false, nil).Once()
		repo.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).Return(sub, nil).Once()
		repo.On("ReadPlan", mock.Anything, 3).
			Return(&models.PricingPlan{ID: 3, IsUnlimitedRemedies: true}, nil).Once()
		repo.On("GrantRemedyUnlimited", mock.Anything, 5, "uid-1", 10, []int{1, 2}).Return(nil).Once()
		svc := New(repo, newNoopLogger())

		ailmentID := 1
		got, err := svc.Resolve(context.Background(), "uid-1", 10, &ailmentID)
		assert.NoError(t, err)
		assert.True(t, got.Allowed)
		repo.AssertExpectations(t)
	})
}

func TestService_Resolve_RepeatedAccessDoesNotConsumeSlot(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ReadRemedy", mock.Anything, 10).Return(activeRemedy(), nil).Twice()
	repo.On("HasUnlockedRemedy", mock.Anything, "uid-1", 10).Return(true, nil).Twice()
	svc := New(repo, newNoopLogger())

	for i := 0; i < 2; i++ {
		got, err := svc.Resolve(context.Background(), "uid-1", 10, nil)
		assert.NoError(t, err)
		assert.True(t, got.Allowed)
	}

	// GrantRemedyCapped не вызывался ни разу
	repo.AssertNotCalled(t, "GrantRemedyCapped",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestService_ListSlots(t *testing.T) {
	repo := new(RepoMock)
	sub := &models.UserSubscription{ID: 5, UserUID: "uid-1"}
	slots := []models.AilmentEntitlement{{AilmentID: 1, RemedyIDs: []int{10, 11}}}
	repo.On("GetActiveSubscription", mock.Anything, "uid-1", mock.Anything).Return(sub, nil).Once()
	repo.On("ListEntitlements", mock.Anything, 5).Return(slots, nil).Once()
	svc := New(repo, newNoopLogger())

	got, err := svc.ListSlots(context.Background(), "uid-1")
	assert.NoError(t, err)
	assert.Equal(t, slots, got)
	repo.AssertExpectations(t)
}

func TestService_ListUnlocked_Error(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListUnlockedRemedies", mock.Anything, "uid-1").Return(nil, errors.New("db error")).Once()
	svc := New(repo, newNoopLogger())

	_, err := svc.ListUnlocked(context.Background(), "uid-1")
	assert.Error(t, err)
	repo.AssertExpectations(t)
}
